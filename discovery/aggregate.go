package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wrgg/patchfeed/fetch"
	"github.com/wrgg/patchfeed/scraper"
)

// DefaultConcurrency bounds how many patch detail pages are fetched at once.
const DefaultConcurrency = 4

// PatchChanges holds everything extracted from one patch's detail page.
type PatchChanges struct {
	Patch     PatchRef
	Champions []ChampionChanges
}

// PatchError records a patch whose detail page could not be fetched. The
// patch is skipped for the run and picked up again next time, since it is
// never written to the store.
type PatchError struct {
	Patch PatchRef
	Err   error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %q: %v", e.Patch.Name, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

// AggregateResult collects per-patch extraction results and the failures
// encountered along the way. Patches preserves the input order.
type AggregateResult struct {
	Patches []PatchChanges
	Errors  []PatchError
}

// Aggregator fetches patch detail pages with bounded parallelism and runs
// the extractor over each. Pages are independent reads, so fetch order is
// unconstrained; result order is not.
type Aggregator struct {
	client      *fetch.Client
	schema      scraper.ChangesSchema
	concurrency int
}

// NewAggregator creates an aggregator. Concurrency below 1 falls back to
// DefaultConcurrency.
func NewAggregator(client *fetch.Client, schema scraper.ChangesSchema, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{
		client:      client,
		schema:      schema,
		concurrency: concurrency,
	}
}

// Aggregate fetches every patch's detail page and extracts its champion
// changes. One patch failing to fetch does not abort the others; the failure
// is recorded and processing continues. Cancelling ctx stops new fetches
// from being issued and records the remaining patches as failed.
func (a *Aggregator) Aggregate(ctx context.Context, patches []PatchRef) *AggregateResult {
	// Indexed slots keep the oldest-first input order in the result no
	// matter which fetch finishes first.
	changes := make([]*PatchChanges, len(patches))
	failures := make([]*PatchError, len(patches))

	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup

	for i, patch := range patches {
		if err := ctx.Err(); err != nil {
			failures[i] = &PatchError{Patch: patch, Err: err}
			continue
		}
		select {
		case <-ctx.Done():
			failures[i] = &PatchError{Patch: patch, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, patch PatchRef) {
			defer wg.Done()
			defer func() { <-sem }()

			doc, err := a.client.Document(ctx, patch.Link)
			if err != nil {
				slog.Warn("patch detail fetch failed",
					"patch", patch.Name,
					"url", patch.Link,
					"err", err,
				)
				failures[i] = &PatchError{Patch: patch, Err: err}
				return
			}

			extracted := scraper.ExtractChampionChanges(doc, a.schema)
			if len(extracted) == 0 {
				// Expected when upstream markup shifts: extraction degrades
				// to empty, it does not fail.
				slog.Warn("no champion changes extracted",
					"patch", patch.Name,
					"url", patch.Link,
				)
			}
			changes[i] = &PatchChanges{Patch: patch, Champions: extracted}
		}(i, patch)
	}

	wg.Wait()

	result := &AggregateResult{}
	for i := range patches {
		if failures[i] != nil {
			result.Errors = append(result.Errors, *failures[i])
			continue
		}
		if changes[i] != nil {
			result.Patches = append(result.Patches, *changes[i])
		}
	}
	return result
}
