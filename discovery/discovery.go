// Package discovery finds patches and champions upstream: the patch listing
// page (or its feed), the champion roster page, and each patch's detail page.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"github.com/wrgg/patchfeed/fetch"
	"github.com/wrgg/patchfeed/scraper"
)

// Re-export the record types callers pass between discovery and the store.
type (
	PatchRef        = scraper.PatchRef
	ChampionChanges = scraper.ChampionChanges
)

// DiscoverPatches fetches the listing page once and returns its patches
// oldest-first. The page lists newest-first, so the extracted order is
// reversed exactly once, here; downstream "process only new tail entries"
// logic depends on this. A fetch failure propagates and no partial list is
// returned.
func DiscoverPatches(ctx context.Context, client *fetch.Client, listingURL, baseURL string, schema scraper.ListingSchema) ([]PatchRef, error) {
	base, err := resolveBase(listingURL, baseURL)
	if err != nil {
		return nil, err
	}

	doc, err := client.Document(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	patches := scraper.ExtractPatchList(doc, schema, base)
	slices.Reverse(patches)
	return patches, nil
}

// FetchRoster fetches the roster page and returns the champion display names
// found on it. Idempotent for unchanged upstream content.
func FetchRoster(ctx context.Context, client *fetch.Client, rosterURL string, schema scraper.RosterSchema) ([]string, error) {
	doc, err := client.Document(ctx, rosterURL)
	if err != nil {
		return nil, err
	}
	return scraper.ExtractRoster(doc, schema), nil
}

// resolveBase picks the origin patch links are resolved against: the
// configured base URL when set, otherwise the listing page itself.
func resolveBase(listingURL, baseURL string) (*url.URL, error) {
	raw := baseURL
	if raw == "" {
		raw = listingURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	return base, nil
}
