package discovery

import (
	"context"
	"slices"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/wrgg/patchfeed/fetch"
)

// DiscoverPatchesFromFeed reads patches from an RSS or Atom feed of the
// patch-notes tag instead of scraping the HTML listing. gofeed detects the
// format automatically. Feed items arrive newest-first by convention, so the
// result is reversed to oldest-first, matching DiscoverPatches.
func DiscoverPatchesFromFeed(ctx context.Context, feedURL string) ([]PatchRef, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, &fetch.Error{URL: feedURL, Err: err}
	}

	patches := make([]PatchRef, 0, len(feed.Items))
	for _, item := range feed.Items {
		name := strings.TrimSpace(item.Title)
		if name == "" || item.Link == "" {
			continue
		}
		patches = append(patches, PatchRef{Name: name, Link: item.Link})
	}

	slices.Reverse(patches)
	return patches, nil
}
