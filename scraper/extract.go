package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PatchRef is one patch as seen on the listing page: its display name and a
// link to its detail page.
type PatchRef struct {
	Name string `json:"patch_name"`
	Link string `json:"patch_link"`
}

// AbilityChange is one documented change to one ability.
type AbilityChange struct {
	AbilityTitle  string `json:"ability_title"`
	ChangeDetails string `json:"change_details"`
}

// ChampionChanges groups the changes a patch page documents for a single
// champion.
type ChampionChanges struct {
	Name    string          `json:"name"`
	Changes []AbilityChange `json:"changes"`
}

// PatchSnapshot is the inspectable on-disk form of one patch's extracted
// changes, as written by the standalone fetch path and read by the seed
// loader.
type PatchSnapshot struct {
	PatchName        string            `json:"patch_name"`
	CharacterChanges []ChampionChanges `json:"character_changes"`
}

// ExtractPatchList returns every patch card on a listing page, in the page's
// natural DOM order (newest-first upstream). Links are resolved against base
// when it is non-nil; cards without a link attribute are skipped.
func ExtractPatchList(doc *goquery.Document, schema ListingSchema, base *url.URL) []PatchRef {
	linkAttr := schema.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}

	var patches []PatchRef
	doc.Find(schema.Card).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Attr(linkAttr)
		if !ok || href == "" {
			return
		}

		link := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				link = base.ResolveReference(ref).String()
			}
		}

		patches = append(patches, PatchRef{
			Name: strings.TrimSpace(card.Find(schema.Title).First().Text()),
			Link: link,
		})
	})

	return patches
}

// ExtractRoster returns the champion display names on a roster page, in page
// order. Cards yielding an empty name are skipped, and repeated names are
// returned once.
func ExtractRoster(doc *goquery.Document, schema RosterSchema) []string {
	seen := make(map[string]struct{})
	var names []string
	doc.Find(schema.Card).Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(schema.Name).First().Text())
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	})
	return names
}

// ExtractChampionChanges reads every character-change container on a patch
// detail page. A container with no champion-name text is still emitted with
// an empty Name (callers decide whether to discard it), and a champion with
// no nested change nodes is emitted with an empty Changes slice. Absent or
// malformed markup degrades to an empty result; extraction never fails.
func ExtractChampionChanges(doc *goquery.Document, schema ChangesSchema) []ChampionChanges {
	var champions []ChampionChanges
	doc.Find(schema.Container).Each(func(_ int, container *goquery.Selection) {
		champion := ChampionChanges{
			Name: strings.TrimSpace(container.Find(schema.Champion).First().Text()),
		}

		container.Find(schema.Change).Each(func(_ int, change *goquery.Selection) {
			champion.Changes = append(champion.Changes, AbilityChange{
				AbilityTitle:  strings.TrimSpace(change.Find(schema.Ability).First().Text()),
				ChangeDetails: changeBody(change.Find(schema.Body).First()),
			})
		})

		champions = append(champions, champion)
	})
	return champions
}

// changeBody returns the change body as a trimmed HTML fragment. Bodies may
// contain lists and emphasis, so the markup is kept rather than flattened to
// text.
func changeBody(sel *goquery.Selection) string {
	fragment, err := sel.Html()
	if err != nil {
		return strings.TrimSpace(sel.Text())
	}
	return strings.TrimSpace(fragment)
}
