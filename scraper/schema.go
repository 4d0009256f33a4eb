// Package scraper extracts structured patch, roster, and champion-change
// records from upstream HTML. All extraction is driven by a selector Schema
// so that upstream markup changes require only configuration changes.
package scraper

// Schema maps the upstream site's HTML structures to the records the
// pipeline works with. The zero value is not useful; start from
// DefaultSchema and override per site.
type Schema struct {
	Listing ListingSchema `yaml:"listing" json:"listing"`
	Roster  RosterSchema  `yaml:"roster" json:"roster"`
	Changes ChangesSchema `yaml:"changes" json:"changes"`
}

// ListingSchema describes the patch-listing page: one anchor card per patch,
// carrying a title sub-node and a link attribute.
type ListingSchema struct {
	Card     string `yaml:"card" json:"card"`
	Title    string `yaml:"title" json:"title"`
	LinkAttr string `yaml:"link_attr,omitempty" json:"link_attr,omitempty"` // default "href"
}

// RosterSchema describes the champion roster page: one card per champion
// with a name sub-node.
type RosterSchema struct {
	Card string `yaml:"card" json:"card"`
	Name string `yaml:"name" json:"name"`
}

// ChangesSchema describes a patch detail page: a container node per champion,
// each holding a champion-name sub-node and nested change nodes with an
// ability title and a change body.
type ChangesSchema struct {
	Container string `yaml:"container" json:"container"`
	Champion  string `yaml:"champion" json:"champion"`
	Change    string `yaml:"change" json:"change"`
	Ability   string `yaml:"ability" json:"ability"`
	Body      string `yaml:"body" json:"body"`
}

// DefaultSchema returns the selectors matching the current upstream markup.
func DefaultSchema() Schema {
	return Schema{
		Listing: ListingSchema{
			Card:     `a[data-testid='articlefeaturedcard-component']`,
			Title:    `div[data-testid='card-title']`,
			LinkAttr: "href",
		},
		Roster: RosterSchema{
			Card: `a.sc-985df63-0.cGQgsO.sc-d043b2-0.bZMlAb`,
			Name: `div.sc-ce9b75fd-0.lmZfRs`,
		},
		Changes: ChangesSchema{
			Container: ".character-changes-container",
			Champion:  ".character-name",
			Change:    ".character-change",
			Ability:   ".character-ability-title",
			Body:      ".character-change-body",
		},
	}
}
