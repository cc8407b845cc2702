package nav

import (
    "strings"

    "github.com/sps-portfolio/portfolio-web/internal/content"
)

// Item is one entry of the in-page navigation.
type Item struct {
    Anchor string // element id, without "#"
    Label  string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
    Href  string
    Label string
}

// Fixed are the page parts that are not content sections.
var Fixed = []Item{
    {Anchor: "comments", Label: "Comments"},
    {Anchor: "locations", Label: "Locations"},
}

// Build lists the content sections in page order followed by the fixed parts.
// Entries with an empty anchor are skipped; a repeated anchor keeps its first
// position.
func Build(sections []content.Section) []RenderedItem {
    items := make([]Item, 0, len(sections)+len(Fixed))
    for _, s := range sections {
        items = append(items, Item{Anchor: s.Anchor, Label: s.Title})
    }
    items = append(items, Fixed...)

    seen := map[string]bool{}
    out := make([]RenderedItem, 0, len(items))
    for _, it := range items {
        anchor := strings.TrimPrefix(strings.TrimSpace(it.Anchor), "#")
        if anchor == "" || seen[anchor] {
            continue
        }
        seen[anchor] = true
        out = append(out, RenderedItem{Href: "#" + anchor, Label: it.Label})
    }
    return out
}
