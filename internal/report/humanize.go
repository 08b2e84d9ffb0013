package report

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cliprate/internal/catalog"
)

var titleCaser = cases.Title(language.English)

// displayName prefers the catalog's lookup table. Ids without an entry are
// opaque transport identifiers; slug-shaped ones at least get readable
// casing.
func displayName(cat *catalog.Catalog, videoID string) string {
	if name := cat.DisplayName(videoID); name != videoID {
		return name
	}
	return humanizeSlug(videoID)
}

func humanizeSlug(id string) string {
	if !strings.Contains(id, "-") {
		return id
	}
	words := strings.ReplaceAll(strings.TrimPrefix(id, "clip-"), "-", " ")
	return titleCaser.String(words)
}
