package languageutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep state between calls, so each caller gets a fresh one.
func lowerCaser() cases.Caser { return cases.Lower(language.English) }

// QuickPickRegions are offered as one-tap regional styles next to the free-text field.
var QuickPickRegions = []string{"Indian", "American", "Korean"}

// NormalizePlace collapses whitespace in a place name and keeps its casing as given.
func NormalizePlace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// MatchQuickPick returns the quick-pick region mentioned in style, if any.
func MatchQuickPick(style string) (string, bool) {
	lower := lowerCaser()
	lowered := lower.String(style)
	for _, region := range QuickPickRegions {
		if strings.Contains(lowered, lower.String(region)) {
			return region, true
		}
	}
	return "", false
}
