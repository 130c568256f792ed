package fontconfig

import (
	"runtime"
	"strings"
)

// genericFamilies maps five of the six CSS generic families to ordered lists
// of concrete family names; system-ui is derived from the sans-serif list by
// systemUIFamilies. The table is immutable; user-defined alias rules are out of
// scope.
var genericFamilies = map[string][]string{
	"serif":      {"Times New Roman", "Times", "Liberation Serif", "DejaVu Serif", "Noto Serif"},
	"sans-serif": {"Helvetica", "Arial", "Liberation Sans", "DejaVu Sans", "Noto Sans"},
	"monospace":  {"Menlo", "Consolas", "Courier New", "Liberation Mono", "DejaVu Sans Mono"},
	"cursive":    {"Comic Sans MS", "Apple Chancery"},
	"fantasy":    {"Papyrus", "Impact"},
}

// IsGenericFamily returns true for the six CSS generic family names.
func IsGenericFamily(family string) bool {
	switch normalizeFamily(family) {
	case "serif", "sans-serif", "monospace", "cursive", "fantasy", "system-ui":
		return true
	}
	return false
}

// systemUIFamilies returns the expansion of system-ui: the platform's sans
// serif first, followed by the remaining sans-serif aliases.
func systemUIFamilies() []string {
	first := "DejaVu Sans"
	switch runtime.GOOS {
	case "darwin", "ios":
		first = "Helvetica"
	case "windows":
		first = "Arial"
	}
	families := []string{first}
	for _, f := range genericFamilies["sans-serif"] {
		if f != first {
			families = append(families, f)
		}
	}
	return families
}

// aliasFamilies returns the concrete families a generic family expands to, or
// nil when the family is not generic.
func aliasFamilies(family string) []string {
	if family == "system-ui" {
		return systemUIFamilies()
	}
	return genericFamilies[family]
}

// normalizeFamily lowercases a family name, trims surrounding whitespace and
// collapses internal runs of whitespace to single spaces.
func normalizeFamily(family string) string {
	return strings.Join(strings.Fields(strings.ToLower(family)), " ")
}

// cssFamily is one entry of an expanded family stack: the concrete family to
// match and the CSS declaration it originates from.
type cssFamily struct {
	family  string // normalized concrete family name
	cssName string // source family string from the stack
}

// expandFamilies normalizes a family stack and expands generic families in
// place, deduplicating concrete families by first occurrence across the whole
// stack. Generic expansions keep their generic name as the CSS source so that
// clients can report which declaration matched.
func expandFamilies(stack []string) []cssFamily {
	seen := map[string]bool{}
	var expanded []cssFamily
	add := func(family, cssName string) {
		family = normalizeFamily(family)
		if family == "" || seen[family] {
			return
		}
		seen[family] = true
		expanded = append(expanded, cssFamily{family, cssName})
	}

	for _, raw := range stack {
		family := normalizeFamily(raw)
		if family == "" {
			continue
		}
		if aliases := aliasFamilies(family); aliases != nil {
			for _, alias := range aliases {
				add(alias, raw)
			}
			continue
		}
		add(family, raw)
	}
	return expanded
}
