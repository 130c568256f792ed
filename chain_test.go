package fontconfig

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestResolveChain(t *testing.T) {
	idx := NewIndex()
	arial := idx.Insert(testEntry("Arial", "Arial", "Regular", FontStyle{}, NewCoverage(latinRange)))
	noto := idx.Insert(testEntry("Noto Sans CJK", "Noto Sans CJK", "Regular", FontStyle{}, NewCoverage(latinRange, cjkRange)))

	chain := idx.ResolveChain([]string{"Arial", "Noto Sans CJK", "Missing Family"}, Regular, DontCare, DontCare, nil)
	test.T(t, len(chain.Groups), 3)
	test.T(t, chain.Groups[0].Name, "Arial")
	test.T(t, len(chain.Groups[0].Fonts), 1)
	test.T(t, chain.Groups[0].Fonts[0].ID, arial)
	test.T(t, chain.Groups[1].Fonts[0].ID, noto)

	// families without matches keep an empty group for diagnostics
	test.T(t, chain.Groups[2].Name, "Missing Family")
	test.T(t, len(chain.Groups[2].Fonts), 0)
}

func TestResolveChainNormalization(t *testing.T) {
	idx := NewIndex()
	idx.Insert(testEntry("Arial", "Arial", "Regular", FontStyle{}, NewCoverage(latinRange)))

	a := idx.ResolveChain([]string{"Arial"}, Regular, DontCare, DontCare, nil)
	b := idx.ResolveChain([]string{"  arial  "}, Regular, DontCare, DontCare, nil)
	c := idx.ResolveChain([]string{"ARIAL"}, Regular, DontCare, DontCare, nil)
	test.That(t, a == b, "equivalent stacks must share the cached chain")
	test.That(t, a == c)

	d := idx.ResolveChain([]string{"Arial"}, Bold, DontCare, DontCare, nil)
	test.That(t, a != d, "different styles must not share a chain")
}

func TestResolveChainCacheInvalidation(t *testing.T) {
	idx := NewIndex()
	idx.Insert(testEntry("Arial", "Arial", "Regular", FontStyle{}, NewCoverage(latinRange)))

	a := idx.ResolveChain([]string{"Arial"}, Regular, DontCare, DontCare, nil)
	test.That(t, a == idx.ResolveChain([]string{"Arial"}, Regular, DontCare, DontCare, nil))

	idx.Insert(testEntry("Arial Italic", "Arial", "Italic", FontStyle{Italic: true}, NewCoverage(latinRange)))
	b := idx.ResolveChain([]string{"Arial"}, Regular, DontCare, DontCare, nil)
	test.That(t, a != b, "registering fonts must invalidate the chain cache")
	test.T(t, len(b.Groups[0].Fonts), 2)
}

func TestResolveChainGenericExpansion(t *testing.T) {
	idx := NewIndex()
	dejavu := idx.Insert(testEntry("DejaVu Sans", "DejaVu Sans", "Regular", FontStyle{}, NewCoverage(latinRange)))

	chain := idx.ResolveChain([]string{"sans-serif"}, Regular, DontCare, DontCare, nil)
	test.T(t, len(chain.Groups), len(genericFamilies["sans-serif"]))
	for _, group := range chain.Groups {
		// expanded groups report the generic CSS name
		test.T(t, group.Name, "sans-serif")
	}

	found := false
	for _, group := range chain.Groups {
		for _, font := range group.Fonts {
			if font.ID == dejavu {
				found = true
			}
		}
	}
	test.That(t, found)
}

func TestResolveChainExpansionDedup(t *testing.T) {
	idx := NewIndex()
	idx.Insert(testEntry("Helvetica", "Helvetica", "Regular", FontStyle{}, NewCoverage(latinRange)))

	// Helvetica appears explicitly and as the head of the sans-serif alias;
	// the second occurrence is dropped
	chain := idx.ResolveChain([]string{"Helvetica", "sans-serif"}, Regular, DontCare, DontCare, nil)
	test.T(t, chain.Groups[0].Name, "Helvetica")
	for _, group := range chain.Groups[1:] {
		test.That(t, normalizeFamily(group.Name) == "sans-serif")
	}
	test.T(t, len(chain.Groups), 1+len(genericFamilies["sans-serif"])-1)
}

func TestExpandFamilies(t *testing.T) {
	expanded := expandFamilies([]string{" Fira  Sans ", "fira sans", "serif"})
	test.T(t, expanded[0], cssFamily{"fira sans", " Fira  Sans "})
	for i, alias := range genericFamilies["serif"] {
		test.T(t, expanded[1+i], cssFamily{normalizeFamily(alias), "serif"})
	}
	test.T(t, len(expanded), 1+len(genericFamilies["serif"]))
}

func TestNormalizeFamily(t *testing.T) {
	test.String(t, normalizeFamily("  Times   New  Roman "), "times new roman")
	test.String(t, normalizeFamily("ARIAL"), "arial")
	test.String(t, normalizeFamily(""), "")
}

func TestIsGenericFamily(t *testing.T) {
	for _, family := range []string{"serif", "Sans-Serif", "MONOSPACE", "cursive", "fantasy", "system-ui"} {
		test.That(t, IsGenericFamily(family), family)
	}
	test.That(t, !IsGenericFamily("Arial"))
}

func TestParseFamilyStack(t *testing.T) {
	test.T(t, ParseFamilyStack(`"Fira Sans", Helvetica Neue, sans-serif`),
		[]string{"Fira Sans", "Helvetica Neue", "sans-serif"})
	test.T(t, ParseFamilyStack(`monospace`), []string{"monospace"})
	test.T(t, ParseFamilyStack(`'Comic Sans MS', cursive`), []string{"Comic Sans MS", "cursive"})
	test.T(t, ParseFamilyStack(`/* ui */ system-ui`), []string{"system-ui"})
	test.T(t, len(ParseFamilyStack(``)), 0)
}
