package fontconfig

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CharResolution assigns one codepoint of a text to a font in a chain.
type CharResolution struct {
	Char      rune
	ID        FontID
	CSSSource string
	HasFont   bool
}

// Run is a maximal contiguous substring rendered by a single font in a single
// CSS group. Text is a copy, not a slice of the original; Start and End are
// byte offsets into the original UTF-8 encoding. Invalid bytes appear in Text
// as U+FFFD.
type Run struct {
	Text      string
	Start     int
	End       int
	FontID    FontID
	HasFont   bool
	CSSSource string
}

// ResolveChar returns the first font in the chain whose coverage contains the
// codepoint, walking groups and their fonts in order.
func (chain *ResolvedChain) ResolveChar(r rune) (FontID, string, bool) {
	for _, group := range chain.Groups {
		for _, font := range group.Fonts {
			if font.Coverage.Has(r) {
				return font.ID, group.Name, true
			}
		}
	}
	return FontID{}, "", false
}

// firstFont returns the head font of the first non-empty group.
func (chain *ResolvedChain) firstFont() (FontID, string, bool) {
	for _, group := range chain.Groups {
		if len(group.Fonts) != 0 {
			return group.Fonts[0].ID, group.Name, true
		}
	}
	return FontID{}, "", false
}

// carried returns true for codepoints that take the font of the codepoint
// before them: ASCII controls, DEL and Unicode format characters.
func carried(r rune) bool {
	return r < 0x20 || r == 0x7F || unicode.Is(unicode.Cf, r)
}

// ResolveText resolves each codepoint of text to a font in the chain. Text is
// iterated as Unicode scalar values; invalid UTF-8 sequences resolve as
// U+FFFD. Control and format characters take the same font as the previous
// codepoint, or the chain's first available font when they begin the text.
func (chain *ResolvedChain) ResolveText(text string) []CharResolution {
	if text == "" {
		return nil
	}
	resolutions := make([]CharResolution, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		res := CharResolution{Char: r}
		if carried(r) {
			if len(resolutions) != 0 {
				prev := resolutions[len(resolutions)-1]
				res.ID, res.CSSSource, res.HasFont = prev.ID, prev.CSSSource, prev.HasFont
			} else {
				res.ID, res.CSSSource, res.HasFont = chain.firstFont()
			}
		} else {
			res.ID, res.CSSSource, res.HasFont = chain.ResolveChar(r)
		}
		resolutions = append(resolutions, res)
	}
	return resolutions
}

// QueryForText splits text into runs of consecutive codepoints resolved to the
// same font and CSS group. Adjacent runs never share the same assignment, and
// concatenating the run texts reproduces the input with invalid bytes replaced
// by U+FFFD.
func (chain *ResolvedChain) QueryForText(text string) []Run {
	var runs []Run
	var sb strings.Builder

	flush := func(end int) {
		if sb.Len() == 0 {
			return
		}
		runs[len(runs)-1].Text = sb.String()
		runs[len(runs)-1].End = end
		sb.Reset()
	}

	offset := 0
	for _, res := range chain.ResolveText(text) {
		size := utf8.RuneLen(res.Char)
		if res.Char == utf8.RuneError {
			// invalid input decodes to RuneError with size 1
			if r, n := utf8.DecodeRuneInString(text[offset:]); r == utf8.RuneError && n == 1 {
				size = 1
			}
		}

		n := len(runs)
		if n == 0 || runs[n-1].FontID != res.ID || runs[n-1].HasFont != res.HasFont || runs[n-1].CSSSource != res.CSSSource {
			flush(offset)
			runs = append(runs, Run{
				Start:     offset,
				FontID:    res.ID,
				HasFont:   res.HasFont,
				CSSSource: res.CSSSource,
			})
		}
		sb.WriteRune(res.Char)
		offset += size
	}
	flush(offset)
	return runs
}

// QueryForText matches the pattern against the index, builds a fallback chain
// from the families of all matching fonts, and splits text into per-font runs.
// It is a convenience for callers without a CSS family stack.
func (idx *Index) QueryForText(p *Pattern, text string, trace *Trace) []Run {
	matches := idx.QueryAll(p, trace)

	seen := map[string]bool{}
	var families []string
	for _, m := range matches {
		if entry, ok := idx.Get(m.ID); ok {
			family := entry.Family()
			if key := normalizeFamily(family); family != "" && !seen[key] {
				seen[key] = true
				families = append(families, family)
			}
		}
	}
	if len(families) == 0 {
		return nil
	}
	chain := idx.ResolveChain(families, p.weight(), p.Italic, p.Oblique, trace)
	return chain.QueryForText(text)
}
