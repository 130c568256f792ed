package fontconfig

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// CSSGroup holds the fonts matched for one entry of a CSS family stack. Name
// is the source family string from the stack; for generic families the
// expanded concrete families report the generic name, so that clients can see
// which CSS declaration matched. Groups that matched nothing keep an empty
// font list for diagnostics.
type CSSGroup struct {
	Name  string
	Fonts []Match
}

// ResolvedChain is a resolved font fallback chain for a CSS family stack and
// style. Chains are computed against an index snapshot and cached inside the
// index; registering new fonts invalidates the cache wholesale.
type ResolvedChain struct {
	Stack   []string
	Weight  Weight
	Italic  Tristate
	Oblique Tristate
	Groups  []CSSGroup
}

type chainKey struct {
	stack   string
	weight  Weight
	italic  Tristate
	oblique Tristate
}

// ResolveChain resolves an ordered CSS family stack plus style axes into a
// fallback chain. Generic families are expanded through the built-in alias
// table. The result is memoized: calling again with an equivalent stack and
// style returns the cached chain until new fonts are registered.
func (idx *Index) ResolveChain(families []string, weight Weight, italic, oblique Tristate, trace *Trace) *ResolvedChain {
	if weight == 0 {
		weight = Regular
	}

	normalized := make([]string, 0, len(families))
	for _, f := range families {
		if n := normalizeFamily(f); n != "" {
			normalized = append(normalized, n)
		}
	}
	key := chainKey{strings.Join(normalized, "\x1f"), weight, italic, oblique}

	idx.chainMu.RLock()
	chain, ok := idx.chains[key]
	gen := idx.chainGen
	idx.chainMu.RUnlock()
	if ok {
		return chain
	}

	chain = idx.resolveChain(families, weight, italic, oblique, trace)

	idx.chainMu.Lock()
	if cached, ok := idx.chains[key]; ok {
		chain = cached // lost the race, share the winner
	} else if gen == idx.chainGen {
		// don't install a chain computed before an invalidation
		idx.chains[key] = chain
	}
	idx.chainMu.Unlock()
	return chain
}

func (idx *Index) resolveChain(families []string, weight Weight, italic, oblique Tristate, trace *Trace) *ResolvedChain {
	chain := &ResolvedChain{
		Stack:   append([]string{}, families...),
		Weight:  weight,
		Italic:  italic,
		Oblique: oblique,
	}
	for _, f := range expandFamilies(families) {
		p := Pattern{
			Family:  f.family,
			Weight:  weight,
			Italic:  italic,
			Oblique: oblique,
		}
		chain.Groups = append(chain.Groups, CSSGroup{
			Name:  f.cssName,
			Fonts: idx.QueryAll(&p, trace),
		})
	}
	return chain
}

// ParseFamilyStack parses a raw CSS font-family declaration value into an
// ordered family stack. Quoted strings and multi-ident families are handled;
// comments are skipped.
//
//	ParseFamilyStack(`"Fira Sans", Helvetica Neue, sans-serif`)
func ParseFamilyStack(value string) []string {
	l := css.NewLexer(parse.NewInputString(value))

	var stack []string
	var words []string
	flush := func() {
		if len(words) != 0 {
			stack = append(stack, strings.Join(words, " "))
			words = words[:0]
		}
	}
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			flush()
			return stack
		case css.IdentToken:
			words = append(words, string(data))
		case css.StringToken:
			flush()
			if 2 <= len(data) {
				stack = append(stack, string(data[1:len(data)-1]))
			}
		case css.CommaToken, css.SemicolonToken:
			flush()
		}
	}
}
