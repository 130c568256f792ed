package fontconfig

import (
	"fmt"
	"sort"
	"strings"
)

// MaxFallbacks is the number of coverage-extending fallbacks returned with a
// match.
const MaxFallbacks = 32

// Match is the result of a font query: the best matching face plus fallbacks
// that extend its Unicode coverage.
type Match struct {
	ID       FontID
	Coverage Coverage
	// Fallbacks are the next-best candidates in match order. Each one covers
	// codepoints that none of the previous ones do.
	Fallbacks []Match
}

// score ranks a candidate against a pattern; lower is better. Fields compose
// lexicographically in declaration order, with the font ID as the final
// deterministic tie-breaker.
type score struct {
	weight  int // absolute weight distance
	stretch int // absolute stretch distance
	style   int // penalty for italic/oblique faces under an unconstrained axis
	name    int // penalty for matching via the preferred family
	origin  int // memory fonts sort before disk fonts
	id      FontID
}

func (s score) less(other score) bool {
	if s.weight != other.weight {
		return s.weight < other.weight
	}
	if s.stretch != other.stretch {
		return s.stretch < other.stretch
	}
	if s.style != other.style {
		return s.style < other.style
	}
	if s.name != other.name {
		return s.name < other.name
	}
	if s.origin != other.origin {
		return s.origin < other.origin
	}
	return s.id.Less(other.id)
}

// scoreEntry applies the hard filters and computes the soft score. A false
// return signals a hard rejection, recorded on trace with its reason.
func scoreEntry(p *Pattern, entry *FontEntry, trace *Trace) (score, bool) {
	path := entry.Source.display()

	if p.Name != "" {
		if !nameMatches(p.Name, entry.Names.Full, entry.Names.PostScript, entry.Names.Family) {
			trace.add(LevelInfo, path, NameMismatch, p.Name, entry.Names.Full)
			return score{}, false
		}
	}

	viaPreferred := false
	if p.Family != "" {
		want := normalizeFamily(p.Family)
		switch {
		case entry.Names.Family != "" && normalizeFamily(entry.Names.Family) == want:
		case entry.Names.PreferredFamily != "" && normalizeFamily(entry.Names.PreferredFamily) == want:
			viaPreferred = true
		default:
			trace.add(LevelInfo, path, FamilyMismatch, p.Family, entry.Family())
			return score{}, false
		}
	}

	axes := []struct {
		name    string
		want    Tristate
		have    bool
	}{
		{"italic", p.Italic, entry.Style.Italic},
		{"oblique", p.Oblique, entry.Style.Oblique},
		{"bold", p.Bold, entry.Style.Bold()},
		{"monospace", p.Monospace, entry.Style.Monospace},
		{"condensed", p.Condensed, entry.Style.Condensed},
	}
	for _, axis := range axes {
		if axis.want.Constrains() && !axis.want.Matches(axis.have) {
			trace.add(LevelInfo, path, StyleMismatch,
				fmt.Sprintf("%s=%v", axis.name, axis.want),
				fmt.Sprintf("%s=%t", axis.name, axis.have))
			return score{}, false
		}
	}

	for _, rng := range p.Ranges {
		if !entry.Coverage.HasRange(rng) {
			trace.add(LevelInfo, path, UnicodeRangeMismatch, rng.String(), "")
			return score{}, false
		}
	}

	if !p.Metadata.empty() && !p.Metadata.matches(entry.Metadata) {
		trace.add(LevelInfo, path, MetadataMismatch, "", "")
		return score{}, false
	}

	s := score{id: entry.ID}
	s.weight = abs(int(entry.Style.Weight) - int(p.weight()))
	s.stretch = abs(int(entry.Style.Stretch) - int(p.stretch()))
	if p.Italic == DontCare && entry.Style.Italic {
		s.style++
	}
	if p.Oblique == DontCare && entry.Style.Oblique {
		s.style++
	}
	if viaPreferred {
		s.name++
	}
	if entry.Source.origin == OriginMemory {
		s.origin--
	}
	return s, true
}

func nameMatches(want string, candidates ...string) bool {
	for _, c := range candidates {
		if c != "" && strings.EqualFold(want, c) {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type scoredEntry struct {
	entry *FontEntry
	score score
}

// match collects all entries passing the hard filters, ordered by ascending
// score.
func (idx *Index) match(p *Pattern, trace *Trace) []scoredEntry {
	idx.mu.RLock()
	entries := idx.lookup(p)
	idx.mu.RUnlock()

	var candidates []scoredEntry
	for _, entry := range entries {
		if s, ok := scoreEntry(p, entry, trace); ok {
			candidates = append(candidates, scoredEntry{entry, s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score.less(candidates[j].score)
	})
	return candidates
}

// Query returns the best matching font for the pattern together with up to
// MaxFallbacks fallbacks that extend its Unicode coverage, or nil when no font
// passes the hard filters. Rejections and the final match are recorded on
// trace; pass nil when uninterested.
func (idx *Index) Query(p *Pattern, trace *Trace) *Match {
	candidates := idx.match(p, trace)
	if len(candidates) == 0 {
		return nil
	}

	head := candidates[0]
	match := &Match{ID: head.entry.ID, Coverage: head.entry.Coverage}
	trace.add(LevelInfo, head.entry.Source.display(), Success, "", head.entry.Names.Full)

	union := head.entry.Coverage
	for _, c := range candidates[1:] {
		if len(match.Fallbacks) == MaxFallbacks {
			break
		}
		extended := union.Union(c.entry.Coverage)
		if extended.Len() == union.Len() {
			continue // adds no new codepoints
		}
		union = extended
		match.Fallbacks = append(match.Fallbacks, Match{ID: c.entry.ID, Coverage: c.entry.Coverage})
	}
	return match
}

// QueryAll returns all fonts passing the pattern's hard filters, ordered by
// ascending score.
func (idx *Index) QueryAll(p *Pattern, trace *Trace) []Match {
	candidates := idx.match(p, trace)
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{ID: c.entry.ID, Coverage: c.entry.Coverage})
	}
	return matches
}
