package fontconfig

import (
	"fmt"
	"sort"
)

// Range is an inclusive range of Unicode codepoints.
type Range struct {
	Lo, Hi rune
}

// Contains returns true when r falls inside the range.
func (rng Range) Contains(r rune) bool {
	return rng.Lo <= r && r <= rng.Hi
}

// Overlaps returns true when the ranges share at least one codepoint.
func (rng Range) Overlaps(other Range) bool {
	return rng.Lo <= other.Hi && other.Lo <= rng.Hi
}

func (rng Range) String() string {
	if rng.Lo == rng.Hi {
		return fmt.Sprintf("U+%04X", rng.Lo)
	}
	return fmt.Sprintf("U+%04X-%04X", rng.Lo, rng.Hi)
}

// Coverage is the set of codepoints for which a font provides a glyph, stored
// as a sorted sequence of inclusive ranges. Ranges never overlap or touch;
// touching ranges are merged on construction.
type Coverage []Range

// NewCoverage normalizes ranges into well-formed coverage: sorted by start,
// overlapping and adjacent ranges merged, empty ranges dropped.
func NewCoverage(ranges ...Range) Coverage {
	rs := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Lo <= r.Hi {
			rs = append(rs, r)
		}
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Lo != rs[j].Lo {
			return rs[i].Lo < rs[j].Lo
		}
		return rs[i].Hi < rs[j].Hi
	})

	cov := make(Coverage, 0, len(rs))
	for _, r := range rs {
		if n := len(cov); n != 0 && r.Lo <= cov[n-1].Hi+1 {
			if cov[n-1].Hi < r.Hi {
				cov[n-1].Hi = r.Hi
			}
			continue
		}
		cov = append(cov, r)
	}
	return cov
}

// coverageFromRunes builds coverage from an unordered list of codepoints.
func coverageFromRunes(runes []rune) Coverage {
	if len(runes) == 0 {
		return nil
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	cov := Coverage{}
	for _, r := range runes {
		if n := len(cov); n != 0 && r <= cov[n-1].Hi+1 {
			if cov[n-1].Hi < r {
				cov[n-1].Hi = r
			}
			continue
		}
		cov = append(cov, Range{r, r})
	}
	return cov
}

// Has returns true when the codepoint is covered. It runs in O(log n).
func (cov Coverage) Has(r rune) bool {
	i := sort.Search(len(cov), func(i int) bool { return r <= cov[i].Hi })
	return i < len(cov) && cov[i].Lo <= r
}

// HasRange returns true when every codepoint of rng is covered. Since coverage
// is merged, a fully covered range always lies within a single entry.
func (cov Coverage) HasRange(rng Range) bool {
	i := sort.Search(len(cov), func(i int) bool { return rng.Lo <= cov[i].Hi })
	return i < len(cov) && cov[i].Lo <= rng.Lo && rng.Hi <= cov[i].Hi
}

// Len returns the total number of covered codepoints.
func (cov Coverage) Len() int64 {
	var n int64
	for _, r := range cov {
		n += int64(r.Hi) - int64(r.Lo) + 1
	}
	return n
}

// Union merges two coverages into a new one.
func (cov Coverage) Union(other Coverage) Coverage {
	if len(cov) == 0 {
		return other
	} else if len(other) == 0 {
		return cov
	}
	rs := make([]Range, 0, len(cov)+len(other))
	rs = append(rs, cov...)
	rs = append(rs, other...)
	return NewCoverage(rs...)
}

// wellFormed verifies the coverage invariant: sorted by start, no overlapping
// or touching ranges.
func (cov Coverage) wellFormed() bool {
	for i, r := range cov {
		if r.Hi < r.Lo {
			return false
		}
		if i != 0 && r.Lo <= cov[i-1].Hi+1 {
			return false
		}
	}
	return true
}
