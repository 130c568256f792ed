package fontconfig

import "fmt"

// testEntry builds a disk-backed entry for matcher and resolver tests.
func testEntry(full, family, subfamily string, style FontStyle, cov Coverage) *FontEntry {
	if style.Weight == 0 {
		style.Weight = Regular
	}
	if style.Stretch == 0 {
		style.Stretch = StretchNormal
	}
	return &FontEntry{
		Source: DiskSource(fmt.Sprintf("/fonts/%s.ttf", full), 0),
		Names: Names{
			Full:      full,
			Family:    family,
			Subfamily: subfamily,
		},
		Style:    style,
		Coverage: cov,
	}
}

var (
	latinRange = Range{0x0000, 0x007F}
	cjkRange   = Range{0x4E00, 0x9FFF}
)
