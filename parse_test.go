package fontconfig

import (
	"encoding/binary"
	"testing"

	"github.com/tdewolff/test"
)

func TestSFNTParserNumFonts(t *testing.T) {
	ttc := func(n uint32) []byte {
		b := []byte("ttcf")
		b = binary.BigEndian.AppendUint32(b, 0x00010000)
		return binary.BigEndian.AppendUint32(b, n)
	}

	parser := SFNTParser{}
	test.T(t, parser.NumFonts([]byte{0x00, 0x01, 0x00, 0x00}), 1)
	test.T(t, parser.NumFonts([]byte("OTTO")), 1)
	test.T(t, parser.NumFonts(ttc(3)), 3)
	test.T(t, parser.NumFonts(ttc(0)), 1)
	test.T(t, parser.NumFonts(ttc(100000)), 64)
	test.T(t, parser.NumFonts(nil), 1)
}

func TestParsedFontEntry(t *testing.T) {
	parsed := &ParsedFont{
		Names:    Names{Family: "Foo", Subfamily: "Bold"},
		Style:    FontStyle{Weight: Bold, Stretch: StretchNormal},
		Coverage: NewCoverage(latinRange),
	}

	entry := parsed.entry(DiskSource("/fonts/foo.ttf", 2))
	test.That(t, entry.ID.IsZero()) // minted by the index on insertion
	test.T(t, entry.Source.Origin(), OriginDisk)
	test.T(t, entry.Source.Index, 2)
	test.T(t, entry.Names.Family, "Foo")
	test.T(t, entry.Style.Weight, Bold)

	entry = parsed.entry(MemorySource("embedded", []byte{1}, 0))
	test.T(t, entry.Source.Origin(), OriginMemory)
}
