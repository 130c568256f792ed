package fontconfig

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tdewolff/test"
)

// stubParser maps file contents to parsed faces; the content "bad" fails.
type stubParser map[string][]*ParsedFont

func (p stubParser) NumFonts(b []byte) int {
	if faces := p[string(b)]; faces != nil {
		return len(faces)
	}
	return 1
}

func (p stubParser) Parse(b []byte, index int) (*ParsedFont, error) {
	faces := p[string(b)]
	if faces == nil || len(faces) <= index {
		return nil, fmt.Errorf("unparseable font")
	}
	return faces[index], nil
}

func stubFace(family, subfamily string, cov Coverage) *ParsedFont {
	return &ParsedFont{
		Names:    Names{Family: family, Subfamily: subfamily, Full: family + " " + subfamily},
		Style:    FontStyle{Weight: Regular, Stretch: StretchNormal},
		Coverage: cov,
	}
}

type stubSource struct {
	path string
	data string
	err  error
}

func (s stubSource) Path() string {
	return s.path
}

func (s stubSource) ReadAll() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.data), nil
}

type stubEnumerator []ByteSource

func (e stubEnumerator) Enumerate(trace *Trace) []ByteSource {
	return e
}

func TestScan(t *testing.T) {
	parser := stubParser{
		"font-b": {stubFace("Bravo", "Regular", NewCoverage(latinRange))},
		"font-a": {stubFace("Alpha", "Regular", NewCoverage(latinRange))},
		"font-c": {stubFace("Charlie", "Regular", NewCoverage(cjkRange))},
	}
	enumerator := stubEnumerator{
		stubSource{path: "/fonts/b.ttf", data: "font-b"},
		stubSource{path: "/fonts/a.ttf", data: "font-a"},
		stubSource{path: "/fonts/c.ttf", data: "font-c"},
	}

	idx := Scan(ScanOptions{Enumerator: enumerator, Parser: parser})
	test.T(t, idx.Len(), 3)

	stats := idx.Stats()
	test.T(t, stats.Discovered, 3)
	test.T(t, stats.Parsed, 3)
	test.T(t, stats.Skipped, 0)
	test.T(t, stats.Faces, 3)

	// ids are assigned after sorting by family, not in parse completion order
	infos := idx.List()
	test.T(t, infos[0].Family, "Alpha")
	test.T(t, infos[1].Family, "Bravo")
	test.T(t, infos[2].Family, "Charlie")
	test.That(t, infos[0].ID.Less(infos[1].ID))
	test.That(t, infos[1].ID.Less(infos[2].ID))
}

func TestScanCollection(t *testing.T) {
	parser := stubParser{
		"collection": {
			stubFace("Alpha", "Regular", NewCoverage(latinRange)),
			stubFace("Alpha", "Bold", NewCoverage(latinRange)),
		},
	}
	enumerator := stubEnumerator{stubSource{path: "/fonts/alpha.ttc", data: "collection"}}

	idx := Scan(ScanOptions{Enumerator: enumerator, Parser: parser})
	test.T(t, idx.Len(), 2)

	infos := idx.List()
	test.T(t, infos[0].Subfamily, "Bold") // sorted by subfamily within the family
	test.T(t, infos[1].Subfamily, "Regular")
}

func TestScanDedup(t *testing.T) {
	parser := stubParser{"font-a": {stubFace("Alpha", "Regular", NewCoverage(latinRange))}}
	enumerator := stubEnumerator{
		stubSource{path: "/fonts/a.ttf", data: "font-a"},
		stubSource{path: "/fonts/a.ttf", data: "font-a"},
	}

	idx := Scan(ScanOptions{Enumerator: enumerator, Parser: parser})
	test.T(t, idx.Len(), 1)
}

func TestScanFailureIsolation(t *testing.T) {
	parser := stubParser{"font-a": {stubFace("Alpha", "Regular", NewCoverage(latinRange))}}
	enumerator := stubEnumerator{
		stubSource{path: "/fonts/bad.ttf", data: "bad"},
		stubSource{path: "/fonts/a.ttf", data: "font-a"},
		stubSource{path: "/fonts/gone.ttf", err: errors.New("permission denied")},
	}

	idx := Scan(ScanOptions{Enumerator: enumerator, Parser: parser})
	test.T(t, idx.Len(), 1)

	stats := idx.Stats()
	test.T(t, stats.Parsed, 1)
	test.T(t, stats.Skipped, 2)

	var parseFailures, ioFailures int
	for _, record := range idx.Diagnostics().Records() {
		test.T(t, record.Level, LevelWarning)
		switch record.Reason {
		case ParseFailure:
			parseFailures++
		case IOFailure:
			ioFailures++
		}
	}
	test.T(t, parseFailures, 1)
	test.T(t, ioFailures, 1)
}

func TestScanDeadline(t *testing.T) {
	parser := stubParser{"font-a": {stubFace("Alpha", "Regular", NewCoverage(latinRange))}}
	enumerator := stubEnumerator{
		stubSource{path: "/fonts/a.ttf", data: "font-a"},
		stubSource{path: "/fonts/b.ttf", data: "font-a"},
	}

	idx := Scan(ScanOptions{
		Enumerator: enumerator,
		Parser:     parser,
		Deadline:   time.Now().Add(-time.Second),
	})
	test.T(t, idx.Len(), 0)
	test.T(t, idx.Stats().Skipped, 2)
	test.That(t, 0 < idx.Diagnostics().Len())
}

func TestScanSingleWorker(t *testing.T) {
	parser := stubParser{"font-a": {stubFace("Alpha", "Regular", NewCoverage(latinRange))}}
	enumerator := stubEnumerator{stubSource{path: "/fonts/a.ttf", data: "font-a"}}

	idx := Scan(ScanOptions{Enumerator: enumerator, Parser: parser, Workers: 1})
	test.T(t, idx.Len(), 1)
}

func TestScanWithFamilies(t *testing.T) {
	parser := stubParser{
		"font-a": {stubFace("Alpha", "Regular", NewCoverage(latinRange))},
		"font-b": {stubFace("Bravo", "Regular", NewCoverage(latinRange))},
	}
	enumerator := stubEnumerator{
		stubSource{path: "/fonts/a.ttf", data: "font-a"},
		stubSource{path: "/fonts/b.ttf", data: "font-b"},
	}

	idx := ScanWithFamilies(ScanOptions{Enumerator: enumerator, Parser: parser}, "alpha")
	test.T(t, idx.Len(), 1)
	test.T(t, idx.List()[0].Family, "Alpha")
}

func TestRegisterMemoryFonts(t *testing.T) {
	parser := stubParser{"font-x": {stubFace("X", "Regular", NewCoverage(latinRange))}}

	idx := NewIndex()
	chain := idx.ResolveChain([]string{"X"}, Regular, DontCare, DontCare, nil)
	test.T(t, len(chain.Groups[0].Fonts), 0)

	ids := idx.RegisterMemoryFonts(parser, nil, MemoryFont{Label: "embedded-x", Bytes: []byte("font-x")})
	test.T(t, len(ids), 1)

	entry, ok := idx.Get(ids[0])
	test.That(t, ok)
	test.T(t, entry.Source.Origin(), OriginMemory)
	test.String(t, entry.Source.Label, "embedded-x")

	// registration invalidates the chain cache
	chain = idx.ResolveChain([]string{"X"}, Regular, DontCare, DontCare, nil)
	test.T(t, len(chain.Groups[0].Fonts), 1)
	test.T(t, chain.Groups[0].Fonts[0].ID, ids[0])
}

func TestGuessFamily(t *testing.T) {
	test.String(t, guessFamily("/fonts/NotoSansJP-Regular.otf"), "notosansjp")
	test.String(t, guessFamily("ArialBold.ttf"), "arial")
	test.String(t, guessFamily("Helvetica Neue Bold Italic.ttf"), "helveticaneue")
}

// buildNameTable crafts a minimal font file containing only a name table with
// a single Windows-platform family record.
func buildNameTable(family string) []byte {
	value := make([]byte, 0, 2*len(family))
	for _, r := range family {
		value = binary.BigEndian.AppendUint16(value, uint16(r))
	}

	name := make([]byte, 0, 18+len(value))
	name = binary.BigEndian.AppendUint16(name, 0)  // version
	name = binary.BigEndian.AppendUint16(name, 1)  // count
	name = binary.BigEndian.AppendUint16(name, 18) // storage offset
	name = binary.BigEndian.AppendUint16(name, 3)  // platform: Windows
	name = binary.BigEndian.AppendUint16(name, 1)  // encoding
	name = binary.BigEndian.AppendUint16(name, 0x0409)
	name = binary.BigEndian.AppendUint16(name, 1) // name id: family
	name = binary.BigEndian.AppendUint16(name, uint16(len(value)))
	name = binary.BigEndian.AppendUint16(name, 0)
	name = append(name, value...)

	b := make([]byte, 0, 28+len(name))
	b = binary.BigEndian.AppendUint32(b, 0x00010000) // sfnt version
	b = binary.BigEndian.AppendUint16(b, 1)          // numTables
	b = append(b, make([]byte, 6)...)                // searchRange, entrySelector, rangeShift
	b = append(b, []byte("name")...)
	b = binary.BigEndian.AppendUint32(b, 0)  // checksum
	b = binary.BigEndian.AppendUint32(b, 28) // offset
	b = binary.BigEndian.AppendUint32(b, uint32(len(name)))
	return append(b, name...)
}

func TestPeekFamilies(t *testing.T) {
	families, ok := peekFamilies(buildNameTable("Foo Sans"))
	test.That(t, ok)
	test.T(t, families, []string{"Foo Sans"})

	_, ok = peekFamilies([]byte("ttcfxxxxxxxxxxxx"))
	test.That(t, !ok) // collections are parsed fully

	_, ok = peekFamilies([]byte("xx"))
	test.That(t, !ok)
}

func TestScanFamilyPeekShortCircuit(t *testing.T) {
	keep := buildNameTable("Keep")
	drop := buildNameTable("Drop")
	parser := stubParser{
		string(keep): {stubFace("Keep", "Regular", NewCoverage(latinRange))},
		string(drop): {stubFace("Drop", "Regular", NewCoverage(latinRange))},
	}
	enumerator := stubEnumerator{
		stubSource{path: "/fonts/keep.ttf", data: string(keep)},
		stubSource{path: "/fonts/drop.ttf", data: string(drop)},
	}

	idx := ScanWithFamilies(ScanOptions{Enumerator: enumerator, Parser: parser}, "Keep")
	test.T(t, idx.Len(), 1)
	test.T(t, idx.List()[0].Family, "Keep")
	test.T(t, idx.Stats().Parsed, 2) // both files processed, one rejected by peek
}
