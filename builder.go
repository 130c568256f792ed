package fontconfig

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultFileTimeout is the soft cap on parsing a single font file. Files that
// take longer are skipped with a warning.
const DefaultFileTimeout = 5 * time.Second

// ScanOptions configures a font scan. The zero value scans the platform's
// font directories with the built-in parser and full parallelism.
type ScanOptions struct {
	// Dirs are the directories to scan; nil means SystemDirs().
	Dirs []string
	// Enumerator overrides directory walking entirely when set.
	Enumerator SourceEnumerator
	// Parser parses candidate files; nil means the built-in SFNT parser.
	Parser Parser
	// Workers bounds the number of parallel parsers; 0 means the number of
	// CPUs, 1 disables parallelism.
	Workers int
	// Deadline stops the scan early; files not parsed by then are skipped
	// with a warning. The zero value means no deadline.
	Deadline time.Time
	// FileTimeout is the soft cap on parsing one file; 0 means
	// DefaultFileTimeout.
	FileTimeout time.Duration
	// Families short-circuits parsing: fonts whose family name (peeked from
	// the name table) is not listed are rejected before their character map
	// is parsed.
	Families []string
}

// Scan builds a font index from the font files on the system. It never fails:
// unreadable or malformed files are recorded as warnings on the index's
// diagnostic log and skipped. In-memory fonts can be registered on the
// returned index at any point.
func Scan(opts ScanOptions) *Index {
	idx := NewIndex()
	trace := idx.Diagnostics()

	parser := opts.Parser
	if parser == nil {
		parser = SFNTParser{}
	}
	enumerator := opts.Enumerator
	if enumerator == nil {
		dirs := opts.Dirs
		if dirs == nil {
			dirs = SystemDirs()
		}
		enumerator = DirEnumerator{Dirs: dirs}
	}
	fileTimeout := opts.FileTimeout
	if fileTimeout == 0 {
		fileTimeout = DefaultFileTimeout
	}

	var filter map[string]bool
	if opts.Families != nil {
		filter = map[string]bool{}
		for _, family := range opts.Families {
			filter[normalizeFamily(family)] = true
		}
	}

	sources := enumerator.Enumerate(trace)
	stats := ScanStats{Discovered: len(sources)}
	if filter != nil {
		prioritizeSources(sources, filter)
	}

	var mu sync.Mutex
	var faces []parsedFace
	process := func(src ByteSource) {
		if !opts.Deadline.IsZero() && !time.Now().Before(opts.Deadline) {
			trace.add(LevelWarning, src.Path(), IOFailure, "", "scan deadline exceeded")
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			return
		}
		parsedFaces, ok := parseFile(parser, src, filter, fileTimeout, trace)
		mu.Lock()
		if ok {
			stats.Parsed++
		} else {
			stats.Skipped++
		}
		faces = append(faces, parsedFaces...)
		mu.Unlock()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(sources) < workers {
		workers = len(sources)
	}
	if workers <= 1 {
		for _, src := range sources {
			process(src)
		}
	} else {
		jobs := make(chan ByteSource)
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				for src := range jobs {
					process(src)
				}
			}()
		}
		for _, src := range sources {
			jobs <- src
		}
		close(jobs)
		wg.Wait()
	}

	// insertion order must not depend on parse completion order
	sort.SliceStable(faces, func(i, j int) bool {
		a, b := faces[i], faces[j]
		if fa, fb := a.parsed.Names.Family, b.parsed.Names.Family; fa != fb {
			return fa < fb
		}
		if sa, sb := a.parsed.Names.Subfamily, b.parsed.Names.Subfamily; sa != sb {
			return sa < sb
		}
		if a.path != b.path {
			return a.path < b.path
		}
		return a.index < b.index
	})
	for _, f := range faces {
		idx.Insert(f.parsed.entry(DiskSource(f.path, f.index)))
	}

	stats.Faces = idx.Len()
	idx.mu.Lock()
	idx.stats = stats
	idx.mu.Unlock()
	return idx
}

// ScanWithFamilies scans only fonts belonging to the given families. This is
// the fast path for clients that know what they want: other fonts are rejected
// after a name table peek, before their character map is parsed.
func ScanWithFamilies(opts ScanOptions, families ...string) *Index {
	opts.Families = families
	return Scan(opts)
}

type parsedFace struct {
	parsed *ParsedFont
	path   string
	index  int
}

// parseFile reads and parses all faces of one font file in a failure-isolated
// frame with a soft timeout. It produces at most one trace record per file and
// reports whether the file was processed.
func parseFile(parser Parser, src ByteSource, filter map[string]bool, timeout time.Duration, trace *Trace) ([]parsedFace, bool) {
	type result struct {
		faces []parsedFace
		ok    bool
	}
	// records are copied out only when the parse finishes in time, so a parse
	// that outlives its timeout cannot add a second record
	local := &Trace{}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				local.add(LevelWarning, src.Path(), ParseFailure, "", fmt.Sprintf("panic: %v", r))
				done <- result{nil, false}
			}
		}()
		faces, ok := parseFileFaces(parser, src, filter, local)
		done <- result{faces, ok}
	}()

	select {
	case r := <-done:
		for _, record := range local.Records() {
			trace.Add(record)
		}
		return r.faces, r.ok
	case <-time.After(timeout):
		trace.add(LevelWarning, src.Path(), IOFailure, "", "parse timed out")
		return nil, false
	}
}

func parseFileFaces(parser Parser, src ByteSource, filter map[string]bool, trace *Trace) ([]parsedFace, bool) {
	b, err := src.ReadAll()
	if err != nil {
		trace.add(LevelWarning, src.Path(), IOFailure, "", err.Error())
		return nil, false
	}

	if filter != nil {
		if families, ok := peekFamilies(b); ok && !familiesMatch(families, filter) {
			return nil, true // processed, intentionally no faces
		}
	}

	var faces []parsedFace
	n := parser.NumFonts(b)
	for i := 0; i < n; i++ {
		parsed, err := parser.Parse(b, i)
		if err != nil {
			if i == 0 {
				trace.add(LevelWarning, src.Path(), ParseFailure, "", err.Error())
				return nil, false
			}
			break
		}
		if filter != nil && !familiesMatch([]string{parsed.Names.Family, parsed.Names.PreferredFamily}, filter) {
			continue
		}
		faces = append(faces, parsedFace{parsed, src.Path(), i})
	}
	return faces, true
}

func familiesMatch(families []string, filter map[string]bool) bool {
	for _, family := range families {
		if family != "" && filter[normalizeFamily(family)] {
			return true
		}
	}
	return false
}

// prioritizeSources moves files whose filename hints at a wanted family to the
// front, so that a deadline-bounded scan parses them first.
func prioritizeSources(sources []ByteSource, filter map[string]bool) {
	guesses := map[string]bool{}
	for family := range filter {
		guesses[strings.Map(alnum, family)] = true
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return guesses[guessFamily(sources[i].Path())] && !guesses[guessFamily(sources[j].Path())]
	})
}

// guessFamily guesses a normalized family name from a font filename, e.g.
// "NotoSansJP-Regular.otf" becomes "notosansjp".
func guessFamily(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	// longer names first so that "ExtraLight" is not left as "Extra"
	for _, style := range []string{
		"ExtraLight", "ExtraBold", "SemiBold", "DemiBold", "UltraLight",
		"Regular", "Oblique", "Italic", "Medium", "Black", "Heavy", "Light",
		"Bold", "Thin",
	} {
		stem = strings.ReplaceAll(stem, style, "")
	}
	return strings.Map(alnum, strings.ToLower(stem))
}

func alnum(r rune) rune {
	if 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9' {
		if 'A' <= r && r <= 'Z' {
			return r - 'A' + 'a'
		}
		return r
	}
	return -1
}

// peekFamilies decodes only the name table of a font file and returns its
// family and preferred family records. A false return means the file could not
// be peeked and must be parsed fully; collections are never peeked.
func peekFamilies(b []byte) ([]string, bool) {
	if len(b) < 12 || string(b[:4]) == "ttcf" || string(b[:4]) == "wOFF" || string(b[:4]) == "wOF2" {
		return nil, false
	}
	numTables := int(binary.BigEndian.Uint16(b[4:]))
	if len(b) < 12+16*numTables {
		return nil, false
	}

	var offset, length int
	for i := 0; i < numTables; i++ {
		record := b[12+16*i:]
		if string(record[:4]) == "name" {
			offset = int(binary.BigEndian.Uint32(record[8:]))
			length = int(binary.BigEndian.Uint32(record[12:]))
			break
		}
	}
	if offset == 0 || len(b) < offset+length || length < 6 {
		return nil, false
	}

	name := b[offset : offset+length]
	count := int(binary.BigEndian.Uint16(name[2:]))
	storage := int(binary.BigEndian.Uint16(name[4:]))
	if len(name) < 6+12*count {
		return nil, false
	}

	decoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	var families []string
	for i := 0; i < count; i++ {
		record := name[6+12*i:]
		platform := binary.BigEndian.Uint16(record)
		nameID := binary.BigEndian.Uint16(record[6:])
		if nameID != 1 && nameID != 16 {
			continue
		}
		valueLength := int(binary.BigEndian.Uint16(record[8:]))
		valueOffset := int(binary.BigEndian.Uint16(record[10:]))
		if len(name) < storage+valueOffset+valueLength {
			continue
		}
		value := name[storage+valueOffset : storage+valueOffset+valueLength]
		if platform == 0 || platform == 3 {
			if decoded, _, err := transform.Bytes(decoder, value); err == nil {
				value = decoded
			}
		}
		if s := string(value); s != "" {
			families = append(families, s)
		}
	}
	return families, len(families) != 0
}
