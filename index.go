package fontconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Index is the authoritative store of font entries. It is safe for concurrent
// use: writes are serialized behind a single writer lock while queries share a
// read lock. Entries are never mutated after insertion.
type Index struct {
	mu      sync.RWMutex
	entries map[FontID]*FontEntry
	order   []FontID // insertion order, used for deterministic iteration
	byName  map[string][]FontID
	disk    map[diskKey]FontID

	chainMu  sync.RWMutex
	chains   map[chainKey]*ResolvedChain
	chainGen uint64 // bumped on every invalidation

	diag  Trace
	stats ScanStats
}

type diskKey struct {
	path  string
	index int
}

// ScanStats reports the progress counters of the scan that built the index.
type ScanStats struct {
	Discovered int // font files found by enumeration
	Parsed     int // font files processed without error, including those rejected by the family filter
	Skipped    int // font files skipped due to errors or timeouts
	Faces      int // font faces inserted (collections yield several per file)
}

// NewIndex returns an empty font index.
func NewIndex() *Index {
	return &Index{
		entries: map[FontID]*FontEntry{},
		byName:  map[string][]FontID{},
		disk:    map[diskKey]FontID{},
		chains:  map[chainKey]*ResolvedChain{},
	}
}

// Insert adds an entry to the index and returns its ID, minting one when the
// entry has none. Inserting a disk source that is already known returns the
// existing ID without creating a duplicate. The entry's coverage is normalized
// on insertion. Reusing the ID of a different entry is a programmer error and
// panics.
func (idx *Index) Insert(entry *FontEntry) FontID {
	idx.mu.Lock()

	isDisk := entry.Source.origin == OriginDisk
	var key diskKey
	if isDisk {
		key = diskKey{canonicalPath(entry.Source.Path), entry.Source.Index}
		if id, ok := idx.disk[key]; ok {
			idx.mu.Unlock()
			return id
		}
	}

	if entry.ID.IsZero() {
		entry.ID = NextFontID()
	} else if _, ok := idx.entries[entry.ID]; ok {
		idx.mu.Unlock()
		panic(fmt.Sprintf("fontconfig: font id %v already in use", entry.ID))
	}
	entry.Coverage = NewCoverage(entry.Coverage...)

	idx.entries[entry.ID] = entry
	idx.order = append(idx.order, entry.ID)
	if isDisk {
		idx.disk[key] = entry.ID
	}
	for _, name := range []string{entry.Names.Family, entry.Names.PreferredFamily, entry.Names.Full, entry.Names.PostScript} {
		if name != "" {
			key := strings.ToLower(name)
			idx.byName[key] = append(idx.byName[key], entry.ID)
		}
	}
	idx.mu.Unlock()

	idx.invalidateChains()
	return entry.ID
}

// Get returns the entry for the given ID.
func (idx *Index) Get(id FontID) (*FontEntry, bool) {
	idx.mu.RLock()
	entry, ok := idx.entries[id]
	idx.mu.RUnlock()
	return entry, ok
}

// Source returns where the font bytes of the given ID can be found.
func (idx *Index) Source(id FontID) (FontSource, bool) {
	entry, ok := idx.Get(id)
	if !ok {
		return FontSource{}, false
	}
	return entry.Source, true
}

// MetadataOf returns the name table metadata of the given ID.
func (idx *Index) MetadataOf(id FontID) (Metadata, bool) {
	entry, ok := idx.Get(id)
	if !ok {
		return Metadata{}, false
	}
	return entry.Metadata, true
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// List returns a light view of all entries in insertion order, for clients
// that filter by arbitrary predicates.
func (idx *Index) List() []FontInfo {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	infos := make([]FontInfo, 0, len(idx.order))
	for _, id := range idx.order {
		entry := idx.entries[id]
		infos = append(infos, FontInfo{
			ID:        id,
			Family:    entry.Family(),
			Subfamily: entry.Names.Subfamily,
			Style:     entry.Style,
			Origin:    entry.Source.origin,
			Path:      entry.Source.display(),
		})
	}
	return infos
}

// Diagnostics returns the index's diagnostic log. Scan failures are recorded
// here as warnings.
func (idx *Index) Diagnostics() *Trace {
	return &idx.diag
}

// Stats returns the progress counters of the scan that built the index.
func (idx *Index) Stats() ScanStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.stats
}

// MemoryFont is an in-memory font file to register with an index.
type MemoryFont struct {
	Label string
	Bytes []byte
}

// RegisterMemoryFonts parses the given in-memory fonts and inserts all of
// their faces, bypassing enumeration but using the same parsing contract as
// the scanner. Parse failures are recorded on trace as warnings and skipped.
// The font bytes are shared by reference, never copied.
func (idx *Index) RegisterMemoryFonts(parser Parser, trace *Trace, fonts ...MemoryFont) []FontID {
	if parser == nil {
		parser = SFNTParser{}
	}
	var ids []FontID
	for _, f := range fonts {
		n := parser.NumFonts(f.Bytes)
		for i := 0; i < n; i++ {
			parsed, err := parser.Parse(f.Bytes, i)
			if err != nil {
				trace.add(LevelWarning, f.Label, ParseFailure, "", err.Error())
				continue
			}
			entry := parsed.entry(MemorySource(f.Label, f.Bytes, i))
			ids = append(ids, idx.Insert(entry))
		}
	}
	return ids
}

// all returns the entries in insertion order. The caller must hold the read
// lock.
func (idx *Index) all() []*FontEntry {
	entries := make([]*FontEntry, 0, len(idx.order))
	for _, id := range idx.order {
		entries = append(entries, idx.entries[id])
	}
	return entries
}

// lookup returns the candidate entries for a pattern, using the name map when
// the pattern constrains the name or family. An empty name map hit falls back
// to the full entry list so that spelling variants still match and rejections
// still produce traces. The caller must hold the read lock.
func (idx *Index) lookup(p *Pattern) []*FontEntry {
	if p.Name == "" && p.Family == "" {
		return idx.all()
	}

	seen := map[FontID]bool{}
	var entries []*FontEntry
	for _, name := range []string{p.Name, p.Family} {
		if name == "" {
			continue
		}
		for _, id := range idx.byName[strings.ToLower(strings.TrimSpace(name))] {
			if !seen[id] {
				seen[id] = true
				entries = append(entries, idx.entries[id])
			}
		}
	}
	if entries == nil {
		return idx.all()
	}
	return entries
}

// invalidateChains clears the chain cache wholesale.
func (idx *Index) invalidateChains() {
	idx.chainMu.Lock()
	idx.chains = map[chainKey]*ResolvedChain{}
	idx.chainGen++
	idx.chainMu.Unlock()
}

// canonicalPath normalizes a file path for deduplication, resolving symlinks
// when possible.
func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Clean(path)
}
