package fontconfig

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/tdewolff/font"
)

// ParsedFont is the result of parsing a single font face: the naming records,
// derived style axes, Unicode coverage and name table metadata. It carries no
// reference to the source bytes.
type ParsedFont struct {
	Names    Names
	Style    FontStyle
	Coverage Coverage
	Metadata Metadata
}

// entry turns a parsed face into an index entry for the given source.
func (p *ParsedFont) entry(src FontSource) *FontEntry {
	return &FontEntry{
		Source:   src,
		Names:    p.Names,
		Style:    p.Style,
		Coverage: p.Coverage,
		Metadata: p.Metadata,
	}
}

// Parser parses font files into ParsedFont records. Implementations must be
// safe for concurrent use on immutable input.
type Parser interface {
	// NumFonts returns the number of faces in the font file; collections
	// contain several.
	NumFonts(b []byte) int
	// Parse parses the face at the given 0-based index.
	Parse(b []byte, index int) (*ParsedFont, error)
}

// SFNTParser parses TTF, OTF, TTC and WOFF files.
type SFNTParser struct{}

// NumFonts returns the number of faces in the file by inspecting the TTC
// header; plain fonts contain one.
func (SFNTParser) NumFonts(b []byte) int {
	if 12 <= len(b) && string(b[:4]) == "ttcf" {
		n := int(binary.BigEndian.Uint32(b[8:]))
		if n < 1 {
			return 1
		} else if 64 < n {
			return 64 // cap against corrupt headers
		}
		return n
	}
	return 1
}

// Parse parses the face at the given index.
func (SFNTParser) Parse(b []byte, index int) (*ParsedFont, error) {
	sfnt, err := font.ParseFont(b, index)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	p := &ParsedFont{}
	if sfnt.Name != nil {
		p.Names = Names{
			Family:             nameString(sfnt, font.NameFontFamily),
			Subfamily:          nameString(sfnt, font.NameFontSubfamily),
			PreferredFamily:    nameString(sfnt, font.NamePreferredFamily),
			PreferredSubfamily: nameString(sfnt, font.NamePreferredSubfamily),
			Full:               nameString(sfnt, font.NameFull),
			PostScript:         nameString(sfnt, font.NamePostScript),
			Unique:             nameString(sfnt, font.NameUniqueIdentifier),
		}
		p.Metadata = Metadata{
			Copyright:    nameString(sfnt, font.NameCopyrightNotice),
			Version:      nameString(sfnt, font.NameVersion),
			Trademark:    nameString(sfnt, font.NameTrademark),
			Manufacturer: nameString(sfnt, font.NameManufacturer),
			Designer:     nameString(sfnt, font.NameDesigner),
			Description:  nameString(sfnt, font.NameDescription),
			VendorURL:    nameString(sfnt, font.NameVendorURL),
			DesignerURL:  nameString(sfnt, font.NameDesignerURL),
			License:      nameString(sfnt, font.NameLicense),
			LicenseURL:   nameString(sfnt, font.NameLicenseURL),
		}
	}
	if p.Names.Family == "" && p.Names.PreferredFamily == "" {
		return nil, fmt.Errorf("parse font: no family name")
	}

	p.Style = FontStyle{Weight: Regular, Stretch: StretchNormal}
	if sfnt.OS2 != nil {
		p.Style.Weight = WeightFromClass(sfnt.OS2.UsWeightClass)
		p.Style.Stretch = StretchFromClass(sfnt.OS2.UsWidthClass)
		p.Style.Italic = sfnt.OS2.FsSelection&0x0001 != 0
		p.Style.Oblique = sfnt.OS2.FsSelection&0x0200 != 0
		if sfnt.OS2.BFamilyType == 2 {
			p.Style.Monospace = sfnt.OS2.BProportion == 9 // panose: Latin text, monospaced
		}
	} else if weight, italic, ok := ParseSubfamilyStyle(p.Names.Subfamily); ok {
		p.Style.Weight = weight
		p.Style.Italic = italic
	}
	if sfnt.Post != nil && sfnt.Post.IsFixedPitch != 0 {
		p.Style.Monospace = true
	}
	p.Style.Condensed = p.Style.Stretch.Condensed()

	if sfnt.Cmap != nil {
		runes := make([]rune, 0, sfnt.NumGlyphs())
		for glyphID := uint16(1); glyphID < sfnt.NumGlyphs(); glyphID++ {
			if r := sfnt.Cmap.ToUnicode(glyphID); r != 0 {
				runes = append(runes, r)
			}
		}
		p.Coverage = coverageFromRunes(runes)
	}
	return p, nil
}

// nameString returns the first non-empty decoded record for the name ID,
// stripping the leading dot that marks hidden system fonts.
func nameString(sfnt *font.SFNT, id font.NameID) string {
	for _, record := range sfnt.Name.Get(id) {
		if s := record.String(); s != "" {
			return strings.TrimPrefix(s, ".")
		}
	}
	return ""
}
