package fontconfig

import "strings"

// Tristate expresses whether a style axis is required to hold, required not to
// hold, or left unconstrained by a pattern.
type Tristate int

// see Tristate
const (
	DontCare Tristate = iota
	True
	False
)

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "dontcare"
}

// Constrains returns true when the axis takes part in matching.
func (t Tristate) Constrains() bool {
	return t == True || t == False
}

// Matches reports whether a font's boolean axis satisfies the constraint.
func (t Tristate) Matches(b bool) bool {
	switch t {
	case True:
		return b
	case False:
		return !b
	}
	return true
}

// Weight is the CSS font weight.
type Weight int

// see Weight
const (
	Thin       Weight = 100
	ExtraLight Weight = 200
	Light      Weight = 300
	Regular    Weight = 400
	Medium     Weight = 500
	SemiBold   Weight = 600
	Bold       Weight = 700
	ExtraBold  Weight = 800
	Black      Weight = 900
)

func (w Weight) String() string {
	switch w {
	case Thin:
		return "Thin"
	case ExtraLight:
		return "ExtraLight"
	case Light:
		return "Light"
	case Regular:
		return "Regular"
	case Medium:
		return "Medium"
	case SemiBold:
		return "SemiBold"
	case Bold:
		return "Bold"
	case ExtraBold:
		return "ExtraBold"
	case Black:
		return "Black"
	}
	return "Regular"
}

// WeightFromClass converts the OS/2 usWeightClass to the nearest named weight.
func WeightFromClass(class uint16) Weight {
	switch {
	case class < 150:
		return Thin
	case class < 250:
		return ExtraLight
	case class < 350:
		return Light
	case class < 450:
		return Regular
	case class < 550:
		return Medium
	case class < 650:
		return SemiBold
	case class < 750:
		return Bold
	case class < 850:
		return ExtraBold
	}
	return Black
}

// BestMatch selects the weight to use from the available weights following the
// CSS font matching rules: exact match first, then Regular and Medium swap
// between each other before trying lighter weights, light weights prefer
// lighter alternatives, and heavy weights prefer heavier alternatives.
func (w Weight) BestMatch(available []Weight) (Weight, bool) {
	if len(available) == 0 {
		return 0, false
	}
	for _, a := range available {
		if a == w {
			return w, true
		}
	}

	contains := func(v Weight) bool {
		for _, a := range available {
			if a == v {
				return true
			}
		}
		return false
	}
	if w == Regular && contains(Medium) {
		return Medium, true
	}
	if w == Medium && contains(Regular) {
		return Regular, true
	}

	// Light weights search down first, heavy weights search up first. Regular
	// and Medium behave like light weights once their counterpart is gone.
	closest := func(below bool) (Weight, bool) {
		best, ok := Weight(0), false
		for _, a := range available {
			if below && a < w || !below && a > w {
				d := int(w) - int(a)
				if d < 0 {
					d = -d
				}
				bd := int(w) - int(best)
				if bd < 0 {
					bd = -bd
				}
				if !ok || d < bd {
					best, ok = a, true
				}
			}
		}
		return best, ok
	}
	downFirst := w <= Medium
	if v, ok := closest(downFirst); ok {
		return v, true
	}
	if v, ok := closest(!downFirst); ok {
		return v, true
	}
	return available[0], true
}

// Stretch is the CSS font stretch on the 1..9 scale with Normal at 5.
type Stretch int

// see Stretch
const (
	UltraCondensed Stretch = 1 + iota
	ExtraCondensed
	Condensed
	SemiCondensed
	StretchNormal
	SemiExpanded
	Expanded
	ExtraExpanded
	UltraExpanded
)

func (s Stretch) String() string {
	switch s {
	case UltraCondensed:
		return "UltraCondensed"
	case ExtraCondensed:
		return "ExtraCondensed"
	case Condensed:
		return "Condensed"
	case SemiCondensed:
		return "SemiCondensed"
	case StretchNormal:
		return "Normal"
	case SemiExpanded:
		return "SemiExpanded"
	case Expanded:
		return "Expanded"
	case ExtraExpanded:
		return "ExtraExpanded"
	case UltraExpanded:
		return "UltraExpanded"
	}
	return "Normal"
}

// Condensed returns true for stretches narrower than Normal.
func (s Stretch) Condensed() bool {
	return UltraCondensed <= s && s <= SemiCondensed
}

// StretchFromClass converts the OS/2 usWidthClass to a stretch value.
func StretchFromClass(class uint16) Stretch {
	if 1 <= class && class <= 9 {
		return Stretch(class)
	}
	return StretchNormal
}

// BestMatch selects the stretch to use from the available stretches following
// the CSS rules: normal and condensed values check narrower widths first, then
// wider; expanded values check wider first.
func (s Stretch) BestMatch(available []Stretch) (Stretch, bool) {
	if len(available) == 0 {
		return 0, false
	}
	for _, a := range available {
		if a == s {
			return s, true
		}
	}

	closest := func(narrower bool) (Stretch, bool) {
		best, ok := Stretch(0), false
		for _, a := range available {
			if narrower && a < s || !narrower && a > s {
				if !ok || narrower && a > best || !narrower && a < best {
					best, ok = a, true
				}
			}
		}
		return best, ok
	}
	narrowFirst := s <= StretchNormal
	if v, ok := closest(narrowFirst); ok {
		return v, true
	}
	return closest(!narrowFirst)
}

// ParseSubfamilyStyle extracts the weight and italic flag from a subfamily name
// such as "Bold Italic" or "ExtraLight". Unknown subfamilies report ok=false
// and return the Regular weight; the italic flag still reflects an Italic or
// Oblique suffix.
func ParseSubfamilyStyle(subfamily string) (weight Weight, italic bool, ok bool) {
	s := strings.TrimSpace(subfamily)
	if strings.HasSuffix(s, "Italic") {
		s = strings.TrimSuffix(s, "Italic")
		italic = true
	} else if strings.HasSuffix(s, "Oblique") {
		s = strings.TrimSuffix(s, "Oblique")
		italic = true
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "-"))

	switch s {
	case "", "Regular", "Normal", "Roman":
		return Regular, italic, true
	case "Thin", "Hairline":
		return Thin, italic, true
	case "ExtraLight", "UltraLight":
		return ExtraLight, italic, true
	case "Light", "Book":
		return Light, italic, true
	case "Medium":
		return Medium, italic, true
	case "SemiBold", "DemiBold":
		return SemiBold, italic, true
	case "Bold":
		return Bold, italic, true
	case "ExtraBold", "UltraBold":
		return ExtraBold, italic, true
	case "Black", "Heavy":
		return Black, italic, true
	}
	return Regular, italic, false
}
