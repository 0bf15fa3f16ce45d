package domain

import "fmt"

// Section identifies one of the named regions of the single page.
type Section string

const (
	SectionHome      Section = "home"
	SectionCarpets   Section = "carpets"
	SectionVinyl     Section = "vinyl"
	SectionFurniture Section = "furniture"
	SectionAbout     Section = "about"
	SectionContact   Section = "contact"
)

// DefaultSection is active until navigation or scrolling says otherwise.
const DefaultSection = SectionHome

// Sections lists every section in page order.
func Sections() []Section {
	return []Section{SectionHome, SectionCarpets, SectionVinyl, SectionFurniture, SectionAbout, SectionContact}
}

// ParseSection converts a raw identifier into a Section.
func ParseSection(s string) (Section, error) {
	switch sec := Section(s); sec {
	case SectionHome, SectionCarpets, SectionVinyl, SectionFurniture, SectionAbout, SectionContact:
		return sec, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
}

// Label is the navigation text shown for the section.
func (s Section) Label() string {
	switch s {
	case SectionHome:
		return "Home"
	case SectionCarpets:
		return "Carpets"
	case SectionVinyl:
		return "Vinyl"
	case SectionFurniture:
		return "Furniture"
	case SectionAbout:
		return "About Us"
	case SectionContact:
		return "Contact Us"
	default:
		return string(s)
	}
}
