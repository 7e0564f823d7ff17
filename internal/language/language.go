// Package language maps source filenames to the OCR language set used by
// every downstream stage. The filename is the only language signal in the
// source rolls, so this is the single place that looks at it.
package language

import "strings"

// Set identifies which Tesseract language packs a document needs.
type Set int

const (
	// English is the default set for rolls with English-only text.
	English Set = iota
	// TamilEnglish covers bilingual Tamil/English rolls.
	TamilEnglish
)

const (
	englishMarker = "-ENG-"
	tamilMarker   = "-TAM-"

	// Voter-grid pages start after the cover block: two cover pages for
	// English rolls, three for Tamil rolls.
	englishVoterStartPage = 3
	tamilVoterStartPage   = 4
)

// FromFilename classifies a PDF or image filename into a language set.
// Unknown filenames default to English.
func FromFilename(name string) Set {
	upper := strings.ToUpper(name)
	if strings.Contains(upper, tamilMarker) {
		return TamilEnglish
	}
	if strings.Contains(upper, englishMarker) {
		return English
	}
	return English
}

// String returns the Tesseract language specifier for the set.
func (s Set) String() string {
	if s == TamilEnglish {
		return "tam+eng"
	}
	return "eng"
}

// TessLangs returns the individual Tesseract language codes the set needs.
func (s Set) TessLangs() []string {
	if s == TamilEnglish {
		return []string{"tam", "eng"}
	}
	return []string{"eng"}
}

// VoterStartPage returns the 1-based PDF page where voter-grid pages begin.
func (s Set) VoterStartPage() int {
	if s == TamilEnglish {
		return tamilVoterStartPage
	}
	return englishVoterStartPage
}

// CoverPageCount returns how many cover pages precede the voter grid.
func (s Set) CoverPageCount() int {
	return s.VoterStartPage() - 1
}
