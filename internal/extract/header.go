package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/votershield/internal/language"
)

// PageMetadata is the assembly/part/street triple read from a voter-grid
// page's header strip.
type PageMetadata struct {
	Assembly *string
	PartNo   *int
	Street   *string
}

var (
	assemblyRe = regexp.MustCompile(`(?i)Name\s*:\s*([A-Za-z0-9\- ]+?)\s+Part`)
	partNoRe   = regexp.MustCompile(`(?i)Part\s*No\.?\s*[:\-]?\s*(\d+)`)
	streetRe   = regexp.MustCompile(`(?i)Section\s+No\s+and\s+Name\s*[:\-]?\s*(.+)$`)

	tamilAssemblyRe = regexp.MustCompile(`பெயர்\s*[:\-]?\s*(.+?)\s+பாகம்`)
	tamilPartNoRe   = regexp.MustCompile(`பாகம்\s*எண்\s*[:\-]?\s*(\d+)`)
	tamilStreetRe   = regexp.MustCompile(`பிரிவு\s*எண்\s*மற்றும்\s*பெயர்\s*[:\-]?\s*(.+)$`)
)

// ParsePageMetadata reads the header strip OCR text. The first header line
// carries the assembly name and part number, the second the section/street.
func ParsePageMetadata(ocrText string, lang language.Set) PageMetadata {
	var md PageMetadata
	if ocrText == "" {
		return md
	}

	var lines []string
	for _, ln := range strings.Split(ocrText, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) < 2 {
		return md
	}
	line1, line2 := lines[0], lines[1]

	asmRe, partRe, stRe := assemblyRe, partNoRe, streetRe
	if lang == language.TamilEnglish {
		asmRe, partRe, stRe = tamilAssemblyRe, tamilPartNoRe, tamilStreetRe
	}

	if m := asmRe.FindStringSubmatch(line1); m != nil {
		v := strings.TrimSpace(m[1])
		md.Assembly = &v
	}
	if m := partRe.FindStringSubmatch(line1); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			md.PartNo = &n
		}
	}
	if m := stRe.FindStringSubmatch(line2); m != nil {
		v := strings.TrimSpace(m[1])
		md.Street = &v
	}
	return md
}
