package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/votershield/internal/language"
)

// The canonical EPIC shape is 3 letters + 7 digits; the bounds are loose
// to absorb engine variance.
var epicRe = regexp.MustCompile(`\b([A-Z]{2,4}[0-9]{6,8})\b`)

// English label lines as printed in the rolls. Each relationship label is
// anchored at line start so "Name" does not match inside "Father's Name".
var (
	engNameRe    = regexp.MustCompile(`(?im)^Name\s*[:\-]?\s*(.+)$`)
	engFatherRe  = regexp.MustCompile(`(?im)^Father'?s?\s+Name\s*[:\-]?\s*(.+)$`)
	engMotherRe  = regexp.MustCompile(`(?im)^Mother'?s?\s+Name\s*[:\-]?\s*(.+)$`)
	engHusbandRe = regexp.MustCompile(`(?im)^Husband'?s?\s+Name\s*[:\-]?\s*(.+)$`)
	engOtherRe   = regexp.MustCompile(`(?im)^Others?\s*[:\-]?\s*(.+)$`)
	engHouseRe   = regexp.MustCompile(`(?i)House\s+(?:Number|No)\.?\s*[:\-]?\s*([^\n]+)`)
	engAgeRe     = regexp.MustCompile(`(?i)\bAge\s*[:\-]?\s*(\d{1,3})`)
	engGenderRe  = regexp.MustCompile(`(?i)\bGender\s*[:\-]?\s*([A-Za-z][A-Za-z\- ]*)`)
)

// Tamil counterparts. Values stay verbatim in Tamil script.
var (
	tamNameRe    = regexp.MustCompile(`(?m)^பெயர்\s*[:\-]?\s*(.+)$`)
	tamFatherRe  = regexp.MustCompile(`(?m)^தந்தையின்\s*பெயர்\s*[:\-]?\s*(.+)$`)
	tamMotherRe  = regexp.MustCompile(`(?m)^தாயின்\s*பெயர்\s*[:\-]?\s*(.+)$`)
	tamHusbandRe = regexp.MustCompile(`(?m)^கணவர(?:ின்)?\s*பெயர்\s*[:\-]?\s*(.+)$`)
	tamOtherRe   = regexp.MustCompile(`(?m)^பிறர்\s*[:\-]?\s*(.+)$`)
	tamHouseRe   = regexp.MustCompile(`வீட்டு\s*எண்\s*[:\-]?\s*([^\n]+)`)
	tamAgeRe     = regexp.MustCompile(`வயது\s*[:\-]?\s*(\d{1,3})`)
	tamGenderRe  = regexp.MustCompile(`பாலினம்\s*[:\-]?\s*([^\n0-9]+)`)
)

// Tokens that terminate an inline value when labels share a line, e.g.
// "House Number : 12-A Age : 45 Gender : Male".
var engValueStopRe = regexp.MustCompile(`(?i)\s+(?:Age|Gender|House\s+(?:Number|No)|Photo)\b.*$`)
var tamValueStopRe = regexp.MustCompile(`\s+(?:வயது|பாலினம்|வீட்டு\s*எண்)\b.*$`)

// ParseCell extracts one voter record's fields from a cell's OCR chunk.
// Every field is optional; a miss leaves the pointer nil.
func (r *Record) ParseCell(chunk string, lang language.Set) {
	if strings.TrimSpace(chunk) == "" {
		return
	}

	if m := epicRe.FindStringSubmatch(chunk); m != nil {
		r.EpicID = strptr(m[1])
	}

	type fieldRe struct {
		dst  **string
		re   *regexp.Regexp
		stop *regexp.Regexp
	}
	var fields []fieldRe
	var ageRe, genderRe *regexp.Regexp

	if lang == language.TamilEnglish {
		fields = []fieldRe{
			{&r.Name, tamNameRe, tamValueStopRe},
			{&r.FatherName, tamFatherRe, tamValueStopRe},
			{&r.MotherName, tamMotherRe, tamValueStopRe},
			{&r.HusbandName, tamHusbandRe, tamValueStopRe},
			{&r.OtherName, tamOtherRe, tamValueStopRe},
			{&r.HouseNo, tamHouseRe, tamValueStopRe},
		}
		ageRe, genderRe = tamAgeRe, tamGenderRe
	} else {
		fields = []fieldRe{
			{&r.Name, engNameRe, engValueStopRe},
			{&r.FatherName, engFatherRe, engValueStopRe},
			{&r.MotherName, engMotherRe, engValueStopRe},
			{&r.HusbandName, engHusbandRe, engValueStopRe},
			{&r.OtherName, engOtherRe, engValueStopRe},
			{&r.HouseNo, engHouseRe, engValueStopRe},
		}
		ageRe, genderRe = engAgeRe, engGenderRe
	}

	for _, f := range fields {
		if *f.dst != nil {
			continue
		}
		if m := f.re.FindStringSubmatch(chunk); m != nil {
			v := strings.TrimSpace(f.stop.ReplaceAllString(m[1], ""))
			if v != "" {
				*f.dst = &v
			}
		}
	}

	if m := ageRe.FindStringSubmatch(chunk); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil && age >= 1 && age <= 120 {
			r.Age = &age
		}
	}

	if m := genderRe.FindStringSubmatch(chunk); m != nil {
		if g := normalizeGender(m[1]); g != "" {
			r.Gender = &g
		}
	}
}

func normalizeGender(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(v, "third") || strings.Contains(v, "மூன்றாம்"):
		return "third-gender"
	case strings.Contains(v, "female") || strings.Contains(v, "பெண்"):
		return "female"
	case strings.Contains(v, "male") || strings.Contains(v, "ஆண்"):
		return "male"
	}
	return ""
}

func strptr(s string) *string {
	return &s
}
