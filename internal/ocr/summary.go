package ocr

import (
	"regexp"
	"strconv"
)

// TamilTotal is the Tamil word for "Total" as printed on summary pages.
const TamilTotal = "மொத்தம்"

// SummaryTotals holds the best-effort counts read from a document's
// summary page. Any field may be nil when the OCR text does not carry it.
type SummaryTotals struct {
	TotalMale           *int `json:"total_male"`
	TotalFemale         *int `json:"total_female"`
	TotalThirdGender    *int `json:"total_third_gender"`
	TotalVotersExpected *int `json:"total_voters_expected"`
}

var (
	wsRe          = regexp.MustCompile(`[ \t]+`)
	maleRe        = regexp.MustCompile(`(?im)\bMale\b[^0-9]{0,20}(\d{1,7})`)
	femaleRe      = regexp.MustCompile(`(?im)\bFemale\b[^0-9]{0,20}(\d{1,7})`)
	thirdGenderRe = regexp.MustCompile(`(?im)\bThird\s*Gender\b[^0-9]{0,20}(\d{1,7})`)
	totalRe       = regexp.MustCompile(`(?im)\bTotal\b[^0-9]{0,30}(\d{1,7})`)
	tamilTotalRe  = regexp.MustCompile(`(?im)` + TamilTotal + `[^0-9]{0,30}(\d{1,7})`)
)

func firstInt(re *regexp.Regexp, text string) *int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// ParseSummaryTotals extracts male/female/third-gender/total counts from
// summary-page OCR text. Extraction is best effort: a miss yields nil, not
// an error.
func ParseSummaryTotals(text string) SummaryTotals {
	if text == "" {
		return SummaryTotals{}
	}
	text = wsRe.ReplaceAllString(text, " ")

	totals := SummaryTotals{
		TotalMale:           firstInt(maleRe, text),
		TotalFemale:         firstInt(femaleRe, text),
		TotalThirdGender:    firstInt(thirdGenderRe, text),
		TotalVotersExpected: firstInt(totalRe, text),
	}
	if totals.TotalVotersExpected == nil {
		totals.TotalVotersExpected = firstInt(tamilTotalRe, text)
	}
	return totals
}
