package extract

import (
	"regexp"
	"strings"
)

// MinExpectedSplits is the threshold below which a page's marker split is
// treated as an integrity event. A well-formed page yields 30.
const MinExpectedSplits = 25

// The marker image OCRs as the literal token VOTER_END; tolerate the
// engine reading the underscore as a space or dropping it.
var markerLineRe = regexp.MustCompile(`(?i)VOTER[\s_]?END`)

// SplitVoters splits stacked-page OCR text into per-cell chunks on
// end-of-record marker lines. Each marker closes one chunk, so a chunk may
// be empty when a cell carried no readable text.
func SplitVoters(ocrText string) []string {
	var chunks []string
	var current []string

	for _, line := range strings.Split(ocrText, "\n") {
		if markerLineRe.MatchString(line) {
			chunks = append(chunks, strings.TrimSpace(strings.Join(current, "\n")))
			current = current[:0]
			continue
		}
		current = append(current, line)
	}

	// Text after the last marker belongs to no cell unless it is real.
	if tail := strings.TrimSpace(strings.Join(current, "\n")); tail != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}
