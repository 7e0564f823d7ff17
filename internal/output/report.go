package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MeKo-Tech/votershield/internal/ocr"
)

// FailedPage identifies a voter-grid page whose marker split came in under
// the expected minimum.
type FailedPage struct {
	PageNo       int    `json:"page_no"`
	SourceImage  string `json:"source_image"`
	MarkerSplits int    `json:"marker_splits"`
}

// Integrity summarizes the marker-split health of one document.
type Integrity struct {
	MarkerSplitsTotal       *int         `json:"marker_splits_total"`
	MarkerSplitsMinPage     *int         `json:"marker_splits_min_page"`
	MarkerSplitsFailedPages []FailedPage `json:"marker_splits_failed_pages"`
}

// Report is the per-document processing report.
type Report struct {
	RunID           string             `json:"run_id"`
	PipelineVersion *string            `json:"pipeline_version"`
	StartedAtUTC    string             `json:"started_at_utc"`
	FinishedAtUTC   string             `json:"finished_at_utc"`
	SourcePDFName   string             `json:"source_pdf_name"`
	SourcePDFPath   string             `json:"source_pdf_path"`
	DocID           string             `json:"doc_id"`
	Mode            string             `json:"mode,omitempty"`
	DPI             int                `json:"dpi,omitempty"`
	OCRWorkers      int                `json:"ocr_workers,omitempty"`
	PagesTotal      int                `json:"pages_total,omitempty"`
	ExtractedVoters int                `json:"extracted_voters"`
	Summary         *ocr.SummaryTotals `json:"summary,omitempty"`
	Integrity       *Integrity         `json:"integrity,omitempty"`
}

// WriteReport writes the report JSON atomically.
func WriteReport(report Report, path string) error {
	return writeAtomic(path, func(f *os.File) error {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		data = append(data, '\n')
		_, err = f.Write(data)
		return err
	})
}
