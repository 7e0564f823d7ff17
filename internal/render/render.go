// Package render rasterizes input PDFs into the three page classes the
// pipeline works with: cover pages, voter-grid pages and the summary page.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dslipak/pdf"
	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/votershield/internal/config"
	"github.com/MeKo-Tech/votershield/internal/language"
)

// Info describes the outcome of rendering one document.
type Info struct {
	PagesTotal       int          `json:"pages_total"`
	Language         language.Set `json:"-"`
	Lang             string       `json:"lang"`
	VoterStartPage   int          `json:"voter_start_page"`
	CoverPagesCount  int          `json:"cover_pages_count"`
	VoterPagesCount  int          `json:"voter_pages_count"`
	SummaryImagePath string       `json:"summary_image_path,omitempty"`
}

// PageCount determines the page count of a PDF. pdfcpu's metadata path is
// tried first; if it reports nothing usable the file is opened directly.
func PageCount(pdfPath string) (int, error) {
	n, err := api.PageCountFile(pdfPath)
	if err == nil && n > 0 {
		return n, nil
	}
	if err != nil {
		slog.Debug("pdfcpu page count failed, falling back", "pdf", pdfPath, "error", err)
	}

	r, ferr := pdf.Open(pdfPath)
	if ferr != nil {
		return 0, fmt.Errorf("page count for %s: %w", pdfPath, ferr)
	}
	if n = r.NumPage(); n <= 0 {
		return 0, fmt.Errorf("could not determine page count for %s", pdfPath)
	}
	return n, nil
}

// Document renders one PDF into JPEGs under jpgDir:
//
//	<stem>_cover_NN.jpg   cover pages (1-based over the cover block)
//	<stem>_page_NN.jpg    voter-grid pages (renumbered from 1)
//	<stem>_summary.jpg    last page, when the document has one
//
// Rendering is single-threaded per document; concurrency is bounded at the
// pipeline level.
func Document(ctx context.Context, pdfPath, jpgDir string, cfg config.RenderConfig) (*Info, error) {
	if err := os.MkdirAll(jpgDir, 0o750); err != nil {
		return nil, fmt.Errorf("create jpg dir: %w", err)
	}

	name := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	lang := language.FromFilename(name)
	voterStart := lang.VoterStartPage()

	pagesTotal, err := PageCount(pdfPath)
	if err != nil {
		return nil, err
	}

	slog.Info("rendering document", "pdf", name, "pages_total", pagesTotal, "lang", lang.String())

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer doc.Close()

	coverEnd := voterStart - 1
	if coverEnd > pagesTotal {
		coverEnd = pagesTotal
	}
	summaryPage := 0
	if pagesTotal >= voterStart {
		summaryPage = pagesTotal
	}
	voterPages := 0

	renderTo := func(pageNo int, out string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, rerr := doc.ImageDPI(pageNo-1, float64(cfg.DPI))
		if rerr != nil {
			return fmt.Errorf("render page %d of %s: %w", pageNo, name, rerr)
		}
		return imaging.Save(img, out, imaging.JPEGQuality(cfg.JPEGQuality))
	}

	for i := 1; i <= coverEnd; i++ {
		out := filepath.Join(jpgDir, fmt.Sprintf("%s_cover_%02d.jpg", stem, i))
		if err := renderTo(i, out); err != nil {
			return nil, err
		}
	}

	for pageNo := voterStart; pageNo < pagesTotal; pageNo++ {
		voterPages++
		out := filepath.Join(jpgDir, fmt.Sprintf("%s_page_%02d.jpg", stem, voterPages))
		if err := renderTo(pageNo, out); err != nil {
			return nil, err
		}
	}

	summaryPath := ""
	if summaryPage > 0 {
		summaryPath = filepath.Join(jpgDir, fmt.Sprintf("%s_summary.jpg", stem))
		if err := renderTo(summaryPage, summaryPath); err != nil {
			return nil, err
		}
	}

	return &Info{
		PagesTotal:       pagesTotal,
		Language:         lang,
		Lang:             lang.String(),
		VoterStartPage:   voterStart,
		CoverPagesCount:  coverEnd,
		VoterPagesCount:  voterPages,
		SummaryImagePath: summaryPath,
	}, nil
}
