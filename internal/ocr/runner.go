// Package ocr drives the Tesseract engine over the pipeline's image
// artifacts and writes one UTF-8 text file per image.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/MeKo-Tech/votershield/internal/language"
	"github.com/MeKo-Tech/votershield/internal/pipeline"
)

// Job is one OCR invocation: an input image, its output text path and the
// language set derived from the filename.
type Job struct {
	ImagePath string
	OutPath   string
	Lang      language.Set
}

// Runner executes OCR jobs with a bounded worker pool. TessdataDir, when
// set, points Tesseract at an explicit language-data directory for this
// run only.
type Runner struct {
	TessdataDir string
	Workers     int
}

var streetSuffixRe = regexp.MustCompile(`(?i)_street\.(png|jpg)$`)

// EnumerateJobs lists the document's OCR jobs in stage order: stacked
// voter crops, header strips, cover pages, then the summary page.
func EnumerateJobs(jpgDir, cropsDir, ocrDir string) ([]Job, error) {
	if err := os.MkdirAll(ocrDir, 0o750); err != nil {
		return nil, fmt.Errorf("create ocr dir: %w", err)
	}

	stacked, err := sortedGlob(cropsDir, "*_stacked_crops.jpg")
	if err != nil {
		return nil, err
	}
	streets, err := sortedGlob(cropsDir, "*_street.png", "*_street.jpg")
	if err != nil {
		return nil, err
	}
	covers, err := sortedGlob(jpgDir, "*_cover_*.jpg")
	if err != nil {
		return nil, err
	}
	summaries, err := sortedGlob(jpgDir, "*_summary.jpg")
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, p := range stacked {
		out := strings.TrimSuffix(filepath.Base(p), "_stacked_crops.jpg") + "_stacked_ocr.txt"
		jobs = append(jobs, Job{p, filepath.Join(ocrDir, out), language.FromFilename(p)})
	}
	for _, p := range streets {
		out := streetSuffixRe.ReplaceAllString(filepath.Base(p), "_street.txt")
		jobs = append(jobs, Job{p, filepath.Join(ocrDir, out), language.FromFilename(p)})
	}
	for _, p := range covers {
		out := strings.TrimSuffix(filepath.Base(p), ".jpg") + "_ocr.txt"
		jobs = append(jobs, Job{p, filepath.Join(ocrDir, out), language.FromFilename(p)})
	}
	for _, p := range summaries {
		out := strings.TrimSuffix(filepath.Base(p), ".jpg") + "_ocr.txt"
		jobs = append(jobs, Job{p, filepath.Join(ocrDir, out), language.FromFilename(p)})
	}
	return jobs, nil
}

func sortedGlob(dir string, patterns ...string) ([]string, error) {
	var out []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pat, err)
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}

// RequiredLangs returns the union of Tesseract language codes the jobs need.
func RequiredLangs(jobs []Job) []string {
	set := map[string]struct{}{}
	for _, j := range jobs {
		for _, l := range j.Lang.TessLangs() {
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

// EngineAvailable verifies that the Tesseract engine can be initialized.
// Failure here is a run-level precondition, not a per-document error.
func (r *Runner) EngineAvailable() error {
	client := r.newClient()
	defer func() { _ = client.Close() }()

	if v := client.Version(); v == "" {
		return pipeline.Preconditionf("tesseract is not installed or not usable; install it and the required language data")
	}
	return nil
}

// EnsureLanguages verifies that every required language pack is installed.
func (r *Runner) EnsureLanguages(required []string) error {
	installed, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return &pipeline.PreconditionError{Reason: "could not list tesseract languages", Err: err}
	}

	have := map[string]struct{}{}
	for _, l := range installed {
		have[l] = struct{}{}
	}
	var missing []string
	for _, l := range required {
		if _, ok := have[l]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return pipeline.Preconditionf(
			"tesseract language data missing: %s; install the missing traineddata files",
			strings.Join(missing, ", "))
	}
	return nil
}

// Run executes the jobs with at most r.Workers in flight. Output files are
// written independently, so completion order is unconstrained.
func (r *Runner) Run(ctx context.Context, jobs []Job, progress pipeline.ProgressCallback) error {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	slog.Info("running OCR", "jobs", len(jobs), "workers", workers)

	return pipeline.RunPool(ctx, jobs, pipeline.PoolConfig{
		MaxWorkers:       workers,
		ProgressCallback: progress,
	}, func(_ context.Context, job Job) error {
		return r.runOne(job)
	})
}

func (r *Runner) newClient() *gosseract.Client {
	client := gosseract.NewClient()
	if r.TessdataDir != "" {
		client.TessdataPrefix = r.TessdataDir
	}
	return client
}

func (r *Runner) runOne(job Job) error {
	client := r.newClient()
	defer func() { _ = client.Close() }()

	if err := client.SetLanguage(job.Lang.TessLangs()...); err != nil {
		return fmt.Errorf("set language for %s: %w", job.ImagePath, err)
	}
	// psm 6: treat the image as a single uniform block of text. gosseract
	// exposes page segmentation but not the OEM switch, so every job runs
	// the engine's default LSTM model rather than a per-job engine mode.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := client.SetImage(job.ImagePath); err != nil {
		return fmt.Errorf("set image %s: %w", job.ImagePath, err)
	}

	text, err := client.Text()
	if err != nil {
		return fmt.Errorf("ocr %s: %w", job.ImagePath, err)
	}

	return os.WriteFile(job.OutPath, []byte(CleanText(text)), 0o644)
}

// CleanText trims every line, drops empty lines and normalizes the result
// to NFC (Tamil OCR output can arrive decomposed).
func CleanText(text string) string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}
