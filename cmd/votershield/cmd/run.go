package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/votershield/internal/batch"
	"github.com/MeKo-Tech/votershield/internal/config"
	"github.com/MeKo-Tech/votershield/internal/pipeline"
)

// Exit codes: 1 for strict-mode incompleteness or hard errors, 2 for
// precondition failures (missing OCR engine or language data, unusable
// object-store access, missing fixtures).
const (
	exitStrict       = 1
	exitPrecondition = 2
)

// runCmd represents the run command executing the full pipeline.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every PDF in the input directory through the pipeline",
	Long: `Run the extraction pipeline over all PDFs in the input directory:
rasterize, crop the voter grids, OCR, parse records and write per-document
and combined outputs. Progress is tracked per document in a resumable run
ledger.

Examples:
  votershield run --delete-old
  votershield run --strict --output-format csv
  votershield run --s3-input s3://rolls/2026/ --s3-output s3://rolls/out/
  votershield run --resume --run-id 20260824_101500_1a2b3c4d`,
	SilenceUsage: true,
	RunE:         runPipelineCommand,
}

// applyRunFlags overlays CLI flags onto the centralized configuration; a
// flag wins over the config file only when it was set explicitly.
func applyRunFlags(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("dpi") {
		cfg.Render.DPI, _ = cmd.Flags().GetInt("dpi")
	}
	if cmd.Flags().Changed("pdf-workers") {
		cfg.Workers.PDF, _ = cmd.Flags().GetInt("pdf-workers")
	}
	if cmd.Flags().Changed("crop-workers") {
		cfg.Workers.Crop, _ = cmd.Flags().GetInt("crop-workers")
	}
	if cmd.Flags().Changed("ocr-workers") {
		cfg.Workers.OCR, _ = cmd.Flags().GetInt("ocr-workers")
	}
	if cmd.Flags().Changed("tessdata-dir") {
		cfg.OCR.TessdataDir, _ = cmd.Flags().GetString("tessdata-dir")
	}
	if cmd.Flags().Changed("state-dir") {
		cfg.Dirs.State, _ = cmd.Flags().GetString("state-dir")
	}
	if cmd.Flags().Changed("output-format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("output-format")
	}
	if cmd.Flags().Changed("no-combined") {
		cfg.Output.NoCombined, _ = cmd.Flags().GetBool("no-combined")
	}
	if cmd.Flags().Changed("s3-input") {
		raw, _ := cmd.Flags().GetString("s3-input")
		var uris []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				uris = append(uris, p)
			}
		}
		cfg.Store.InputURIs = uris
	}
	if cmd.Flags().Changed("s3-output") {
		cfg.Store.OutputURI, _ = cmd.Flags().GetString("s3-output")
	}
}

func runPipelineCommand(cmd *cobra.Command, args []string) error {
	cfg := *GetConfig()
	applyRunFlags(&cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	resume, _ := cmd.Flags().GetBool("resume")
	runID, _ := cmd.Flags().GetString("run-id")
	if resume && runID == "" {
		return errors.New("--resume requires --run-id")
	}
	if runID == "" {
		runID = batch.NewRunID()
	}

	if cfg.Workers.PDF != 1 {
		slog.Warn("--pdf-workers > 1 is not implemented yet; running sequentially")
	}

	strict, _ := cmd.Flags().GetBool("strict")
	regression, _ := cmd.Flags().GetBool("regression")
	deleteOld, _ := cmd.Flags().GetBool("delete-old")
	showProgress, _ := cmd.Flags().GetBool("progress")

	opts := batch.Options{
		RunID:        runID,
		Resume:       resume,
		Strict:       strict,
		Regression:   regression,
		DeleteOld:    deleteOld,
		ShowProgress: showProgress,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor, err := batch.NewProcessor(cfg, opts)
	if err != nil {
		return err
	}

	if err := processor.Run(ctx); err != nil {
		var strictErr *batch.StrictError
		switch {
		case pipeline.IsPrecondition(err):
			slog.Error("precondition failed", "error", err)
			os.Exit(exitPrecondition)
		case errors.As(err, &strictErr):
			slog.Error("strict mode failed",
				"incomplete", len(strictErr.Incomplete),
				"documents", strings.Join(strictErr.Incomplete, ", "))
			os.Exit(exitStrict)
		case ctx.Err() != nil:
			return fmt.Errorf("run interrupted: %w", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("delete-old", false, "reset the derived-artifact directories before processing")
	runCmd.Flags().Bool("regression", false, "process the fixture inputs; replay the fixture output when Tesseract is absent")

	runCmd.Flags().Int("dpi", 0, "rasterization DPI (default from config)")
	runCmd.Flags().Int("pdf-workers", 1, "document-level workers (sequential for now)")
	runCmd.Flags().Int("crop-workers", 0, "page-crop workers (default from config)")
	runCmd.Flags().Int("ocr-workers", 2, "OCR workers per document")
	runCmd.Flags().String("tessdata-dir", "", "explicit Tesseract language-data directory")

	runCmd.Flags().Bool("resume", false, "resume an earlier run (requires --run-id)")
	runCmd.Flags().Bool("strict", false, "exit nonzero when extracted counts miss the summary-page totals")
	runCmd.Flags().String("state-dir", "runs", "run-state root directory")
	runCmd.Flags().String("run-id", "", "run identifier (generated when omitted)")

	runCmd.Flags().Bool("no-combined", false, "skip the combined all-documents output")
	runCmd.Flags().String("output-format", "xlsx", "output format (csv or xlsx)")
	runCmd.Flags().Bool("progress", false, "show per-stage progress bars")

	runCmd.Flags().String("s3-input", "", "comma-separated list of s3:// paths to input PDFs")
	runCmd.Flags().String("s3-output", "", "s3:// path where outputs should be uploaded")
}
