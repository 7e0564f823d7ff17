package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/votershield/internal/language"
)

// Stacked OCR files carry the page number zero-padded, so lexicographic
// order equals page order.
var stackedFileRe = regexp.MustCompile(`(?i)^(.+?)_page_(\d+)_stacked_ocr\.txt$`)

// LoadPageBlocks reads a document's `*_stacked_ocr.txt` files in
// lexicographic order and pairs each with the metadata parsed from its
// companion `*_street.txt`. The page blocks are also persisted as
// `ocr_results.json` in ocrDir for audit.
func LoadPageBlocks(ocrDir, stem string) ([]PageBlock, error) {
	pattern := filepath.Join(ocrDir, stem+"_page_*_stacked_ocr.txt")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob stacked ocr files: %w", err)
	}
	sort.Strings(files)

	blocks := make([]PageBlock, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		name := filepath.Base(path)
		m := stackedFileRe.FindStringSubmatch(name)
		if m == nil {
			slog.Warn("unparseable stacked OCR filename, skipping", "file", name)
			continue
		}
		pageNo, err := strconv.Atoi(m[2])
		if err != nil {
			slog.Warn("unparseable page number, skipping", "file", name)
			continue
		}

		md := loadHeaderMetadata(path)
		blocks = append(blocks, PageBlock{
			SourceImage: name,
			OCRText:     string(data),
			DocID:       m[1],
			Assembly:    md.Assembly,
			PartNo:      md.PartNo,
			Street:      md.Street,
			PageNo:      pageNo,
		})
	}

	if err := writeJSON(filepath.Join(ocrDir, "ocr_results.json"), blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func loadHeaderMetadata(stackedPath string) PageMetadata {
	streetPath := strings.Replace(stackedPath, "stacked_ocr", "street", 1)
	text := ""
	if data, err := os.ReadFile(streetPath); err == nil {
		text = string(data)
	}
	return ParsePageMetadata(text, language.FromFilename(filepath.Base(stackedPath)))
}

// Records splits every page block into cell chunks and parses each chunk
// into a voter record carrying the block's header coordinates. The
// intra-page index orders records within their page.
func Records(blocks []PageBlock) []Record {
	var records []Record
	for _, b := range blocks {
		lang := language.FromFilename(b.SourceImage)
		for i, chunk := range SplitVoters(b.OCRText) {
			rec := Record{
				DocID:    b.DocID,
				PageNo:   b.PageNo,
				VoterNo:  i + 1,
				Assembly: b.Assembly,
				PartNo:   b.PartNo,
				Street:   b.Street,
			}
			rec.ParseCell(chunk, lang)
			records = append(records, rec)
		}
	}
	return records
}

// WriteCleanedRecords persists the final records as `cleaned_records.json`
// in ocrDir.
func WriteCleanedRecords(ocrDir string, records []Record) error {
	return writeJSON(filepath.Join(ocrDir, "cleaned_records.json"), records)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
