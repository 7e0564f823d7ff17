// Package output writes the pipeline's tabular and report artifacts. All
// writes are atomic: a temp file in the target directory followed by a
// rename, so a crashed run never leaves a partial output behind.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/MeKo-Tech/votershield/internal/extract"
)

// CombinedStem is the base name of the combined all-documents output.
const CombinedStem = "final_voter_data"

// Columns is the fixed output column order. Internal bookkeeping fields
// (source_image, ocr_text, doc_id, page_no, voter_no) are excluded.
var Columns = []string{
	"assembly",
	"part_no",
	"street",
	"serial_no",
	"epic_id",
	"name",
	"father_name",
	"mother_name",
	"husband_name",
	"other_name",
	"house_no",
	"age",
	"gender",
	"TOTAL_FLAGS",
	"FLAG_REASONS",
	"EXPLANATION_1",
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cellValue(r extract.Record, col string) any {
	switch col {
	case "assembly":
		return strOrEmpty(r.Assembly)
	case "part_no":
		if r.PartNo == nil {
			return ""
		}
		return *r.PartNo
	case "street":
		return strOrEmpty(r.Street)
	case "serial_no":
		return r.SerialNo
	case "epic_id":
		return strOrEmpty(r.EpicID)
	case "name":
		return strOrEmpty(r.Name)
	case "father_name":
		return strOrEmpty(r.FatherName)
	case "mother_name":
		return strOrEmpty(r.MotherName)
	case "husband_name":
		return strOrEmpty(r.HusbandName)
	case "other_name":
		return strOrEmpty(r.OtherName)
	case "house_no":
		return strOrEmpty(r.HouseNo)
	case "age":
		if r.Age == nil {
			return ""
		}
		return *r.Age
	case "gender":
		return strOrEmpty(r.Gender)
	case "TOTAL_FLAGS":
		return r.TotalFlags
	case "FLAG_REASONS":
		return r.FlagReasons
	case "EXPLANATION_1":
		return r.Explanation
	}
	return ""
}

func csvValue(r extract.Record, col string) string {
	switch v := cellValue(r, col).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// WriteCSV writes records to csvPath atomically.
func WriteCSV(records []extract.Record, csvPath string) error {
	return writeAtomic(csvPath, func(f *os.File) error {
		w := csv.NewWriter(f)
		if err := w.Write(Columns); err != nil {
			return err
		}
		row := make([]string, len(Columns))
		for _, r := range records {
			for i, col := range Columns {
				row[i] = csvValue(r, col)
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// WriteXLSX writes records to xlsxPath atomically, on a sheet named
// "voters".
func WriteXLSX(records []extract.Record, xlsxPath string) error {
	return writeAtomic(xlsxPath, func(f *os.File) error {
		wb := excelize.NewFile()
		defer func() { _ = wb.Close() }()

		const sheet = "voters"
		if _, err := wb.NewSheet(sheet); err != nil {
			return err
		}
		if err := wb.DeleteSheet("Sheet1"); err != nil {
			return err
		}

		header := make([]any, len(Columns))
		for i, c := range Columns {
			header[i] = c
		}
		if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}

		for rowIdx, r := range records {
			row := make([]any, len(Columns))
			for i, col := range Columns {
				row[i] = cellValue(r, col)
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}

		_, err := wb.WriteTo(f)
		return err
	})
}

// WriteRecords writes records in the requested format ("csv" or "xlsx").
func WriteRecords(records []extract.Record, path, format string) error {
	if format == "csv" {
		return WriteCSV(records, path)
	}
	return WriteXLSX(records, path)
}

// CombinedPath returns the combined output path for the format.
func CombinedPath(csvDir, format string) string {
	return filepath.Join(csvDir, CombinedStem+"."+format)
}

func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
