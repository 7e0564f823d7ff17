package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/MeKo-Tech/votershield/internal/extract"
)

// ReadCSV reads a previously written records CSV back into memory. Used by
// the regression-fixture path, which replays a known-good output instead of
// running the OCR stages.
func ReadCSV(csvPath string) ([]extract.Record, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", csvPath, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", csvPath, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	get := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}
	strp := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	intp := func(s string) *int {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return &n
	}

	records := make([]extract.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := extract.Record{
			Assembly:    strp(get(row, "assembly")),
			PartNo:      intp(get(row, "part_no")),
			Street:      strp(get(row, "street")),
			EpicID:      strp(get(row, "epic_id")),
			Name:        strp(get(row, "name")),
			FatherName:  strp(get(row, "father_name")),
			MotherName:  strp(get(row, "mother_name")),
			HusbandName: strp(get(row, "husband_name")),
			OtherName:   strp(get(row, "other_name")),
			HouseNo:     strp(get(row, "house_no")),
			Age:         intp(get(row, "age")),
			Gender:      strp(get(row, "gender")),
			FlagReasons: get(row, "FLAG_REASONS"),
			Explanation: get(row, "EXPLANATION_1"),
		}
		if n, err := strconv.Atoi(get(row, "serial_no")); err == nil {
			rec.SerialNo = n
		}
		if n, err := strconv.Atoi(get(row, "TOTAL_FLAGS")); err == nil {
			rec.TotalFlags = n
		}
		records = append(records, rec)
	}
	return records, nil
}
