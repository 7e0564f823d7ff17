package extract

import "strings"

// flaggedFields are the fields whose absence marks a record for review,
// in reporting order.
var flaggedFields = []struct {
	name  string
	empty func(*Record) bool
}{
	{"epic_id", func(r *Record) bool { return emptyStr(r.EpicID) }},
	{"name", func(r *Record) bool { return emptyStr(r.Name) }},
	{"house_no", func(r *Record) bool { return emptyStr(r.HouseNo) }},
	{"age", func(r *Record) bool { return r.Age == nil }},
	{"gender", func(r *Record) bool { return emptyStr(r.Gender) }},
}

func emptyStr(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// AddQualityFlags annotates every record with TOTAL_FLAGS, FLAG_REASONS
// (semicolon-joined missing_<field> tokens) and EXPLANATION_1 (a short
// human-readable summary, empty when nothing is missing).
func AddQualityFlags(records []Record) []Record {
	for i := range records {
		var reasons []string
		for _, f := range flaggedFields {
			if f.empty(&records[i]) {
				reasons = append(reasons, "missing_"+f.name)
			}
		}

		records[i].TotalFlags = len(reasons)
		records[i].FlagReasons = strings.Join(reasons, ";")
		if len(reasons) > 0 {
			stripped := make([]string, len(reasons))
			for j, r := range reasons {
				stripped[j] = strings.TrimPrefix(r, "missing_")
			}
			records[i].Explanation = "Missing: " + strings.Join(stripped, ", ")
		} else {
			records[i].Explanation = ""
		}
	}
	return records
}
