package extract

import (
	"log/slog"
	"sort"
)

// AssignSerialNumbers assigns a dense 1-based serial_no per document.
// Records are ordered by (page_no, intra-page index) within a document, so
// serials are stable across reruns of identical input. The returned slice
// is sorted by (doc_id, serial_no).
func AssignSerialNumbers(records []Record) []Record {
	grouped := make(map[string][]Record)
	var docOrder []string
	for _, r := range records {
		if _, ok := grouped[r.DocID]; !ok {
			docOrder = append(docOrder, r.DocID)
		}
		grouped[r.DocID] = append(grouped[r.DocID], r)
	}

	slog.Debug("assigning serial numbers", "documents", len(grouped))

	final := make([]Record, 0, len(records))
	for _, docID := range docOrder {
		voters := grouped[docID]
		sort.SliceStable(voters, func(i, j int) bool {
			if voters[i].PageNo != voters[j].PageNo {
				return voters[i].PageNo < voters[j].PageNo
			}
			return voters[i].VoterNo < voters[j].VoterNo
		})
		for i := range voters {
			voters[i].SerialNo = i + 1
		}
		final = append(final, voters...)
	}

	sort.SliceStable(final, func(i, j int) bool {
		if final[i].DocID != final[j].DocID {
			return final[i].DocID < final[j].DocID
		}
		return final[i].SerialNo < final[j].SerialNo
	})
	return final
}
