// Package extract parses stacked-cell OCR text back into structured voter
// records: marker splitting, header metadata, per-cell fields, serial
// numbers and quality flags.
package extract

// Record is one extracted voter. Optional fields are pointers; nil means
// the OCR text did not yield the field.
type Record struct {
	// Page coordinates (bookkeeping, excluded from tabular output).
	DocID   string `json:"doc_id"`
	PageNo  int    `json:"page_no"`
	VoterNo int    `json:"voter_no"` // 1..30 within the page

	// Header-derived location.
	Assembly *string `json:"assembly"`
	PartNo   *int    `json:"part_no"`
	Street   *string `json:"street"`

	SerialNo int `json:"serial_no"`

	// Cell-derived fields.
	EpicID      *string `json:"epic_id"`
	Name        *string `json:"name"`
	FatherName  *string `json:"father_name"`
	MotherName  *string `json:"mother_name"`
	HusbandName *string `json:"husband_name"`
	OtherName   *string `json:"other_name"`
	HouseNo     *string `json:"house_no"`
	Age         *int    `json:"age"`
	Gender      *string `json:"gender"`

	// Quality flags.
	TotalFlags  int    `json:"TOTAL_FLAGS"`
	FlagReasons string `json:"FLAG_REASONS"`
	Explanation string `json:"EXPLANATION_1"`
}

// PageBlock is the OCR output of one stacked voter-grid page together with
// its header metadata.
type PageBlock struct {
	SourceImage string  `json:"source_image"`
	OCRText     string  `json:"ocr_text"`
	DocID       string  `json:"doc_id"`
	Assembly    *string `json:"assembly"`
	PartNo      *int    `json:"part_no"`
	Street      *string `json:"street"`
	PageNo      int     `json:"page_no"`
}
