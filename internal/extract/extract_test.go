package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOCRFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadPageBlocks(t *testing.T) {
	dir := t.TempDir()
	stem := "2026-ENG-118-042"

	writeOCRFixture(t, dir, stem+"_page_01_stacked_ocr.txt",
		"Name : Kumar S\nVOTER_END\nName : Lakshmi K\nVOTER_END")
	writeOCRFixture(t, dir, stem+"_page_01_street.txt",
		"Name : 118 - Anna Nagar Part No : 42\nSection No and Name : 1 - Gandhi Street")
	writeOCRFixture(t, dir, stem+"_page_02_stacked_ocr.txt",
		"Name : Ravi M\nVOTER_END")
	// Empty page output is skipped entirely.
	writeOCRFixture(t, dir, stem+"_page_03_stacked_ocr.txt", "  \n ")

	blocks, err := LoadPageBlocks(dir, stem)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, stem, blocks[0].DocID)
	assert.Equal(t, 1, blocks[0].PageNo)
	require.NotNil(t, blocks[0].Assembly)
	assert.Equal(t, "118 - Anna Nagar", *blocks[0].Assembly)
	require.NotNil(t, blocks[0].PartNo)
	assert.Equal(t, 42, *blocks[0].PartNo)
	require.NotNil(t, blocks[0].Street)
	assert.Equal(t, "1 - Gandhi Street", *blocks[0].Street)

	// Page 2 has no street companion, so header fields stay nil.
	assert.Equal(t, 2, blocks[1].PageNo)
	assert.Nil(t, blocks[1].Assembly)

	// The audit artifact is written alongside the inputs.
	assert.FileExists(t, filepath.Join(dir, "ocr_results.json"))
}

func TestLoadPageBlocks_NoFiles(t *testing.T) {
	blocks, err := LoadPageBlocks(t.TempDir(), "missing")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestRecords(t *testing.T) {
	assembly := "118 - Anna Nagar"
	blocks := []PageBlock{
		{
			SourceImage: "2026-ENG-118-042_page_01_stacked_ocr.txt",
			OCRText:     "ABC1234567\nName : Kumar S\nVOTER_END\nName : Lakshmi K\nVOTER_END",
			DocID:       "2026-ENG-118-042",
			Assembly:    &assembly,
			PageNo:      1,
		},
	}

	records := Records(blocks)
	require.Len(t, records, 2)

	assert.Equal(t, "2026-ENG-118-042", records[0].DocID)
	assert.Equal(t, 1, records[0].VoterNo)
	assert.Equal(t, 2, records[1].VoterNo)
	require.NotNil(t, records[0].EpicID)
	assert.Equal(t, "ABC1234567", *records[0].EpicID)
	require.NotNil(t, records[0].Assembly)
	assert.Equal(t, assembly, *records[0].Assembly)
	require.NotNil(t, records[1].Name)
	assert.Equal(t, "Lakshmi K", *records[1].Name)
}

func TestWriteCleanedRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteCleanedRecords(dir, []Record{{DocID: "d", PageNo: 1, VoterNo: 1}}))
	assert.FileExists(t, filepath.Join(dir, "cleaned_records.json"))
}
