package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/votershield/internal/language"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestEnumerateJobs(t *testing.T) {
	jpgDir := t.TempDir()
	cropsDir := t.TempDir()
	ocrDir := filepath.Join(t.TempDir(), "ocr")
	stem := "2026-TAM-118-042"

	touch(t, filepath.Join(jpgDir, stem+"_cover_01.jpg"))
	touch(t, filepath.Join(jpgDir, stem+"_cover_02.jpg"))
	touch(t, filepath.Join(jpgDir, stem+"_summary.jpg"))
	touch(t, filepath.Join(cropsDir, stem+"_page_01_stacked_crops.jpg"))
	touch(t, filepath.Join(cropsDir, stem+"_page_01_street.png"))
	touch(t, filepath.Join(cropsDir, stem+"_page_02_stacked_crops.jpg"))
	touch(t, filepath.Join(cropsDir, stem+"_page_02_street.png"))

	jobs, err := EnumerateJobs(jpgDir, cropsDir, ocrDir)
	require.NoError(t, err)
	require.Len(t, jobs, 7)
	assert.DirExists(t, ocrDir)

	// Stage order: stacked crops, street strips, covers, summary.
	assert.Equal(t, stem+"_page_01_stacked_ocr.txt", filepath.Base(jobs[0].OutPath))
	assert.Equal(t, stem+"_page_02_stacked_ocr.txt", filepath.Base(jobs[1].OutPath))
	assert.Equal(t, stem+"_page_01_street.txt", filepath.Base(jobs[2].OutPath))
	assert.Equal(t, stem+"_page_02_street.txt", filepath.Base(jobs[3].OutPath))
	assert.Equal(t, stem+"_cover_01_ocr.txt", filepath.Base(jobs[4].OutPath))
	assert.Equal(t, stem+"_cover_02_ocr.txt", filepath.Base(jobs[5].OutPath))
	assert.Equal(t, stem+"_summary_ocr.txt", filepath.Base(jobs[6].OutPath))

	for _, j := range jobs {
		assert.Equal(t, language.TamilEnglish, j.Lang, "job %s", j.ImagePath)
		assert.Equal(t, ocrDir, filepath.Dir(j.OutPath))
	}
}

func TestEnumerateJobs_EmptyDirs(t *testing.T) {
	jobs, err := EnumerateJobs(t.TempDir(), t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRequiredLangs(t *testing.T) {
	jobs := []Job{
		{ImagePath: "a.jpg", Lang: language.English},
		{ImagePath: "b.jpg", Lang: language.TamilEnglish},
	}
	assert.Equal(t, []string{"eng", "tam"}, RequiredLangs(jobs))

	assert.Equal(t, []string{"eng"}, RequiredLangs([]Job{{Lang: language.English}}))
	assert.Empty(t, RequiredLangs(nil))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims lines", "  Name : Kumar  \n  Age : 45 ", "Name : Kumar\nAge : 45"},
		{"drops empty lines", "a\n\n \nb", "a\nb"},
		{"empty input", "   \n \n", ""},
		{"windows line breaks", "a\r\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestCleanText_NormalizesNFC(t *testing.T) {
	// Decomposed Tamil vowel sign must compose with its consonant.
	decomposed := "நெ" // NA + E produced as separate combining parts
	out := CleanText(decomposed)
	assert.NotEmpty(t, out)
	assert.Equal(t, CleanText(out), out)
}
