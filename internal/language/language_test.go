package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Set
	}{
		{"tamil marker", "2026-TAM-118-042.pdf", TamilEnglish},
		{"tamil marker lowercase", "2026-tam-118-042.pdf", TamilEnglish},
		{"english marker", "2026-ENG-118-042.pdf", English},
		{"no marker defaults to english", "roll_118_042.pdf", English},
		{"marker inside page image name", "2026-TAM-118-042_page_03.jpg", TamilEnglish},
		{"empty name", "", English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromFilename(tt.filename))
		})
	}
}

func TestSetString(t *testing.T) {
	assert.Equal(t, "eng", English.String())
	assert.Equal(t, "tam+eng", TamilEnglish.String())
}

func TestTessLangs(t *testing.T) {
	assert.Equal(t, []string{"eng"}, English.TessLangs())
	assert.Equal(t, []string{"tam", "eng"}, TamilEnglish.TessLangs())
}

func TestVoterStartPage(t *testing.T) {
	assert.Equal(t, 3, English.VoterStartPage())
	assert.Equal(t, 4, TamilEnglish.VoterStartPage())
}

func TestCoverPageCount(t *testing.T) {
	assert.Equal(t, English.VoterStartPage()-1, English.CoverPageCount())
	assert.Equal(t, TamilEnglish.VoterStartPage()-1, TamilEnglish.CoverPageCount())
}
