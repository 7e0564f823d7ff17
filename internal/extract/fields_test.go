package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/votershield/internal/language"
)

func TestParseCell_English(t *testing.T) {
	chunk := strings.Join([]string{
		"ABC1234567",
		"Name : Kumar S",
		"Father's Name : Subramani R",
		"House Number : 12-4",
		"Age : 45 Gender : Male",
	}, "\n")

	var r Record
	r.ParseCell(chunk, language.English)

	require.NotNil(t, r.EpicID)
	assert.Equal(t, "ABC1234567", *r.EpicID)
	require.NotNil(t, r.Name)
	assert.Equal(t, "Kumar S", *r.Name)
	require.NotNil(t, r.FatherName)
	assert.Equal(t, "Subramani R", *r.FatherName)
	assert.Nil(t, r.MotherName)
	assert.Nil(t, r.HusbandName)
	require.NotNil(t, r.HouseNo)
	assert.Equal(t, "12-4", *r.HouseNo)
	require.NotNil(t, r.Age)
	assert.Equal(t, 45, *r.Age)
	require.NotNil(t, r.Gender)
	assert.Equal(t, "male", *r.Gender)
}

func TestParseCell_HusbandRelation(t *testing.T) {
	chunk := "XYZ7654321\nName : Lakshmi K\nHusband's Name : Kumar S\nAge : 41 Gender : Female"

	var r Record
	r.ParseCell(chunk, language.English)

	require.NotNil(t, r.HusbandName)
	assert.Equal(t, "Kumar S", *r.HusbandName)
	assert.Nil(t, r.FatherName)
	require.NotNil(t, r.Gender)
	assert.Equal(t, "female", *r.Gender)
}

func TestParseCell_InlineLabelsStopValue(t *testing.T) {
	// Labels sharing one OCR line must not bleed into each other's values.
	chunk := "Name : Ravi M Age : 29\nHouse Number : 14 Gender : Male"

	var r Record
	r.ParseCell(chunk, language.English)

	require.NotNil(t, r.Name)
	assert.Equal(t, "Ravi M", *r.Name)
	require.NotNil(t, r.HouseNo)
	assert.Equal(t, "14", *r.HouseNo)
	require.NotNil(t, r.Age)
	assert.Equal(t, 29, *r.Age)
}

func TestParseCell_Tamil(t *testing.T) {
	chunk := strings.Join([]string{
		"DEF2468135",
		"பெயர் : குமார்",
		"தந்தையின் பெயர் : சுப்ரமணி",
		"வீட்டு எண் : 12-4",
		"வயது : 45 பாலினம் : ஆண்",
	}, "\n")

	var r Record
	r.ParseCell(chunk, language.TamilEnglish)

	require.NotNil(t, r.EpicID)
	assert.Equal(t, "DEF2468135", *r.EpicID)
	require.NotNil(t, r.Name)
	assert.Equal(t, "குமார்", *r.Name)
	require.NotNil(t, r.FatherName)
	assert.Equal(t, "சுப்ரமணி", *r.FatherName)
	require.NotNil(t, r.HouseNo)
	assert.Equal(t, "12-4", *r.HouseNo)
	require.NotNil(t, r.Age)
	assert.Equal(t, 45, *r.Age)
	require.NotNil(t, r.Gender)
	assert.Equal(t, "male", *r.Gender)
}

func TestParseCell_AgeBounds(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  *int
	}{
		{"valid", "Age : 18", intp(18)},
		{"upper bound", "Age : 120", intp(120)},
		{"zero rejected", "Age : 0", nil},
		{"absurd rejected", "Age : 451", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			r.ParseCell(tt.chunk, language.English)
			if tt.want == nil {
				assert.Nil(t, r.Age)
			} else {
				require.NotNil(t, r.Age)
				assert.Equal(t, *tt.want, *r.Age)
			}
		})
	}
}

func TestParseCell_EmptyChunk(t *testing.T) {
	var r Record
	r.ParseCell("   \n ", language.English)
	assert.Nil(t, r.Name)
	assert.Nil(t, r.EpicID)
}

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Male", "male"},
		{"FEMALE", "female"},
		{"Third Gender", "third-gender"},
		{"ஆண்", "male"},
		{"பெண்", "female"},
		{"மூன்றாம் பாலினம்", "third-gender"},
		{"??", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeGender(tt.raw), "raw=%q", tt.raw)
	}
}

func intp(n int) *int { return &n }
