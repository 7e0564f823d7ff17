package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/votershield/internal/language"
)

func TestParsePageMetadata_English(t *testing.T) {
	text := "Assembly Constituency No and Name : 118 - Anna Nagar Part No. : 42\n" +
		"Section No and Name : 1 - Gandhi Street Ward 3"

	md := ParsePageMetadata(text, language.English)
	require.NotNil(t, md.Assembly)
	assert.Equal(t, "118 - Anna Nagar", *md.Assembly)
	require.NotNil(t, md.PartNo)
	assert.Equal(t, 42, *md.PartNo)
	require.NotNil(t, md.Street)
	assert.Equal(t, "1 - Gandhi Street Ward 3", *md.Street)
}

func TestParsePageMetadata_Tamil(t *testing.T) {
	text := "சட்டமன்ற தொகுதி எண் மற்றும் பெயர் : 118 - அண்ணா நகர் பாகம் எண் : 42\n" +
		"பிரிவு எண் மற்றும் பெயர் : 1 - காந்தி தெரு"

	md := ParsePageMetadata(text, language.TamilEnglish)
	require.NotNil(t, md.Assembly)
	assert.Equal(t, "118 - அண்ணா நகர்", *md.Assembly)
	require.NotNil(t, md.PartNo)
	assert.Equal(t, 42, *md.PartNo)
	require.NotNil(t, md.Street)
	assert.Equal(t, "1 - காந்தி தெரு", *md.Street)
}

func TestParsePageMetadata_PartialHeader(t *testing.T) {
	// A degraded strip where only the part number survived.
	md := ParsePageMetadata("garbled text Part No : 7\nmore garble", language.English)
	assert.Nil(t, md.Assembly)
	require.NotNil(t, md.PartNo)
	assert.Equal(t, 7, *md.PartNo)
	assert.Nil(t, md.Street)
}

func TestParsePageMetadata_TooFewLines(t *testing.T) {
	md := ParsePageMetadata("only one line", language.English)
	assert.Nil(t, md.Assembly)
	assert.Nil(t, md.PartNo)
	assert.Nil(t, md.Street)
}

func TestParsePageMetadata_Empty(t *testing.T) {
	md := ParsePageMetadata("", language.English)
	assert.Nil(t, md.Assembly)
	assert.Nil(t, md.PartNo)
	assert.Nil(t, md.Street)
}
