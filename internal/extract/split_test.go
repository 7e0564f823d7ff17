package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitVoters(t *testing.T) {
	text := strings.Join([]string{
		"Name : Kumar S",
		"Age : 45",
		"VOTER_END",
		"Name : Lakshmi K",
		"Age : 41",
		"VOTER_END",
	}, "\n")

	chunks := SplitVoters(text)
	assert.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "Kumar S")
	assert.Contains(t, chunks[1], "Lakshmi K")
}

func TestSplitVoters_MarkerVariants(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"underscore", "VOTER_END"},
		{"space", "VOTER END"},
		{"joined", "VOTEREND"},
		{"lowercase", "voter_end"},
		{"noise around marker", "| VOTER_END ;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitVoters("Name : A\n" + tt.marker + "\nName : B\n" + tt.marker)
			assert.Len(t, chunks, 2)
		})
	}
}

func TestSplitVoters_EmptyCellKept(t *testing.T) {
	// Two consecutive markers mean a cell with no readable text; it still
	// occupies a slot so serial numbering stays aligned.
	chunks := SplitVoters("Name : A\nVOTER_END\nVOTER_END\nName : C\nVOTER_END")
	assert.Len(t, chunks, 3)
	assert.Empty(t, chunks[1])
}

func TestSplitVoters_TrailingText(t *testing.T) {
	chunks := SplitVoters("Name : A\nVOTER_END\nName : B")
	assert.Len(t, chunks, 2)
	assert.Equal(t, "Name : B", chunks[1])
}

func TestSplitVoters_TrailingBlankDropped(t *testing.T) {
	chunks := SplitVoters("Name : A\nVOTER_END\n \n\n")
	assert.Len(t, chunks, 1)
}

func TestSplitVoters_NoMarkers(t *testing.T) {
	chunks := SplitVoters("Name : A\nAge : 45")
	assert.Len(t, chunks, 1)
}

func TestSplitVoters_EmptyInput(t *testing.T) {
	assert.Empty(t, SplitVoters(""))
}
