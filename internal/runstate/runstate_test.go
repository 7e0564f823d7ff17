package runstate

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readSnapshot(t *testing.T, rs *RunState) [][]string {
	t.Helper()
	f, err := os.Open(rs.ProgressPath())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSetStatus_WritesSnapshot(t *testing.T) {
	rs, err := New("run-1", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, rs.SetStatus("doc-a", "doc-a.pdf", StatusInProgress, "convert"))

	rows := readSnapshot(t, rs)
	require.Len(t, rows, 2)
	assert.Equal(t, progressFields, rows[0])
	assert.Equal(t, "doc-a", rows[1][0])
	assert.Equal(t, "doc-a.pdf", rows[1][1])
	assert.Equal(t, "in_progress", rows[1][2])
	assert.Equal(t, "convert", rows[1][3])
	assert.NotEmpty(t, rows[1][4], "started_at_utc set on first in_progress")
	assert.Empty(t, rows[1][5], "finished_at_utc empty while running")
}

func TestSetStatus_TerminalStampsFinish(t *testing.T) {
	rs, err := New("run-1", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, rs.SetStatus("doc-a", "doc-a.pdf", StatusInProgress, "convert"))
	started, _ := rs.Get("doc-a")
	require.NoError(t, rs.SetStatus("doc-a", "doc-a.pdf", StatusCompleted, "done"))

	s, ok := rs.Get("doc-a")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, "done", s.Stage)
	assert.Equal(t, started.StartedAtUTC, s.StartedAtUTC, "start time stamped once")
	assert.NotEmpty(t, s.FinishedAtUTC)
}

func TestSetMetrics(t *testing.T) {
	rs, err := New("run-1", t.TempDir())
	require.NoError(t, err)

	extracted := 118
	expected := 120
	ratio := float64(extracted) / float64(expected)
	require.NoError(t, rs.SetMetrics("doc-a", "doc-a.pdf", Metrics{
		ExtractedVoters:     &extracted,
		TotalVotersExpected: &expected,
		CompletenessRatio:   &ratio,
	}))

	s, ok := rs.Get("doc-a")
	require.True(t, ok)
	require.NotNil(t, s.ExtractedVoters)
	assert.Equal(t, 118, *s.ExtractedVoters)
	require.NotNil(t, s.CompletenessRatio)
	assert.InDelta(t, ratio, *s.CompletenessRatio, 1e-9)

	// A later partial update leaves earlier metrics intact.
	errMsg := "boom"
	require.NoError(t, rs.SetMetrics("doc-a", "doc-a.pdf", Metrics{Error: &errMsg}))
	s, _ = rs.Get("doc-a")
	require.NotNil(t, s.ExtractedVoters)
	assert.Equal(t, 118, *s.ExtractedVoters)
	assert.Equal(t, "boom", s.Error)
}

func TestEventsLog(t *testing.T) {
	rs, err := New("run-1", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, rs.SetStatus("doc-a", "doc-a.pdf", StatusInProgress, "convert"))
	extracted := 5
	require.NoError(t, rs.SetMetrics("doc-a", "doc-a.pdf", Metrics{ExtractedVoters: &extracted}))

	f, err := os.Open(rs.EventsPath())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var events []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, events, 2)

	assert.Equal(t, "status", events[0]["event"])
	assert.Equal(t, "doc-a", events[0]["pdf_stem"])
	assert.NotEmpty(t, events[0]["ts_utc"])
	assert.Equal(t, "metrics", events[1]["event"])
}

func TestLoad_Resume(t *testing.T) {
	root := t.TempDir()
	rs, err := New("run-1", root)
	require.NoError(t, err)

	require.NoError(t, rs.SetStatus("doc-a", "doc-a.pdf", StatusCompleted, "done"))
	require.NoError(t, rs.SetStatus("doc-b", "doc-b.pdf", StatusInProgress, "ocr"))
	require.NoError(t, rs.SetStatus("doc-c", "doc-c.pdf", StatusFailed, "error"))

	loaded, err := Load("run-1", root)
	require.NoError(t, err)

	a, ok := loaded.Get("doc-a")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, a.Status)

	// Interrupted documents come back as pending so they get retried.
	b, ok := loaded.Get("doc-b")
	require.True(t, ok)
	assert.Equal(t, StatusPending, b.Status)

	c, ok := loaded.Get("doc-c")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, c.Status)
}

func TestLoad_NoSnapshot(t *testing.T) {
	loaded, err := Load("fresh-run", t.TempDir())
	require.NoError(t, err)
	_, ok := loaded.Get("anything")
	assert.False(t, ok)
}

func TestSnapshotSortedByStem(t *testing.T) {
	rs, err := New("run-1", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, rs.SetStatus("zeta", "zeta.pdf", StatusPending, ""))
	require.NoError(t, rs.SetStatus("alpha", "alpha.pdf", StatusPending, ""))

	rows := readSnapshot(t, rs)
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[1][0])
	assert.Equal(t, "zeta", rows[2][0])
}
