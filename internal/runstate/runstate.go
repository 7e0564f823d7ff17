// Package runstate persists the per-document status ledger of one run:
// a rewritten-on-every-mutation progress.csv snapshot plus an append-only
// events.jsonl audit log. The snapshot is written atomically so a crashed
// run loses at most the in-flight event.
package runstate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Status is the lifecycle state of one document within a run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusIncomplete Status = "incomplete"
)

// PDFState tracks one document's progress through the pipeline.
type PDFState struct {
	PDFName             string
	Status              Status
	Stage               string
	StartedAtUTC        string
	FinishedAtUTC       string
	ExtractedVoters     *int
	TotalVotersExpected *int
	CompletenessRatio   *float64
	Warnings            string
	Error               string
}

// Metrics carries optional metric updates; nil fields are left untouched.
type Metrics struct {
	ExtractedVoters     *int
	TotalVotersExpected *int
	CompletenessRatio   *float64
	Warnings            *string
	Error               *string
}

// RunState is the durable ledger of one run. It is mutated only from the
// driver goroutine between stage invocations.
type RunState struct {
	RunID   string
	RootDir string
	state   map[string]*PDFState
}

var progressFields = []string{
	"pdf_stem", "pdf_name", "status", "stage",
	"started_at_utc", "finished_at_utc",
	"extracted_voters", "total_voters_expected", "completeness_ratio",
	"warnings", "error",
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// New creates a fresh run state and its run directory.
func New(runID, rootDir string) (*RunState, error) {
	rs := &RunState{RunID: runID, RootDir: rootDir, state: make(map[string]*PDFState)}
	if err := os.MkdirAll(rs.RunDir(), 0o750); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	return rs, nil
}

// Load restores a run state from its progress.csv snapshot. Documents that
// were in_progress when the previous run stopped are demoted to pending so
// they are retried.
func Load(runID, rootDir string) (*RunState, error) {
	rs, err := New(runID, rootDir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(rs.ProgressPath())
	if os.IsNotExist(err) {
		return rs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open progress snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read progress snapshot: %w", err)
	}
	if len(rows) < 2 {
		return rs, nil
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	get := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	for _, row := range rows[1:] {
		stem := get(row, "pdf_stem")
		if stem == "" {
			continue
		}
		status := Status(get(row, "status"))
		if status == "" {
			status = StatusPending
		}
		if status == StatusInProgress {
			status = StatusPending
		}
		name := get(row, "pdf_name")
		if name == "" {
			name = stem
		}
		rs.state[stem] = &PDFState{
			PDFName:             name,
			Status:              status,
			Stage:               get(row, "stage"),
			StartedAtUTC:        get(row, "started_at_utc"),
			FinishedAtUTC:       get(row, "finished_at_utc"),
			ExtractedVoters:     parseInt(get(row, "extracted_voters")),
			TotalVotersExpected: parseInt(get(row, "total_voters_expected")),
			CompletenessRatio:   parseFloat(get(row, "completeness_ratio")),
			Warnings:            get(row, "warnings"),
			Error:               get(row, "error"),
		}
	}
	return rs, nil
}

// RunDir returns the run's state directory.
func (rs *RunState) RunDir() string {
	return filepath.Join(rs.RootDir, rs.RunID)
}

// ProgressPath returns the snapshot path.
func (rs *RunState) ProgressPath() string {
	return filepath.Join(rs.RunDir(), "progress.csv")
}

// EventsPath returns the audit log path.
func (rs *RunState) EventsPath() string {
	return filepath.Join(rs.RunDir(), "events.jsonl")
}

// DebugDir returns the debug snapshot directory for a document.
func (rs *RunState) DebugDir(stem string) string {
	return filepath.Join(rs.RunDir(), "debug", stem)
}

// Get returns a copy of the state of one document.
func (rs *RunState) Get(stem string) (PDFState, bool) {
	s, ok := rs.state[stem]
	if !ok {
		return PDFState{}, false
	}
	return *s, true
}

func (rs *RunState) upsert(stem, name string) *PDFState {
	if s, ok := rs.state[stem]; ok {
		return s
	}
	s := &PDFState{PDFName: name, Status: StatusPending}
	rs.state[stem] = s
	return s
}

// SetStatus transitions a document's status and stage, stamps start and
// finish times, logs the event and rewrites the snapshot.
func (rs *RunState) SetStatus(stem, name string, status Status, stage string) error {
	s := rs.upsert(stem, name)
	if status == StatusInProgress && s.StartedAtUTC == "" {
		s.StartedAtUTC = utcNow()
	}
	switch status {
	case StatusCompleted, StatusFailed, StatusIncomplete:
		s.FinishedAtUTC = utcNow()
	}
	s.Status = status
	if stage != "" {
		s.Stage = stage
	}

	if err := rs.logEvent("status", stem, map[string]any{"status": status, "stage": stage}); err != nil {
		return err
	}
	return rs.writeSnapshot()
}

// SetMetrics applies metric updates, logs the event and rewrites the
// snapshot.
func (rs *RunState) SetMetrics(stem, name string, m Metrics) error {
	s := rs.upsert(stem, name)
	if m.ExtractedVoters != nil {
		s.ExtractedVoters = m.ExtractedVoters
	}
	if m.TotalVotersExpected != nil {
		s.TotalVotersExpected = m.TotalVotersExpected
	}
	if m.CompletenessRatio != nil {
		s.CompletenessRatio = m.CompletenessRatio
	}
	if m.Warnings != nil {
		s.Warnings = *m.Warnings
	}
	if m.Error != nil {
		s.Error = *m.Error
	}

	payload := map[string]any{
		"extracted_voters":      m.ExtractedVoters,
		"total_voters_expected": m.TotalVotersExpected,
		"completeness_ratio":    m.CompletenessRatio,
		"warnings":              m.Warnings,
		"error":                 m.Error,
	}
	if err := rs.logEvent("metrics", stem, payload); err != nil {
		return err
	}
	return rs.writeSnapshot()
}

func (rs *RunState) logEvent(eventType, stem string, fields map[string]any) error {
	event := map[string]any{
		"ts_utc":   utcNow(),
		"event":    eventType,
		"pdf_stem": stem,
	}
	for k, v := range fields {
		event[k] = v
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	f, err := os.OpenFile(rs.EventsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open events log: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(append(data, '\n'))
	return err
}

func (rs *RunState) writeSnapshot() error {
	tmp, err := os.CreateTemp(rs.RunDir(), "progress.*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(progressFields); err != nil {
		_ = tmp.Close()
		return err
	}

	stems := make([]string, 0, len(rs.state))
	for stem := range rs.state {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	for _, stem := range stems {
		s := rs.state[stem]
		row := []string{
			stem, s.PDFName, string(s.Status), s.Stage,
			s.StartedAtUTC, s.FinishedAtUTC,
			intStr(s.ExtractedVoters), intStr(s.TotalVotersExpected), floatStr(s.CompletenessRatio),
			s.Warnings, s.Error,
		}
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, rs.ProgressPath())
}

func intStr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatStr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
