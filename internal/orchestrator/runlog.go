package orchestrator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunRecord is one line of the append-only run log.
type RunRecord struct {
	RunID      string             `json:"run_id"`
	SpecPath   string             `json:"spec_path"`
	Operation  string             `json:"operation,omitempty"`
	Language   string             `json:"language,omitempty"`
	Strategy   string             `json:"strategy,omitempty"`
	Stub       bool               `json:"stub,omitempty"`
	OK         bool               `json:"ok"`
	Status     string             `json:"status"`
	ErrorKind  string             `json:"error_kind,omitempty"`
	Incomplete bool               `json:"incomplete,omitempty"`
	ReportPath string             `json:"report_path,omitempty"`
	Bias       map[string]float64 `json:"bias,omitempty"`
	DurationMs int64              `json:"duration_ms"`
	Timestamp  time.Time          `json:"ts"`
}

// RunLog is an append-only JSONL file of run records. Appends go through
// O_APPEND so concurrent writers never interleave partial lines.
type RunLog struct {
	mu   sync.Mutex
	path string
}

// NewRunLog points a run log at a JSONL path.
func NewRunLog(path string) *RunLog {
	return &RunLog{path: path}
}

// Path returns the underlying file path.
func (l *RunLog) Path() string { return l.path }

// Append writes one record as a JSON line.
func (l *RunLog) Append(rec RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding run record: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending run record: %w", err)
	}
	return nil
}

// Tail returns the last n records, oldest first. Corrupt lines are skipped
// rather than failing the whole read. A missing log file is an empty
// history, not an error.
func (l *RunLog) Tail(n int) ([]RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	var records []RunRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading run log: %w", err)
	}

	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Latest returns the most recent record, or nil when the log is empty.
func (l *RunLog) Latest() (*RunRecord, error) {
	records, err := l.Tail(1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}
