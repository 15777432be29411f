// Package logger appends run events to a JSONL log for later inspection:
// one event per run begin/end, plus one per gate exclusion and unmapped
// threat.
package logger

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunEvent is one log line.
type RunEvent struct {
	Timestamp   string   `json:"timestamp"`
	RunID       string   `json:"run_id"`
	Kind        string   `json:"kind"` // run_start | run_done | gate_excluded | unmapped
	TargetLevel int      `json:"target_level,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Families    []string `json:"families,omitempty"`

	Threats  int `json:"threats,omitempty"`
	Results  int `json:"results,omitempty"`
	Unmapped int `json:"unmapped,omitempty"`

	ThreatID     string   `json:"threat_id,omitempty"`
	Token        string   `json:"token,omitempty"`
	RID          string   `json:"rid,omitempty"`
	Required     []string `json:"required_assets,omitempty"`
	RecordAssets []string `json:"record_assets,omitempty"`
	Allocation   []string `json:"allocation,omitempty"`
	DescKey      string   `json:"desc_key,omitempty"`

	Error string `json:"error,omitempty"`
}

// RunLog appends events for a single run, all stamped with the same run id.
type RunLog struct {
	file  *os.File
	runID string
	mu    sync.Mutex
}

// New opens (appending) the log file and assigns a fresh run id.
func New(path string) (*RunLog, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &RunLog{file: file, runID: uuid.NewString()}, nil
}

// RunID returns the id stamped on this log's events.
func (l *RunLog) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Log appends one event. A nil RunLog discards events, so callers need no
// nil checks when logging is disabled.
func (l *RunLog) Log(event RunEvent) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	event.RunID = l.runID

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = l.file.Write(data)
	return err
}

// Close closes the underlying file.
func (l *RunLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
