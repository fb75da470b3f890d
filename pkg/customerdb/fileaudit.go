package customerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/techflow-labs/careflow/agent/contract"
)

type fileAuditRecord struct {
	CustomerID string    `json:"customer_id"`
	Action     string    `json:"action"`
	Details    string    `json:"details,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// FileAudit appends dispositions as JSON lines to a local file. Used
// by the chat CLI; the server writes to Postgres instead.
type FileAudit struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileAudit(path string) *FileAudit {
	return &FileAudit{path: path, now: time.Now}
}

func (a *FileAudit) Append(_ context.Context, customerID string, action contract.FinalAction, details string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	line, err := json.Marshal(fileAuditRecord{
		CustomerID: customerID,
		Action:     string(action),
		Details:    details,
		RecordedAt: a.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}
