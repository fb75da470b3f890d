package customerdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/techflow-labs/careflow/agent/contract"
)

type auditRow struct {
	bun.BaseModel `bun:"table:retention_audit"`

	ID         int64     `bun:"id,pk,autoincrement"`
	CustomerID string    `bun:"customer_id,notnull"`
	Action     string    `bun:"action,notnull"`
	Details    string    `bun:"details"`
	RecordedAt time.Time `bun:"recorded_at,notnull"`
}

// Audit persists final dispositions into the retention_audit table.
type Audit struct {
	db  bun.IDB
	now func() time.Time
}

func NewAudit(db bun.IDB) *Audit {
	return &Audit{db: db, now: time.Now}
}

func (a *Audit) Append(ctx context.Context, customerID string, action contract.FinalAction, details string) error {
	row := &auditRow{
		CustomerID: customerID,
		Action:     string(action),
		Details:    details,
		RecordedAt: a.now().UTC(),
	}
	if _, err := a.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}
