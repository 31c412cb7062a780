package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type sessionEntryRecord struct {
	bun.BaseModel `bun:"table:provision_session_entries,alias:pse"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type activityEntryRecord struct {
	bun.BaseModel `bun:"table:provision_activity_entries,alias:pae"`

	ID         string         `bun:"id,pk"`
	Operation  string         `bun:"operation,notnull"`
	InvoiceID  string         `bun:"invoice_id"`
	Credential string         `bun:"credential"`
	Status     string         `bun:"status,notnull"`
	Error      string         `bun:"error"`
	Metadata   map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
