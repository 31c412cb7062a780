package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// SessionStore persists session keys in SQL so a provisioning session can
// survive a process restart.
type SessionStore struct {
	db *bun.DB
}

func NewSessionStore(db *bun.DB) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("sqlstore: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("sqlstore: session key is required")
	}

	record := new(sessionEntryRecord)
	err := s.db.NewSelect().
		Model(record).
		Where("key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return record.Value, true, nil
}

func (s *SessionStore) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: session key is required")
	}

	record := &sessionEntryRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: session key is required")
	}

	_, err := s.db.NewDelete().
		Model((*sessionEntryRecord)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}
