package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-provision/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivityStore records provisioning operations for audit surfaces.
type ActivityStore struct {
	db   *bun.DB
	repo repository.Repository[*activityEntryRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*activityEntryRecord](db, activityHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid activity repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, repo: repo}, nil
}

func (s *ActivityStore) Append(ctx context.Context, in core.AppendActivityInput) (core.ActivityEntry, error) {
	if s == nil || s.repo == nil {
		return core.ActivityEntry{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	operation := strings.TrimSpace(in.Operation)
	if operation == "" {
		return core.ActivityEntry{}, fmt.Errorf("sqlstore: activity operation is required")
	}
	status := strings.TrimSpace(string(in.Status))
	if status == "" {
		status = string(core.ActivityStatusSuccess)
	}
	occurredAt := in.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	record := &activityEntryRecord{
		ID:         uuid.NewString(),
		Operation:  operation,
		InvoiceID:  strings.TrimSpace(in.InvoiceID),
		Credential: strings.TrimSpace(in.Credential),
		Status:     status,
		Error:      strings.TrimSpace(in.Error),
		Metadata:   copyAnyMap(in.Metadata),
		CreatedAt:  occurredAt,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.ActivityEntry{}, err
	}
	return activityRecordToDomain(created), nil
}

func (s *ActivityStore) List(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error) {
	if s == nil || s.repo == nil {
		return core.ActivityPage{}, fmt.Errorf("sqlstore: activity store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if operation := strings.TrimSpace(filter.Operation); operation != "" {
		selectors = append(selectors, repository.SelectBy("operation", "=", operation))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.ActivityPage{}, err
	}
	items := make([]core.ActivityEntry, 0, len(records))
	for _, record := range records {
		items = append(items, activityRecordToDomain(record))
	}
	return core.ActivityPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

func activityRecordToDomain(record *activityEntryRecord) core.ActivityEntry {
	if record == nil {
		return core.ActivityEntry{}
	}
	return core.ActivityEntry{
		ID:         record.ID,
		Operation:  record.Operation,
		InvoiceID:  record.InvoiceID,
		Credential: record.Credential,
		Status:     core.ActivityStatus(record.Status),
		Error:      record.Error,
		Metadata:   copyAnyMap(record.Metadata),
		CreatedAt:  record.CreatedAt,
	}
}
