package query

import (
	"context"

	"github.com/goliatone/go-provision/core"
)

type WalletSynchronizer interface {
	Sync(ctx context.Context, credential string) (core.WalletSnapshot, error)
}

type SessionReader interface {
	ActiveSession(ctx context.Context) (core.Session, error)
}

type ActivityReader interface {
	List(ctx context.Context, filter core.ActivityFilter) (core.ActivityPage, error)
}

type SyncWalletQuery struct {
	synchronizer WalletSynchronizer
}

func NewSyncWalletQuery(synchronizer WalletSynchronizer) *SyncWalletQuery {
	return &SyncWalletQuery{synchronizer: synchronizer}
}

func (q *SyncWalletQuery) Query(ctx context.Context, msg SyncWalletMessage) (core.WalletSnapshot, error) {
	if q == nil || q.synchronizer == nil {
		return core.WalletSnapshot{}, queryDependencyError("query: wallet synchronizer is required")
	}
	return q.synchronizer.Sync(ctx, msg.Credential)
}

type GetSessionQuery struct {
	reader SessionReader
}

func NewGetSessionQuery(reader SessionReader) *GetSessionQuery {
	return &GetSessionQuery{reader: reader}
}

func (q *GetSessionQuery) Query(ctx context.Context, _ GetSessionMessage) (core.Session, error) {
	if q == nil || q.reader == nil {
		return core.Session{}, queryDependencyError("query: session reader is required")
	}
	return q.reader.ActiveSession(ctx)
}

type ListActivityQuery struct {
	reader ActivityReader
}

func NewListActivityQuery(reader ActivityReader) *ListActivityQuery {
	return &ListActivityQuery{reader: reader}
}

func (q *ListActivityQuery) Query(ctx context.Context, msg ListActivityMessage) (core.ActivityPage, error) {
	if q == nil || q.reader == nil {
		return core.ActivityPage{}, queryDependencyError("query: activity reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}
