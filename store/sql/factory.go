package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-provision/core"
	"github.com/uptrace/bun"
)

// RepositoryFactory wires the SQL-backed stores from a shared bun handle.
type RepositoryFactory struct {
	db *bun.DB

	sessionStore  *SessionStore
	activityStore *ActivityStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.sessionStore != nil && f.activityStore != nil {
		return nil
	}

	sessionStore, err := NewSessionStore(f.db)
	if err != nil {
		return err
	}
	activityStore, err := NewActivityStore(f.db)
	if err != nil {
		return err
	}
	f.sessionStore = sessionStore
	f.activityStore = activityStore
	return nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) SessionStore() core.SessionStore {
	if f == nil {
		return nil
	}
	return f.sessionStore
}

func (f *RepositoryFactory) ActivityStore() core.ActivityStore {
	if f == nil {
		return nil
	}
	return f.activityStore
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
