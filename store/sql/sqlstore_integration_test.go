package sqlstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"testing"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-provision/core"
	provisionmigrations "github.com/goliatone/go-provision/migrations"
	sqlstore "github.com/goliatone/go-provision/store/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "go-provision-tests"
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:provision-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	_, err = provisionmigrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != provisionmigrations.DialectSQLite {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, provisionmigrations.WithValidationTargets(provisionmigrations.DialectSQLite))
	if err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	for _, table := range []string{"provision_session_entries", "provision_activity_entries"} {
		var tableName string
		if err := client.DB().NewRaw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(context.Background(), &tableName); err != nil {
			t.Fatalf("query sqlite master for %s: %v", table, err)
		}
		if tableName != table {
			t.Fatalf("expected table %q, got %q", table, tableName)
		}
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("build stores: %v", err)
	}
	store := factory.SessionStore()

	if _, found, err := store.Get(ctx, "provision::session::credential"); err != nil || found {
		t.Fatalf("expected empty store, found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, "provision::session::credential", "sk-abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, found, err := store.Get(ctx, "provision::session::credential")
	if err != nil || !found || value != "sk-abc" {
		t.Fatalf("get after set: value=%q found=%v err=%v", value, found, err)
	}

	if err := store.Set(ctx, "provision::session::credential", "sk-replacement"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, err = store.Get(ctx, "provision::session::credential")
	if err != nil || value != "sk-replacement" {
		t.Fatalf("expected upsert to replace value, got %q err=%v", value, err)
	}

	if err := store.Delete(ctx, "provision::session::credential"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := store.Get(ctx, "provision::session::credential"); found {
		t.Fatalf("expected value removed after delete")
	}
}

func TestActivityStoreAppendAndList(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()
	ctx := context.Background()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("build stores: %v", err)
	}
	store := factory.ActivityStore()

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	inputs := []core.AppendActivityInput{
		{Operation: "create_from_token", Credential: "sk-a****mnop", Status: core.ActivityStatusSuccess, OccurredAt: base},
		{Operation: "topup", Credential: "sk-a****mnop", Status: core.ActivityStatusSuccess, Metadata: map[string]any{"credited_msats": 250000}, OccurredAt: base.Add(time.Minute)},
		{Operation: "topup", Credential: "sk-a****mnop", Status: core.ActivityStatusFailure, Error: "token already spent", OccurredAt: base.Add(2 * time.Minute)},
	}
	for _, input := range inputs {
		entry, err := store.Append(ctx, input)
		if err != nil {
			t.Fatalf("append %s: %v", input.Operation, err)
		}
		if entry.ID == "" {
			t.Fatalf("expected generated entry id")
		}
	}

	page, err := store.List(ctx, core.ActivityFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 3 {
		t.Fatalf("expected 3 entries, got total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].Operation != "topup" || page.Items[0].Status != core.ActivityStatusFailure {
		t.Fatalf("expected newest entry first, got %+v", page.Items[0])
	}

	failures, err := store.List(ctx, core.ActivityFilter{Operation: "topup", Status: core.ActivityStatusFailure})
	if err != nil {
		t.Fatalf("list failures: %v", err)
	}
	if failures.Total != 1 || failures.Items[0].Error != "token already spent" {
		t.Fatalf("unexpected filtered page %+v", failures)
	}

	paged, err := store.List(ctx, core.ActivityFilter{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(paged.Items) != 2 || !paged.HasNext {
		t.Fatalf("expected first page of 2 with next, got %+v", paged)
	}
}

func TestActivityStoreRequiresOperation(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("build stores: %v", err)
	}
	if _, err := factory.ActivityStore().Append(context.Background(), core.AppendActivityInput{}); err == nil {
		t.Fatalf("expected blank operation to fail")
	}
}
