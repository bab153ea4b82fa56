package persistence

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	t.Parallel()

	names, err := MigrationNames()
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("names = %v", names)
	}

	content, err := migrationFiles.ReadFile("migrations/001_init.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(content), "pair_key TEXT NOT NULL UNIQUE") {
		t.Fatal("matches table must enforce one match per pair")
	}
}

func TestRunMigrationsWithoutPoolIsNoop(t *testing.T) {
	t.Parallel()

	if err := RunMigrations(context.Background(), nil, zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestUnconfiguredClientsReportUnavailable(t *testing.T) {
	t.Parallel()

	var pg *Postgres
	if err := pg.Ping(context.Background()); err == nil {
		t.Fatal("nil postgres should not ping")
	}
	var rdb *Redis
	if err := rdb.Ping(context.Background()); err == nil {
		t.Fatal("nil redis should not ping")
	}
	pg.Close()
	rdb.Close()
}
