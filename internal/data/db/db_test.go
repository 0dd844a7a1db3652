package db

import (
	"strings"
	"testing"

	"github.com/yungbote/saarthak-backend/internal/platform/logger"
)

func TestPostgresConnStringFromParts(t *testing.T) {
	got := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "saarthak",
		Password: "p@ss word",
		Name:     "site",
	}.ConnString()
	want := "postgres://saarthak:p%40ss%20word@db:5432/site?sslmode=disable"
	if got != want {
		t.Fatalf("ConnString: want=%q got=%q", want, got)
	}
}

func TestPostgresConnStringPrefersDSN(t *testing.T) {
	got := PostgresConfig{DSN: " postgres://x@y/z ", Host: "ignored"}.ConnString()
	if got != "postgres://x@y/z" {
		t.Fatalf("ConnString: got=%q", got)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	gdb, err := Open(logger.Nop(), Config{
		Driver:     DriverSQLite,
		SQLitePath: "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = Close(gdb) })

	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"users", "user_tokens", "videos", "posters", "contact_submissions"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("missing table %q", table)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(logger.Nop(), Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected error for mysql driver")
	}
}
