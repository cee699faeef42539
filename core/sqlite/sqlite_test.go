package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/bibleref/core/errors"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" || info.DriverType == "" || info.Package == "" {
		t.Errorf("incomplete driver info: %+v", info)
	}
	if info.DriverName != DriverName() {
		t.Errorf("DriverName mismatch: info=%s, func=%s", info.DriverName, DriverName())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("IsCGO mismatch: info=%v, func=%v", info.IsCGO, IsCGO())
	}

	t.Logf("SQLite driver: %s (%s) from %s", info.DriverName, info.DriverType, info.Package)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO test (value) VALUES (?)`, "John 3:16"); err != nil {
		t.Fatalf("failed to insert: %v", err)
	}

	var value string
	if err := db.QueryRowContext(ctx, `SELECT value FROM test WHERE id = 1`).Scan(&value); err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if value != "John 3:16" {
		t.Errorf("value = %q, want %q", value, "John 3:16")
	}
}

func TestOpenMemorySharesOneDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Memory)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `CREATE TABLE t (x INTEGER)`); err != nil {
		t.Fatal(err)
	}
	// A second statement must see the table, which only holds when both
	// run on the same connection.
	if _, err := db.ExecContext(ctx, `INSERT INTO t VALUES (1)`); err != nil {
		t.Errorf("insert on pooled connection: %v", err)
	}
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing", "x.db"))
	if err == nil {
		t.Fatal("Open() in a missing directory succeeded")
	}
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) || ioErr.Operation != "open" {
		t.Errorf("error = %v, want IOError for open", err)
	}
}
