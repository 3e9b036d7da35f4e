package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records queries and plays back canned responses. Full query
// behavior is covered against a real database; these tests pin down the
// store's error mapping and SQL parameter wiring.
type fakeDB struct {
	execTag  pgconn.CommandTag
	execErr  error
	execSQL  string
	execArgs []any
	row      pgx.Row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...interface{}) pgx.Row {
	return f.row
}

type errRow struct{ err error }

func (r errRow) Scan(_ ...any) error { return r.err }

func TestGetMapsNoRowsToNotFound(t *testing.T) {
	s := New(&fakeDB{row: errRow{err: pgx.ErrNoRows}})

	_, err := s.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestGetWrapsOtherErrors(t *testing.T) {
	s := New(&fakeDB{row: errRow{err: errors.New("connection reset")}})

	_, err := s.Get(context.Background(), uuid.New())
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want wrapped scan error", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 0")}
	s := New(db)

	err := s.Delete(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteFound(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 1")}
	s := New(db)

	if err := s.Delete(context.Background(), uuid.New()); err != nil {
		t.Errorf("Delete() error = %v, want nil", err)
	}
}

func TestInsertParameterOrder(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	s := New(db)

	u := Upload{
		ID:       uuid.New(),
		FileName: "prices.csv",
		ByteSize: 128,
		Document: "header\nrow",
	}
	u.GroupCount = 3
	u.Stats.Variants = 7
	u.Stats.Truncated = true

	if err := s.Insert(context.Background(), u); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if len(db.execArgs) != 12 {
		t.Fatalf("got %d insert args, want 12", len(db.execArgs))
	}
	if db.execArgs[0] != u.ID || db.execArgs[1] != "prices.csv" {
		t.Errorf("id/file_name args out of order: %v", db.execArgs[:2])
	}
	if db.execArgs[3] != 3 || db.execArgs[4] != 7 {
		t.Errorf("group/variant counts out of order: %v", db.execArgs[3:5])
	}
	if db.execArgs[10] != true || db.execArgs[11] != "header\nrow" {
		t.Errorf("truncated/document args out of order: %v", db.execArgs[10:])
	}
}
