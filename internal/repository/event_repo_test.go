package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"hubspace_bridge/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockEventRepo(t *testing.T) (*EventSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := NewEventSQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

func TestEventAppend_FillsDefaultsAndNormalizesType(t *testing.T) {
	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"COMMAND", "turned kitchen light on",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(testCtx(t), models.CommandEvent{
		// EventID empty -> repo generates; OccurredAt zero -> repo sets UTC now
		Type:        "  command ",
		Description: "turned kitchen light on",
		Metadata:    map[string]any{"device": "abc", "action": "on"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestEventAppend_DBError(t *testing.T) {
	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO command_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(testCtx(t), models.CommandEvent{
		Type:        "command",
		Description: "x",
	})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestEventList_MetadataParsing(t *testing.T) {
	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"device": "abc"})

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"}).
		AddRow("e1", now, "COMMAND", "on", string(js)).
		AddRow("e2", now.Add(time.Minute), "ERROR", "API call failed", nil)
	mock.ExpectQuery("SELECT id, occurred_at, type, message, meta FROM command_events").
		WillReturnRows(rows)

	events, err := repo.List(testCtx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	meta, ok := events[0].Metadata.(map[string]any)
	if !ok || meta["device"] != "abc" {
		t.Fatalf("unexpected metadata: %+v", events[0].Metadata)
	}
	if events[1].Metadata != nil {
		t.Fatalf("expected nil metadata, got %+v", events[1].Metadata)
	}
}

func TestEventList_AppliesFilters(t *testing.T) {
	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"id", "occurred_at", "type", "message", "meta"})
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, type, message, meta FROM command_events WHERE occurred_at >= ? AND occurred_at <= ? AND type = ? ORDER BY occurred_at ASC`)).
		WithArgs(from, to, "ERROR").
		WillReturnRows(rows)

	events, err := repo.List(testCtx(t), from, to, " error ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestEventList_QueryError(t *testing.T) {
	repo, mock, cleanup := newMockEventRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, occurred_at, type, message, meta FROM command_events").
		WillReturnError(sql.ErrConnDone)

	if _, err := repo.List(testCtx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected error")
	}
}
