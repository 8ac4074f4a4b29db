package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*TranslationRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	repo := NewTranslationRepository(db)
	repo.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return repo, mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS translation_cache").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadReturnsPayloadsByLanguage(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"language", "payload"}).
		AddRow("es", []byte(`{"appName":"AgreeWise"}`)).
		AddRow("fr", []byte(`{"appName":"AgreeWise"}`))
	mock.ExpectQuery("SELECT language, payload").WithArgs("ui_strings").WillReturnRows(rows)

	got, err := repo.Load(context.Background(), "ui_strings")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || string(got["es"]) != `{"appName":"AgreeWise"}` {
		t.Fatalf("unexpected entries %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveUpserts(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO translation_cache").
		WithArgs("ui_strings", "es", `{"appName":"AgreeWise"}`, repo.now().UTC()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(context.Background(), "ui_strings", "es", json.RawMessage(`{"appName":"AgreeWise"}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveWrapsDriverError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO translation_cache").WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), "analysis", "de", json.RawMessage(`{}`))
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveRejectsInvalidPayload(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	if err := repo.Save(context.Background(), "analysis", "de", json.RawMessage(`{`)); err == nil {
		t.Fatalf("expected validation error")
	}
}
