package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/billing-console/internal/models"
)

func newMockRepo(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewAuditRepository(&PostgresDB{Conn: conn}), mock
}

func TestAuditRepository_Record(t *testing.T) {
	repo, mock := newMockRepo(t)
	occurred := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO console_events")).
		WithArgs("bill.created", int64(42), sql.NullInt64{Int64: 1, Valid: true},
			sql.NullInt64{Int64: 2, Valid: true}, sql.NullInt64{Int64: 3, Valid: true},
			sql.NullString{String: "req-1", Valid: true}, occurred).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	id, err := repo.Record(context.Background(), models.BillEvent{
		Type: models.BillCreatedEvent, BillID: 42, CustomerID: 1, ProductID: 2, Quantity: 3,
		RequestID: "req-1", OccurredAt: occurred,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_RecordDeleteEventStoresNulls(t *testing.T) {
	repo, mock := newMockRepo(t)
	occurred := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO console_events")).
		WithArgs("bill.deleted", int64(7), sql.NullInt64{}, sql.NullInt64{}, sql.NullInt64{},
			sql.NullString{}, occurred).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))

	_, err := repo.Record(context.Background(), models.BillEvent{
		Type: models.BillDeletedEvent, BillID: 7, OccurredAt: occurred,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_RecordError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO console_events")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Record(context.Background(), models.BillEvent{Type: models.BillDeletedEvent, BillID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert event")
}

func TestAuditRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	columns := []string{"id", "event_type", "bill_id", "customer_id", "product_id", "quantity",
		"request_id", "occurred_at", "recorded_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM console_events")).
		WithArgs(DefaultAuditLimit).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(2), "bill.deleted", int64(7), nil, nil, nil, nil, at, at).
			AddRow(int64(1), "bill.created", int64(7), int64(1), int64(2), int64(3), "req-1", at, at))

	records, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(2), records[0].ID)
	assert.Equal(t, "bill.deleted", records[0].Type)
	assert.Zero(t, records[0].CustomerID)
	assert.Equal(t, 3, records[1].Quantity)
	assert.Equal(t, "req-1", records[1].RequestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_ListCapsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM console_events")).
		WithArgs(MaxAuditLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	records, err := repo.List(context.Background(), 10_000)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestAuditRepository_EnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS console_events")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
