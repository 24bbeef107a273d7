package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prudhivi99/billing-console/internal/models"
)

const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

const createAuditTable = `
	CREATE TABLE IF NOT EXISTS console_events (
		id          BIGSERIAL PRIMARY KEY,
		event_type  TEXT        NOT NULL,
		bill_id     BIGINT      NOT NULL,
		customer_id BIGINT,
		product_id  BIGINT,
		quantity    INTEGER,
		request_id  TEXT,
		occurred_at TIMESTAMPTZ NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// AuditRepository appends console bill events to console_events
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(database *PostgresDB) *AuditRepository {
	return &AuditRepository{db: database.Conn}
}

// EnsureSchema creates the events table when missing
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAuditTable); err != nil {
		return fmt.Errorf("failed to create console_events: %w", err)
	}
	return nil
}

func (r *AuditRepository) Record(ctx context.Context, event models.BillEvent) (int64, error) {
	query := `
		INSERT INTO console_events (event_type, bill_id, customer_id, product_id, quantity, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		event.Type,
		event.BillID,
		nullInt64(event.CustomerID),
		nullInt64(event.ProductID),
		nullInt64(int64(event.Quantity)),
		nullString(event.RequestID),
		event.OccurredAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

// List returns the most recent events first
func (r *AuditRepository) List(ctx context.Context, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}

	query := `
		SELECT id, event_type, bill_id, customer_id, product_id, quantity, request_id, occurred_at, recorded_at
		FROM console_events
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	records := []models.AuditRecord{}
	for rows.Next() {
		var (
			rec                             models.AuditRecord
			customerID, productID, quantity sql.NullInt64
			requestID                       sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.Type, &rec.BillID, &customerID, &productID, &quantity,
			&requestID, &rec.OccurredAt, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		rec.CustomerID = customerID.Int64
		rec.ProductID = productID.Int64
		rec.Quantity = int(quantity.Int64)
		rec.RequestID = requestID.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return records, nil
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
