package repository

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"autocheckout.service/internal/core/model"
)

// JournalRepository is the concrete implementation for a PostgreSQL database.
type JournalRepository struct {
	DB *sql.DB
}

// NewJournalRepository create new instance
func NewJournalRepository(db *sql.DB) Repository {
	return &JournalRepository{DB: db}
}

// RecordCheckout appends one closure to the journal. Several rows per
// (employee, date) are expected: immediate, cutoff and backfill closures are
// all journaled independently.
func (r *JournalRepository) RecordCheckout(ctx context.Context, entry model.JournalEntry) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", entry.EmployeeID))

	var id int64
	query := `INSERT INTO checkout_journal (employee_id, checkout_date, check_out_time, trigger_source, notify_status, notify_retry_count)
              VALUES ($1, $2, $3, $4, $5, 0) RETURNING id`

	err := r.DB.QueryRowContext(ctx, query,
		entry.EmployeeID, entry.Date, entry.CheckOutTime, entry.Trigger, model.StatusNotifyPending).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetEntry fetches a complete journal row by its ID.
func (r *JournalRepository) GetEntry(ctx context.Context, id int64) (*model.JournalEntry, error) {
	query := `SELECT id, employee_id, checkout_date, check_out_time, trigger_source, notify_status, notify_retry_count
	          FROM checkout_journal WHERE id = $1`

	entry := &model.JournalEntry{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.EmployeeID, &entry.Date, &entry.CheckOutTime,
		&entry.Trigger, &entry.NotifyStatus, &entry.NotifyRetryCount,
	)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateNotifyStatus updates the status and retry count for the employee
// notification of a journaled checkout.
func (r *JournalRepository) UpdateNotifyStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	query := `UPDATE checkout_journal
              SET notify_status = $1,
                  notify_retry_count = $2
              WHERE id = $3`

	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)

	return err
}

// ListForDate returns the journaled closures for one employee and date,
// newest first.
func (r *JournalRepository) ListForDate(ctx context.Context, employeeID, date string) ([]model.JournalEntry, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", employeeID))

	query := `SELECT id, employee_id, checkout_date, check_out_time, trigger_source, notify_status, notify_retry_count
	          FROM checkout_journal
	          WHERE employee_id = $1 AND checkout_date = $2
	          ORDER BY id DESC`

	rows, err := r.DB.QueryContext(ctx, query, employeeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Date, &e.CheckOutTime,
			&e.Trigger, &e.NotifyStatus, &e.NotifyRetryCount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
