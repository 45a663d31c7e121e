package footprint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines data access for the footprint core.
type Repository interface {
	// InsertActivity appends a record to the activity log. The log is
	// append-only; records are never updated or deleted.
	InsertActivity(ctx context.Context, record *ActivityRecord) error

	// AddToDailyAggregate atomically adds carbonKg to the (user, date)
	// aggregate, creating it when absent. Must be a storage-level atomic
	// increment so concurrent logs for the same key never lose updates.
	AddToDailyAggregate(ctx context.Context, userID, date string, carbonKg float64) error

	// GetDailyAggregates returns aggregates for the inclusive date range.
	// Days without logged activity are simply not returned.
	GetDailyAggregates(ctx context.Context, userID, startDate, endDate string) ([]*DailyAggregate, error)

	// Outbox for re-driving failed post-persist side effects.
	EnqueueOutbox(ctx context.Context, entry *OutboxEntry) error
	ListPendingOutbox(ctx context.Context, limit int) ([]*OutboxEntry, error)
	MarkOutboxDone(ctx context.Context, id uuid.UUID) error
	MarkOutboxFailed(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertActivity(ctx context.Context, record *ActivityRecord) error {
	detailJSON, err := json.Marshal(record.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal activity details: %w", err)
	}

	query := `
		INSERT INTO activity_logs (
			id, user_id, activity_date, activity_type, details,
			carbon_footprint, trip_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.UserID, record.Date, record.Category, detailJSON,
		record.CarbonKg, record.TripID, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity record: %w", err)
	}

	return nil
}

func (r *PostgresRepository) AddToDailyAggregate(ctx context.Context, userID, date string, carbonKg float64) error {
	// Increment happens inside the database so concurrent upserts for the
	// same (user, date) serialize on the row, not in application code.
	query := `
		INSERT INTO daily_footprints (user_id, footprint_date, total_footprint, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, footprint_date) DO UPDATE SET
			total_footprint = daily_footprints.total_footprint + EXCLUDED.total_footprint,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, date, carbonKg); err != nil {
		return fmt.Errorf("failed to update daily footprint: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetDailyAggregates(ctx context.Context, userID, startDate, endDate string) ([]*DailyAggregate, error) {
	query := `
		SELECT user_id, to_char(footprint_date, 'YYYY-MM-DD') AS footprint_date,
		       total_footprint, updated_at
		FROM daily_footprints
		WHERE user_id = $1 AND footprint_date BETWEEN $2 AND $3
		ORDER BY footprint_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily footprints: %w", err)
	}
	defer rows.Close()

	var aggregates []*DailyAggregate
	for rows.Next() {
		var agg DailyAggregate
		if err := rows.Scan(&agg.UserID, &agg.Date, &agg.TotalKg, &agg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily footprint row: %w", err)
		}
		aggregates = append(aggregates, &agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily footprint rows: %w", err)
	}

	return aggregates, nil
}

func (r *PostgresRepository) EnqueueOutbox(ctx context.Context, entry *OutboxEntry) error {
	query := `
		INSERT INTO footprint_outbox (
			id, activity_id, user_id, activity_date, carbon_footprint, kind, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.ActivityID, entry.UserID, entry.Date,
		entry.CarbonKg, entry.Kind, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListPendingOutbox(ctx context.Context, limit int) ([]*OutboxEntry, error) {
	query := `
		SELECT id, activity_id, user_id, to_char(activity_date, 'YYYY-MM-DD') AS activity_date,
		       carbon_footprint, kind, attempts, created_at
		FROM footprint_outbox
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var entries []*OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		err := rows.Scan(
			&entry.ID, &entry.ActivityID, &entry.UserID, &entry.Date,
			&entry.CarbonKg, &entry.Kind, &entry.Attempts, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read outbox rows: %w", err)
	}

	return entries, nil
}

func (r *PostgresRepository) MarkOutboxDone(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM footprint_outbox WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete outbox entry: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkOutboxFailed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE footprint_outbox SET attempts = attempts + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update outbox entry: %w", err)
	}
	return nil
}
