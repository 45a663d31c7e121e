package rewards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines data access for authoritative reward balances.
type Repository interface {
	// AddPoints atomically adds delta to the user's balance, creating the
	// balance row when absent. The increment happens at the storage layer
	// so concurrent awards never lose updates.
	AddPoints(ctx context.Context, userID string, delta int64) error

	// GetBalance returns the user's point total and whether a balance
	// exists at all.
	GetBalance(ctx context.Context, userID string) (int64, bool, error)

	// ListBalances returns every balance joined with profile display
	// fields, for rebuilding the leaderboard projection.
	ListBalances(ctx context.Context) ([]LeaderboardEntry, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) AddPoints(ctx context.Context, userID string, delta int64) error {
	query := `
		INSERT INTO reward_balances (user_id, total_points, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = reward_balances.total_points + EXCLUDED.total_points,
			updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, userID, delta); err != nil {
		return fmt.Errorf("failed to add reward points: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetBalance(ctx context.Context, userID string) (int64, bool, error) {
	var points int64
	query := `SELECT total_points FROM reward_balances WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get reward balance: %w", err)
	}

	return points, true, nil
}

func (r *PostgresRepository) ListBalances(ctx context.Context) ([]LeaderboardEntry, error) {
	// user_profiles belongs to the profile service; this core only reads
	// display fields from it.
	query := `
		SELECT b.user_id, COALESCE(p.username, ''), COALESCE(p.profile_pic_url, ''), b.total_points
		FROM reward_balances b
		LEFT JOIN user_profiles p ON p.user_id = b.user_id
		ORDER BY b.total_points DESC, b.user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reward balances: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var entry LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.ProfilePicURL, &entry.Points); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read balance rows: %w", err)
	}

	return entries, nil
}
