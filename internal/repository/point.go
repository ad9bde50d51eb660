package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marry-fun-bot/internal/model"
)

// PointRepository handles the point ledger and balances.
type PointRepository struct {
	pool *pgxpool.Pool
}

// NewPointRepository creates a new PointRepository instance.
func NewPointRepository(pool *pgxpool.Pool) *PointRepository {
	return &PointRepository{pool: pool}
}

// AddPoints records a ledger entry and moves the user's balance in one
// transaction. When idempotencyKey was already used nothing changes and
// applied is false. balance is the user's balance after the call.
func (r *PointRepository) AddPoints(ctx context.Context, userID, amount int64, reason string, idempotencyKey *string) (applied bool, balance int64, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertQuery = `
		INSERT INTO point_transactions (user_id, amount, reason, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, insertQuery, userID, amount, reason, idempotencyKey).Scan(&id)
	switch {
	case err == nil:
		applied = true
	case errors.Is(err, pgx.ErrNoRows):
		applied = false
	case pgErrorCode(err) == pgForeignKeyViolation:
		return false, 0, ErrUserNotFound
	default:
		return false, 0, fmt.Errorf("failed to record point transaction: %w", err)
	}

	if applied {
		const updateQuery = `
			UPDATE users
			SET points = points + $2, updated_at = NOW()
			WHERE telegram_id = $1
			RETURNING points
		`
		err = tx.QueryRow(ctx, updateQuery, userID, amount).Scan(&balance)
	} else {
		err = tx.QueryRow(ctx, `SELECT points FROM users WHERE telegram_id = $1`, userID).Scan(&balance)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, ErrUserNotFound
		}
		return false, 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to commit points: %w", err)
	}
	return applied, balance, nil
}

// GetBalance returns the user's current point balance.
func (r *PointRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT points FROM users WHERE telegram_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// GetRecentTransactions returns the user's newest ledger entries first.
func (r *PointRepository) GetRecentTransactions(ctx context.Context, userID int64, limit int) ([]*model.PointTransaction, error) {
	const query = `
		SELECT id, user_id, amount, reason, idempotency_key, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.PointTransaction
	for rows.Next() {
		var tx model.PointTransaction
		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Amount,
			&tx.Reason,
			&tx.IdempotencyKey,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// GetTotalLeaderboard ranks users with a positive balance.
func (r *PointRepository) GetTotalLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT telegram_id, username, points
		FROM users
		WHERE points > 0
		ORDER BY points DESC, telegram_id ASC
		LIMIT $1
	`
	return r.queryLeaderboard(ctx, "total", query, limit)
}

// GetDailyLeaderboard ranks users by points earned in [start, end).
func (r *PointRepository) GetDailyLeaderboard(ctx context.Context, start, end time.Time, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT t.user_id, u.username, SUM(t.amount) AS points
		FROM point_transactions t
		JOIN users u ON t.user_id = u.telegram_id
		WHERE t.created_at >= $2
		  AND t.created_at < $3
		GROUP BY t.user_id, u.username
		HAVING SUM(t.amount) > 0
		ORDER BY points DESC, t.user_id ASC
		LIMIT $1
	`
	return r.queryLeaderboard(ctx, "daily", query, limit, start, end)
}

func (r *PointRepository) queryLeaderboard(ctx context.Context, name, query string, limit int, args ...any) ([]*model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx, query, append([]any{limit}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s leaderboard: %w", name, err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points); err != nil {
			return nil, fmt.Errorf("failed to scan %s leaderboard: %w", name, err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s leaderboard: %w", name, err)
	}

	return entries, nil
}
