package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
)

type ledgerRepository struct {
	storage *Storage
}

func (r *ledgerRepository) FindEntry(ctx context.Context, userID, orderID int64) (*model.LedgerEntry, error) {
	const query = `SELECT id, user_id, order_id, points, earned_date, expiry_date, is_used
                   FROM reward_ledger_entries WHERE user_id=$1 AND order_id=$2`
	var e model.LedgerEntry
	err := r.storage.pool.QueryRow(ctx, query, userID, orderID).Scan(&e.ID, &e.UserID, &e.OrderID, &e.Points, &e.EarnedAt, &e.ExpiresAt, &e.IsUsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *ledgerRepository) InsertEntry(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	const query = `INSERT INTO reward_ledger_entries (user_id, order_id, points, earned_date, expiry_date)
                   VALUES ($1, $2, $3, $4, $5)
                   RETURNING id, is_used`
	err := r.storage.pool.QueryRow(ctx, query, entry.UserID, entry.OrderID, entry.Points, entry.EarnedAt, entry.ExpiresAt).Scan(&entry.ID, &entry.IsUsed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domainErrors.ErrLedgerWriteConflict
		}
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) SumAvailable(ctx context.Context, userID int64, asOf time.Time) (int64, error) {
	const query = `SELECT COALESCE(SUM(points), 0)
                   FROM reward_ledger_entries
                   WHERE user_id=$1 AND NOT is_used AND expiry_date > $2`
	var sum int64
	if err := r.storage.pool.QueryRow(ctx, query, userID, asOf).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	const query = `SELECT id, user_id, order_id, points, earned_date, expiry_date, is_used
                   FROM reward_ledger_entries WHERE user_id=$1 ORDER BY earned_date DESC, id DESC`
	rows, err := r.storage.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.OrderID, &e.Points, &e.EarnedAt, &e.ExpiresAt, &e.IsUsed); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ledgerRepository) Stats(ctx context.Context, asOf time.Time) (*model.LedgerStats, error) {
	const query = `SELECT COUNT(*),
                          COALESCE(SUM(points) FILTER (WHERE NOT is_used AND expiry_date > $1), 0),
                          COALESCE(SUM(points) FILTER (WHERE NOT is_used AND expiry_date <= $1), 0)
                   FROM reward_ledger_entries`
	var stats model.LedgerStats
	if err := r.storage.pool.QueryRow(ctx, query, asOf).Scan(&stats.Entries, &stats.OutstandingPoints, &stats.ExpiredPoints); err != nil {
		return nil, err
	}
	return &stats, nil
}
