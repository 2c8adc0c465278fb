package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
)

type jobRepository struct {
	storage *Storage
}

const jobColumns = `id, user_id, order_id, status, attempts, last_error, created_at, updated_at`

func scanJob(row pgx.Row, job *model.AccrualJob) error {
	return row.Scan(&job.ID, &job.UserID, &job.OrderID, &job.Status, &job.Attempts, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
}

func (r *jobRepository) Enqueue(ctx context.Context, userID, orderID int64) (*model.AccrualJob, bool, error) {
	const query = `INSERT INTO accrual_jobs (user_id, order_id, status) VALUES ($1, $2, $3)
                   ON CONFLICT (user_id, order_id) DO NOTHING
                   RETURNING ` + jobColumns
	var job model.AccrualJob
	err := scanJob(r.storage.pool.QueryRow(ctx, query, userID, orderID, model.AccrualJobPending), &job)
	if err == nil {
		return &job, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	existing, err := r.getByOrder(ctx, userID, orderID)
	if err != nil {
		return nil, false, err
	}
	if existing.Status != model.AccrualJobFailed {
		return existing, false, nil
	}

	// A given up job is revived by a fresh failure of the same order.
	const revive = `UPDATE accrual_jobs SET status=$1, attempts=0, last_error='', updated_at=NOW() WHERE id=$2`
	if _, err := r.storage.pool.Exec(ctx, revive, model.AccrualJobPending, existing.ID); err != nil {
		return nil, false, err
	}
	existing.Status = model.AccrualJobPending
	existing.Attempts = 0
	existing.LastError = ""
	return existing, true, nil
}

func (r *jobRepository) getByOrder(ctx context.Context, userID, orderID int64) (*model.AccrualJob, error) {
	const query = `SELECT ` + jobColumns + ` FROM accrual_jobs WHERE user_id=$1 AND order_id=$2`
	var job model.AccrualJob
	if err := scanJob(r.storage.pool.QueryRow(ctx, query, userID, orderID), &job); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// SelectBatchForProcessing claims pending jobs and jobs stuck in processing.
func (r *jobRepository) SelectBatchForProcessing(ctx context.Context, limit, maxAttempts int) ([]model.AccrualJob, error) {
	const selectQuery = `SELECT ` + jobColumns + `
                         FROM accrual_jobs
                         WHERE (status = 'PENDING' OR (status = 'PROCESSING' AND updated_at < NOW() - INTERVAL '5 minutes'))
                           AND attempts < $2
                         ORDER BY created_at
                         LIMIT $1
                         FOR UPDATE SKIP LOCKED`
	const claimQuery = `UPDATE accrual_jobs SET status='PROCESSING', updated_at=NOW() WHERE id = ANY($1)`

	var jobs []model.AccrualJob
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectQuery, limit, maxAttempts)
		if err != nil {
			return err
		}
		for rows.Next() {
			var job model.AccrualJob
			if err := scanJob(rows, &job); err != nil {
				rows.Close()
				return err
			}
			job.Status = model.AccrualJobProcessing
			jobs = append(jobs, job)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]int64, len(jobs))
		for i, job := range jobs {
			ids[i] = job.ID
		}
		_, err = tx.Exec(ctx, claimQuery, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) Complete(ctx context.Context, jobID int64) error {
	const query = `UPDATE accrual_jobs SET status='DONE', last_error='', updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *jobRepository) Fail(ctx context.Context, jobID int64, reason string, maxAttempts int) error {
	const query = `UPDATE accrual_jobs
                   SET attempts = attempts + 1,
                       last_error = $2,
                       status = CASE WHEN attempts + 1 >= $3 THEN 'FAILED' ELSE 'PENDING' END,
                       updated_at = NOW()
                   WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, jobID, reason, maxAttempts)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *jobRepository) Release(ctx context.Context, jobID int64, reason string) error {
	const query = `UPDATE accrual_jobs SET status='PENDING', last_error=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, jobID, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
