package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/rewardengine/internal/domain/repository"
)

const uniqueViolation = "23505"

// pgxPool is the subset of *pgxpool.Pool used by the storage.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

var _ repository.Factory = (*Storage)(nil)

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Debug("reward schema ready")

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) Rules() repository.RuleRepository {
	return &ruleRepository{storage: s}
}

func (s *Storage) Ledger() repository.LedgerRepository {
	return &ledgerRepository{storage: s}
}

func (s *Storage) Jobs() repository.AccrualJobRepository {
	return &jobRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reward_rule_sets (
            id BIGSERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            priority INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS product_reward_rules (
            id BIGSERIAL PRIMARY KEY,
            rule_set_id BIGINT NOT NULL REFERENCES reward_rule_sets(id),
            product_id BIGINT,
            category_id BIGINT,
            is_percentage BOOLEAN NOT NULL DEFAULT FALSE,
            points_per_unit BIGINT NOT NULL DEFAULT 0 CHECK (points_per_unit >= 0),
            multiplier NUMERIC(12, 6) NOT NULL DEFAULT 0 CHECK (multiplier >= 0),
            min_quantity BIGINT NOT NULL DEFAULT 1 CHECK (min_quantity >= 1),
            CHECK ((product_id IS NULL) <> (category_id IS NULL))
        )`,
		`CREATE TABLE IF NOT EXISTS product_quantity_rules (
            id BIGSERIAL PRIMARY KEY,
            product_rule_id BIGINT NOT NULL REFERENCES product_reward_rules(id) ON DELETE CASCADE,
            min_quantity BIGINT NOT NULL CHECK (min_quantity >= 1),
            max_quantity BIGINT,
            bonus_points BIGINT NOT NULL DEFAULT 0,
            CHECK (max_quantity IS NULL OR max_quantity >= min_quantity)
        )`,
		`CREATE TABLE IF NOT EXISTS order_amount_reward_rules (
            id BIGSERIAL PRIMARY KEY,
            rule_set_id BIGINT NOT NULL REFERENCES reward_rule_sets(id),
            min_amount NUMERIC(14, 2) NOT NULL DEFAULT 0,
            max_amount NUMERIC(14, 2),
            is_percentage BOOLEAN NOT NULL DEFAULT FALSE,
            points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
            percentage NUMERIC(7, 4) NOT NULL DEFAULT 0 CHECK (percentage >= 0),
            CHECK (max_amount IS NULL OR max_amount >= min_amount)
        )`,
		`CREATE TABLE IF NOT EXISTS reward_ledger_entries (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL,
            order_id BIGINT NOT NULL,
            points BIGINT NOT NULL CHECK (points >= 0),
            earned_date TIMESTAMPTZ NOT NULL,
            expiry_date TIMESTAMPTZ NOT NULL,
            is_used BOOLEAN NOT NULL DEFAULT FALSE,
            UNIQUE (user_id, order_id)
        )`,
		`CREATE TABLE IF NOT EXISTS accrual_jobs (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL,
            order_id BIGINT NOT NULL,
            status TEXT NOT NULL,
            attempts INTEGER NOT NULL DEFAULT 0,
            last_error TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (user_id, order_id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_product_rules_product ON product_reward_rules(product_id) WHERE product_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_product_rules_category ON product_reward_rules(category_id) WHERE category_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_quantity_rules_rule ON product_quantity_rules(product_rule_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user ON reward_ledger_entries(user_id, earned_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_accrual_jobs_status ON accrual_jobs(status, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
