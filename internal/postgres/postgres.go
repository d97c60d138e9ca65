package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koyif/payouts/internal/domain"
	"github.com/koyif/payouts/pkg/logger"
)

const transactionRollbackError = "error rolling back transaction"

const payoutColumns = "id, amount, currency, recipient_details, status, description, created_at, updated_at"

const schema = `
CREATE TABLE IF NOT EXISTS payouts (
	id UUID PRIMARY KEY,
	amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
	currency VARCHAR(3) NOT NULL DEFAULT 'RUB',
	recipient_details JSONB NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS payouts_status_idx ON payouts (status);
CREATE INDEX IF NOT EXISTS payouts_created_at_idx ON payouts (created_at);
`

type Postgres struct {
	DB *sql.DB
}

func New(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}

func (p *Postgres) Bootstrap(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating payouts schema: %w", err)
	}

	return nil
}

func (p *Postgres) CreatePayout(ctx context.Context, payout *domain.Payout) error {
	err := p.DB.QueryRowContext(
		ctx,
		"INSERT INTO payouts (id, amount, currency, recipient_details, status, description) VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at",
		payout.ID, payout.Amount, payout.Currency, []byte(payout.RecipientDetails), payout.Status, payout.Description,
	).Scan(&payout.CreatedAt, &payout.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			logger.Log.Warn("payout already exists", logger.String("payout_id", payout.ID.String()))
			return domain.ErrPayoutExists
		}
		return fmt.Errorf("error creating payout: %w", err)
	}

	return nil
}

func (p *Postgres) Payout(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	row := p.DB.QueryRowContext(ctx, "SELECT "+payoutColumns+" FROM payouts WHERE id = $1", id)

	payout, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("error fetching payout: %w", err)
	}

	return payout, nil
}

func (p *Postgres) Payouts(ctx context.Context, limit, offset int) ([]domain.Payout, error) {
	rows, err := p.DB.QueryContext(
		ctx,
		"SELECT "+payoutColumns+" FROM payouts ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("error fetching payouts: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Log.Error("error closing rows", logger.Error(err))
		}
	}(rows)

	var payouts []domain.Payout
	for rows.Next() {
		payout, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning payout: %w", err)
		}
		payouts = append(payouts, *payout)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over payouts: %w", err)
	}

	return payouts, nil
}

func (p *Postgres) PayoutCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.DB.QueryRowContext(ctx, "SELECT count(*) FROM payouts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting payouts: %w", err)
	}

	return count, nil
}

// UpdatePayout applies external status/description edits. Status changes are
// checked against the transition table while the row is locked.
func (p *Postgres) UpdatePayout(ctx context.Context, id uuid.UUID, status *domain.Status, description *string) (*domain.Payout, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}

	var current domain.Status
	err = tx.QueryRowContext(ctx, "SELECT status FROM payouts WHERE id = $1 FOR UPDATE", id).Scan(&current)
	if err != nil {
		rollback(tx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("error fetching payout for update: %w", err)
	}

	if status != nil && *status != current && !current.CanTransitionTo(*status) {
		logger.Log.Warn(
			"status transition rejected",
			logger.String("payout_id", id.String()),
			logger.String("from", string(current)),
			logger.String("to", string(*status)),
		)
		rollback(tx)
		return nil, domain.ErrInvalidTransition
	}

	row := tx.QueryRowContext(
		ctx,
		"UPDATE payouts SET status = COALESCE($2, status), description = COALESCE($3, description), updated_at = clock_timestamp() WHERE id = $1 RETURNING "+payoutColumns,
		id, status, description,
	)

	payout, err := scanPayout(row)
	if err != nil {
		rollback(tx)
		return nil, fmt.Errorf("error updating payout: %w", err)
	}

	if err = tx.Commit(); err != nil {
		rollback(tx)
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return payout, nil
}

func (p *Postgres) DeletePayout(ctx context.Context, id uuid.UUID) error {
	result, err := p.DB.ExecContext(ctx, "DELETE FROM payouts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("error deleting payout: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected for delete: %w", err)
	}
	if affected == 0 {
		return domain.ErrPayoutNotFound
	}

	return nil
}

// MarkProcessing transitions a payout to processing only if it is currently
// admissible (pending or failed). The conditional update is what prevents two
// concurrent pipeline runs from both entering processing.
func (p *Postgres) MarkProcessing(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	return p.transition(ctx, id,
		"UPDATE payouts SET status = 'processing', updated_at = clock_timestamp() WHERE id = $1 AND status IN ('pending', 'failed') RETURNING "+payoutColumns)
}

func (p *Postgres) MarkCompleted(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	return p.transition(ctx, id,
		"UPDATE payouts SET status = 'completed', updated_at = clock_timestamp() WHERE id = $1 AND status = 'processing' RETURNING "+payoutColumns)
}

func (p *Postgres) MarkPending(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	return p.transition(ctx, id,
		"UPDATE payouts SET status = 'pending', updated_at = clock_timestamp() WHERE id = $1 AND status = 'failed' RETURNING "+payoutColumns)
}

func (p *Postgres) MarkCancelled(ctx context.Context, id uuid.UUID) (*domain.Payout, error) {
	return p.transition(ctx, id,
		"UPDATE payouts SET status = 'cancelled', updated_at = clock_timestamp() WHERE id = $1 AND status IN ('pending', 'processing') RETURNING "+payoutColumns)
}

// MarkFailed records the failure reason by appending it to the description,
// never overwriting what is already there.
func (p *Postgres) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	result, err := p.DB.ExecContext(
		ctx,
		`UPDATE payouts
		 SET status = 'failed',
		     description = CASE WHEN description = '' THEN $2 ELSE description || E'\n' || $2 END,
		     updated_at = clock_timestamp()
		 WHERE id = $1 AND status IN ('pending', 'processing')`,
		id, reason,
	)
	if err != nil {
		return fmt.Errorf("error marking payout failed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected for failure mark: %w", err)
	}
	if affected == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

func (p *Postgres) transition(ctx context.Context, id uuid.UUID, query string) (*domain.Payout, error) {
	row := p.DB.QueryRowContext(ctx, query, id)

	payout, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, fmt.Errorf("error transitioning payout status: %w", err)
	}

	return payout, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayout(row scanner) (*domain.Payout, error) {
	var payout domain.Payout
	var details []byte

	err := row.Scan(
		&payout.ID,
		&payout.Amount,
		&payout.Currency,
		&details,
		&payout.Status,
		&payout.Description,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	payout.RecipientDetails = details

	return &payout, nil
}

func rollback(tx *sql.Tx) {
	err := tx.Rollback()
	if err != nil {
		logger.Log.Error(transactionRollbackError, logger.Error(err))
	}
}
