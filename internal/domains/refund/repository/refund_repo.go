package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecommerce-backend/internal/domains/refund/model"
)

const pgUniqueViolation = "23505"

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// =====================================================
// REFUND REPOSITORY IMPLEMENTATION
// =====================================================
type refundRepository struct {
	pool *pgxpool.Pool
}

func NewRefundRepository(pool *pgxpool.Pool) RefundRepository {
	return &refundRepository{pool: pool}
}

const selectRefundColumns = `
	SELECT
		r.id, r.order_id, o.number, r.user_id, r.status,
		r.total_credit_excl_tax, r.currency, r.credit_reference,
		r.created_at, r.updated_at
	FROM refunds r
	JOIN orders o ON o.id = r.order_id
	WHERE r.id = $1
`

const selectRefundLineColumns = `
	SELECT
		rl.id, rl.refund_id, rl.order_line_id, ol.course_id,
		rl.quantity, rl.line_credit_excl_tax, rl.status,
		rl.created_at, rl.updated_at
	FROM refund_lines rl
	JOIN order_lines ol ON ol.id = rl.order_line_id
	WHERE rl.refund_id = $1
	ORDER BY ol.line_number ASC
`

// =====================================================
// TRANSACTION-AWARE METHODS
// =====================================================

func (r *refundRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error {
	query := `
		INSERT INTO refunds (
			id, order_id, user_id, status, total_credit_excl_tax,
			currency, credit_reference, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := tx.Exec(ctx, query,
		refund.ID,
		refund.OrderID,
		refund.UserID,
		refund.Status,
		refund.TotalCreditExclTax,
		refund.Currency,
		refund.CreditReference,
		refund.CreatedAt,
		refund.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	lineQuery := `
		INSERT INTO refund_lines (
			id, refund_id, order_line_id, quantity,
			line_credit_excl_tax, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	batch := &pgx.Batch{}
	for _, line := range refund.Lines {
		batch.Queue(lineQuery,
			line.ID,
			line.RefundID,
			line.OrderLineID,
			line.Quantity,
			line.LineCreditExclTax,
			line.Status,
			line.CreatedAt,
			line.UpdatedAt,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range refund.Lines {
		if _, err := results.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return model.NewLineAlreadyRefundedError(err)
			}
			return fmt.Errorf("failed to create refund line: %w", err)
		}
	}

	return nil
}

func (r *refundRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Refund, error) {
	return r.getRefund(ctx, tx, id, selectRefundColumns+` FOR UPDATE OF r`)
}

func (r *refundRepository) SaveStatusWithTx(ctx context.Context, tx pgx.Tx, refund *model.Refund) error {
	query := `
		UPDATE refunds
		SET status = $2,
			credit_reference = $3,
			updated_at = NOW()
		WHERE id = $1
		  AND (status <> $2 OR credit_reference IS DISTINCT FROM $3)
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query, refund.ID, refund.Status, refund.CreditReference).Scan(&refund.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to update refund status: %w", err)
	}

	lineQuery := `
		UPDATE refund_lines
		SET status = $2,
			updated_at = NOW()
		WHERE id = $1 AND status <> $2
		RETURNING updated_at
	`

	for _, line := range refund.Lines {
		err := tx.QueryRow(ctx, lineQuery, line.ID, line.Status).Scan(&line.UpdatedAt)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to update refund line status: %w", err)
		}
	}

	return nil
}

// =====================================================
// STANDALONE METHODS
// =====================================================

func (r *refundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Refund, error) {
	return r.getRefund(ctx, r.pool, id, selectRefundColumns)
}

func (r *refundRepository) ActiveRefundedLineIDs(ctx context.Context, orderLineIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	covered := make(map[uuid.UUID]struct{})
	if len(orderLineIDs) == 0 {
		return covered, nil
	}

	query := `
		SELECT order_line_id
		FROM refund_lines
		WHERE order_line_id = ANY($1)
		  AND status <> $2
	`

	rows, err := r.pool.Query(ctx, query, orderLineIDs, model.RefundLineStatusDenied)
	if err != nil {
		return nil, fmt.Errorf("failed to query refunded lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan refunded line: %w", err)
		}
		covered[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refunded lines: %w", err)
	}

	return covered, nil
}

// =====================================================
// HELPERS
// =====================================================

func (r *refundRepository) getRefund(ctx context.Context, q querier, id uuid.UUID, query string) (*model.Refund, error) {
	refund := &model.Refund{}

	err := q.QueryRow(ctx, query, id).Scan(
		&refund.ID,
		&refund.OrderID,
		&refund.OrderNumber,
		&refund.UserID,
		&refund.Status,
		&refund.TotalCreditExclTax,
		&refund.Currency,
		&refund.CreditReference,
		&refund.CreatedAt,
		&refund.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewRefundNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}

	rows, err := q.Query(ctx, selectRefundLineColumns, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get refund lines: %w", err)
	}
	defer rows.Close()

	refund.Lines = make([]*model.RefundLine, 0)
	for rows.Next() {
		line := &model.RefundLine{}
		if err := rows.Scan(
			&line.ID,
			&line.RefundID,
			&line.OrderLineID,
			&line.CourseID,
			&line.Quantity,
			&line.LineCreditExclTax,
			&line.Status,
			&line.CreatedAt,
			&line.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refund line: %w", err)
		}
		refund.Lines = append(refund.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refund lines: %w", err)
	}

	return refund, nil
}
