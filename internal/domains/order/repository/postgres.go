package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ecommerce-backend/internal/domains/order/model"
)

type postgresOrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) Repository {
	return &postgresOrderRepository{pool: pool}
}

const selectOrderColumns = `
	SELECT
		id, number, user_id, site_id, status, currency,
		total_excl_tax, payment_processor, payment_reference, date_placed
	FROM orders
`

const selectLineColumns = `
	SELECT
		id, order_id, product_title, course_id, quantity,
		line_price_excl_tax, status
	FROM order_lines
`

// =====================================================
// READ OPERATIONS
// =====================================================

func (r *postgresOrderRepository) ListByUserWithLines(ctx context.Context, userID uuid.UUID) ([]*model.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderColumns+`
		WHERE user_id = $1
		ORDER BY date_placed ASC, number ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*model.Order, 0)
	byID := make(map[uuid.UUID]*model.Order)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	if len(ids) == 0 {
		return orders, nil
	}

	lines, err := r.listLines(ctx, `WHERE order_id = ANY($1) ORDER BY order_id, line_number ASC`, ids)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if order, ok := byID[line.OrderID]; ok {
			order.Lines = append(order.Lines, line)
		}
	}

	return orders, nil
}

func (r *postgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, selectOrderColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	order.Lines, err = r.listLines(ctx, `WHERE order_id = $1 ORDER BY line_number ASC`, id)
	if err != nil {
		return nil, err
	}

	return order, nil
}

// =====================================================
// HELPERS
// =====================================================

func (r *postgresOrderRepository) listLines(ctx context.Context, where string, args ...interface{}) ([]*model.Line, error) {
	rows, err := r.pool.Query(ctx, selectLineColumns+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]*model.Line, 0)
	for rows.Next() {
		var line model.Line
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductTitle,
			&line.CourseID,
			&line.Quantity,
			&line.LinePriceExclTax,
			&line.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, &line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines: %w", err)
	}

	return lines, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.UserID,
		&order.SiteID,
		&order.Status,
		&order.Currency,
		&order.TotalExclTax,
		&order.PaymentProcessor,
		&order.PaymentReference,
		&order.DatePlaced,
	)
	if err != nil {
		return nil, err
	}
	order.Lines = make([]*model.Line, 0)
	return &order, nil
}
