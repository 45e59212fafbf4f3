package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/dukaan-ai/orderdesk/internal/database"
	"github.com/dukaan-ai/orderdesk/internal/models"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
	// ErrStatusConflict means the order's status changed between read and
	// write, so the conditional update matched no row.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// BeginTx starts a database transaction
func (r *OrderRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.DB.BeginTxx(ctx, nil)

	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return tx, nil
}

// CreateInTx inserts a new order within a transaction
func (r *OrderRepository) CreateInTx(tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (id, customer_name, total, status, payment_method, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(
		query,
		order.ID,
		order.CustomerName,
		order.Total,
		order.Status,
		order.PaymentMethod,
		[]byte(order.Items),
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT id, customer_name, total, status, payment_method, items, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// List retrieves orders newest first, optionally filtered by status
func (r *OrderRepository) List(ctx context.Context, status models.OrderStatus, limit, offset int) ([]*models.Order, error) {
	var orders []*models.Order
	var err error

	if status != "" {
		query := `
			SELECT id, customer_name, total, status, payment_method, items, created_at, updated_at
			FROM orders
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		err = r.db.DB.SelectContext(ctx, &orders, query, status, limit, offset)
	} else {
		query := `
			SELECT id, customer_name, total, status, payment_method, items, created_at, updated_at
			FROM orders
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		err = r.db.DB.SelectContext(ctx, &orders, query, limit, offset)
	}

	if err != nil {
		r.logger.Error("Failed to list orders", "error", err, "status", status)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// UpdateStatusInTx updates an order's status within a transaction. The write
// is conditional on the status the caller validated against, so two racing
// terminal actions cannot both land: the loser matches no row and gets
// ErrStatusConflict back.
func (r *OrderRepository) UpdateStatusInTx(tx *sqlx.Tx, order *models.Order, oldStatus models.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := tx.Exec(query, order.Status, models.GetCurrentTime(), order.ID, oldStatus)

	if err != nil {
		r.logger.Error("Failed to update order status", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// Count counts the total number of orders
func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders`

	err := r.db.DB.GetContext(ctx, &count, query)

	if err != nil {
		r.logger.Error("Failed to count orders", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return count, nil
}
