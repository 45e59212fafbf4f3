package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukaan-ai/orderdesk/internal/database"
	"github.com/dukaan-ai/orderdesk/internal/models"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

// ProductRepository handles read access to the product catalog
type ProductRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *database.Database, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves catalog products ordered by name
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	query := `
		SELECT id, name, price, in_stock, created_at, updated_at
		FROM products
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`

	var products []*models.Product
	err := r.db.DB.SelectContext(ctx, &products, query, limit, offset)

	if err != nil {
		r.logger.Error("Failed to list products", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return products, nil
}

// GetByID retrieves a product by its ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	query := `
		SELECT id, name, price, in_stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product models.Product
	err := r.db.DB.GetContext(ctx, &product, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get product by ID", "error", err, "productID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &product, nil
}
