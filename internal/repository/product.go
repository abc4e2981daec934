package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"alkoteka/exporter/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository interface {
	SaveProducts(ctx context.Context, products []domain.Product) error
}

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepository{
		db: db,
	}
}

func (r *productRepository) SaveProducts(ctx context.Context, products []domain.Product) error {
	query := `
	INSERT INTO products (uuid, category, data)
	VALUES ($1, $2, $3)
	ON CONFLICT (uuid)
	DO UPDATE SET category = $2, data = $3`

	for i := range products {
		p := &products[i]

		categorySlug := ""
		if p.Category != nil {
			categorySlug = p.Category.Slug
		}

		// MarshalJSON hands back the raw API record, so the jsonb column
		// keeps the full pass-through payload.
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode product %s: %w", p.UUID, err)
		}

		if _, err := r.db.Exec(ctx, query, p.UUID, categorySlug, data); err != nil {
			return fmt.Errorf("failed to save product %s: %w", p.UUID, err)
		}
	}

	return nil
}
