package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hayase/internal/domain"
	"hayase/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product_repo")}
}

const productColumns = `id::text, name, COALESCE(description, ''), price_paise, stock, images,
       COALESCE(manufacturer, ''), COALESCE(scale, ''), COALESCE(condition, ''), COALESCE(category, ''),
       is_featured, created_at`

func (r *postgresRepo) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.FeaturedOnly {
		where = append(where, "is_featured")
	}
	if filter.InStockOnly {
		where = append(where, "stock > 0")
	}
	if filter.Search != "" {
		pattern := arg("%" + escapeLike(filter.Search) + "%")
		where = append(where, "(name ILIKE "+pattern+" OR description ILIKE "+pattern+" OR manufacturer ILIKE "+pattern+")")
	}
	if len(filter.Categories) > 0 {
		where = append(where, "category = ANY("+arg(filter.Categories)+")")
	}
	if filter.MinPrice != nil {
		where = append(where, "price_paise >= "+arg(int64(*filter.MinPrice)))
	}
	if filter.MaxPrice != nil {
		where = append(where, "price_paise <= "+arg(int64(*filter.MaxPrice)))
	}
	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list",
		zap.String("search", filter.Search),
		zap.Strings("categories", filter.Categories),
		zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM products WHERE COALESCE(category, '') <> '' ORDER BY category`)
	if err != nil {
		r.logger.Error("categories", zap.Error(err))
		return nil, err
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// escapeLike makes a shopper's search text match literally inside ILIKE.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id::text = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, name, description, price_paise, stock, images, manufacturer, scale, condition, category, is_featured)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_paise = EXCLUDED.price_paise,
    stock = EXCLUDED.stock,
    images = EXCLUDED.images,
    manufacturer = EXCLUDED.manufacturer,
    scale = EXCLUDED.scale,
    condition = EXCLUDED.condition,
    category = EXCLUDED.category,
    is_featured = EXCLUDED.is_featured
RETURNING id::text, created_at
`
	images := product.Images
	if images == nil {
		images = []string{}
	}
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Name,
		product.Description,
		int64(product.Price),
		product.Stock,
		images,
		product.Manufacturer,
		product.Scale,
		product.Condition,
		product.Category,
		product.IsFeatured,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("upsert", zap.String("name", product.Name), zap.Error(err))
		return nil, fmt.Errorf("upsert product %q: %w", product.Name, err)
	}
	res.Images = images
	r.logger.Info("upserted", zap.String("id", res.ID), zap.String("name", res.Name))
	return &res, nil
}

func (r *postgresRepo) UpdatePrice(ctx context.Context, id string, price domain.Money) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET price_paise = $1 WHERE id::text = $2`, int64(price), id)
	if err != nil {
		r.logger.Error("update price", zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Images,
		&p.Manufacturer, &p.Scale, &p.Condition, &p.Category, &p.IsFeatured, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Price = domain.Money(price)
	return &p, nil
}
