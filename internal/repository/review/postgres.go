package review

import (
	"context"
	"fmt"

	"hayase/internal/domain"
	"hayase/internal/logging"
	"hayase/internal/repository/pgerr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("review_repo")}
}

const reviewColumns = `r.id::text, r.product_id::text, COALESCE(p.name, ''), r.user_name, r.rating, r.comment, r.status, r.created_at`

func (r *postgresRepo) Create(ctx context.Context, rev domain.Review) (*domain.Review, error) {
	err := r.pool.QueryRow(ctx, `
INSERT INTO reviews (product_id, user_name, rating, comment, status)
VALUES ($1::uuid, $2, $3, $4, $5)
RETURNING id::text, created_at
`, rev.ProductID, rev.UserName, rev.Rating, rev.Comment, string(rev.Status)).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		if pgerr.IsMissingReference(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("create", zap.String("product_id", rev.ProductID), zap.Error(err))
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return &rev, nil
}

func (r *postgresRepo) ListForProduct(ctx context.Context, productID string, status domain.ReviewStatus) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+reviewColumns+`
FROM reviews r LEFT JOIN products p ON p.id = r.product_id
WHERE r.product_id::text = $1 AND r.status = $2
ORDER BY r.created_at DESC, r.id
`, productID, string(status))
	if err != nil {
		r.logger.Error("list for product", zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+reviewColumns+`
FROM reviews r LEFT JOIN products p ON p.id = r.product_id
ORDER BY (r.status = 'pending') DESC, r.created_at DESC, r.id
`)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) SetStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reviews SET status = $2 WHERE id::text = $1`, id, string(status))
	if err != nil {
		r.logger.Error("set status", zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]domain.Review, error) {
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Review, error) {
		var (
			rev    domain.Review
			status string
		)
		err := row.Scan(&rev.ID, &rev.ProductID, &rev.ProductName, &rev.UserName, &rev.Rating, &rev.Comment, &status, &rev.CreatedAt)
		rev.Status = domain.ReviewStatus(status)
		return rev, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan reviews: %w", err)
	}
	return reviews, nil
}
