package coupon

import (
	"context"
	"errors"
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
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("coupon_repo")}
}

const couponColumns = `id::text, code, discount_type, discount_value::text, min_order_value_paise,
       is_active, max_uses, used_count, expires_at, created_at`

func (r *postgresRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons WHERE upper(code) = upper($1)`
	rec, err := scanRecord(r.pool.QueryRow(ctx, q, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c, err := domain.NewCoupon(rec)
	if err != nil {
		r.logger.Warn("malformed coupon row", zap.String("id", rec.ID), zap.Error(err))
		return nil, fmt.Errorf("coupon %s: %w", rec.ID, err)
	}
	return c, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC, code`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Coupon
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		c, err := domain.NewCoupon(rec)
		if err != nil {
			r.logger.Warn("skipping malformed coupon row", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, in CreateInput) (*domain.Coupon, error) {
	q := `
INSERT INTO coupons (code, discount_type, discount_value, min_order_value_paise, is_active, max_uses, expires_at)
VALUES ($1, $2, CAST($3 AS TEXT)::numeric, $4, $5, $6, $7)
RETURNING ` + couponColumns
	rec, err := scanRecord(r.pool.QueryRow(ctx, q,
		in.Code,
		string(in.DiscountType),
		in.DiscountValue.String(),
		int64(in.MinOrderValue),
		in.IsActive,
		in.MaxUses,
		in.ExpiresAt,
	))
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		r.logger.Error("create", zap.String("code", in.Code), zap.Error(err))
		return nil, err
	}
	return domain.NewCoupon(rec)
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE coupons SET is_active = $1 WHERE id::text = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id::text = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (domain.CouponRecord, error) {
	var (
		rec      domain.CouponRecord
		minOrder int64
	)
	err := row.Scan(&rec.ID, &rec.Code, &rec.DiscountType, &rec.DiscountValue, &minOrder,
		&rec.IsActive, &rec.MaxUses, &rec.UsedCount, &rec.ExpiresAt, &rec.CreatedAt)
	rec.MinOrderValue = domain.Money(minOrder)
	return rec, err
}
