package order

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
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("order_repo")}
}

// CreateOrder inserts the order for p.IdempotencyKey. A retry under the same
// key rewrites the existing row from p, so its totals always describe the
// lines written after it, and moves the coupon redemption if the code changed.
func (r *postgresRepo) CreateOrder(ctx context.Context, p domain.OrderPayload) (string, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var (
		orderID    string
		prevCoupon *string
	)
	err = tx.QueryRow(ctx, `SELECT id::text, coupon_code FROM orders WHERE idempotency_key = $1 FOR UPDATE`,
		p.IdempotencyKey).Scan(&orderID, &prevCoupon)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		orderID, err = insertOrder(ctx, tx, p)
		if err != nil {
			return "", fmt.Errorf("insert order: %w", err)
		}
		if err := adjustRedemption(ctx, tx, p.CouponCode, 1); err != nil {
			return "", fmt.Errorf("redeem coupon: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("lookup order by idempotency key: %w", err)
	default:
		if err := refreshOrder(ctx, tx, orderID, p); err != nil {
			return "", fmt.Errorf("refresh order: %w", err)
		}
		if !sameCoupon(prevCoupon, p.CouponCode) {
			if err := adjustRedemption(ctx, tx, prevCoupon, -1); err != nil {
				return "", fmt.Errorf("release coupon: %w", err)
			}
			if err := adjustRedemption(ctx, tx, p.CouponCode, 1); err != nil {
				return "", fmt.Errorf("redeem coupon: %w", err)
			}
		}
		r.logger.Info("order refreshed for idempotency key", zap.String("order_id", orderID))
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return orderID, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, p domain.OrderPayload) (string, error) {
	c := p.Customer
	var orderID string
	err := tx.QueryRow(ctx, `
INSERT INTO orders (
    idempotency_key, customer_name, customer_email, customer_phone,
    address_line1, address_line2, area, city, state, pincode, shipping_address,
    subtotal_paise, coupon_code, discount_paise, shipping_paise, total_paise,
    upi_transaction_id, status
)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
RETURNING id::text
`,
		p.IdempotencyKey, c.FullName, c.Email, c.Phone,
		c.AddressLine1, c.AddressLine2, c.Area, c.City, c.State, c.Pincode, c.AddressText(),
		int64(p.Subtotal), p.CouponCode, int64(p.Discount), int64(p.ShippingCost), int64(p.Total),
		p.PaymentReference, string(p.Status),
	).Scan(&orderID)
	return orderID, err
}

func refreshOrder(ctx context.Context, tx pgx.Tx, orderID string, p domain.OrderPayload) error {
	c := p.Customer
	_, err := tx.Exec(ctx, `
UPDATE orders SET
    customer_name = $2, customer_email = $3, customer_phone = $4,
    address_line1 = $5, address_line2 = NULLIF($6, ''), area = $7, city = $8, state = $9, pincode = $10,
    shipping_address = $11,
    subtotal_paise = $12, coupon_code = $13, discount_paise = $14, shipping_paise = $15, total_paise = $16,
    upi_transaction_id = $17
WHERE id::text = $1
`,
		orderID, c.FullName, c.Email, c.Phone,
		c.AddressLine1, c.AddressLine2, c.Area, c.City, c.State, c.Pincode, c.AddressText(),
		int64(p.Subtotal), p.CouponCode, int64(p.Discount), int64(p.ShippingCost), int64(p.Total),
		p.PaymentReference,
	)
	return err
}

func adjustRedemption(ctx context.Context, tx pgx.Tx, code *string, delta int) error {
	if code == nil {
		return nil
	}
	_, err := tx.Exec(ctx, `UPDATE coupons SET used_count = GREATEST(used_count + $2, 0) WHERE upper(code) = upper($1)`, *code, delta)
	return err
}

func sameCoupon(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

func (r *postgresRepo) CreateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1::uuid`, orderID); err != nil {
		return fmt.Errorf("clear order lines: %w", err)
	}
	for i, line := range lines {
		if _, err := tx.Exec(ctx, `
INSERT INTO order_items (order_id, position, product_id, product_name, quantity, unit_price_paise)
VALUES ($1::uuid, $2, $3, $4, $5, $6)
`, orderID, i, line.ProductID, line.Name, line.Quantity, int64(line.UnitPrice)); err != nil {
			return fmt.Errorf("insert order line %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) DeleteOrder(ctx context.Context, orderID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var couponCode *string
	err = tx.QueryRow(ctx, `DELETE FROM orders WHERE id::text = $1 RETURNING coupon_code`, orderID).Scan(&couponCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if err := adjustRedemption(ctx, tx, couponCode, -1); err != nil {
		return fmt.Errorf("release coupon: %w", err)
	}
	return tx.Commit(ctx)
}

const orderColumns = `id::text, customer_name, customer_email, customer_phone, address_line1,
       COALESCE(address_line2, ''), area, city, state, pincode, shipping_address,
       subtotal_paise, coupon_code, discount_paise, shipping_paise, total_paise,
       upi_transaction_id, status, created_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	return result, rows.Err()
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
SELECT product_id, product_name, quantity, unit_price_paise
FROM order_items
WHERE order_id = $1::uuid
ORDER BY position ASC
`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	o.Lines = []domain.OrderLine{}
	for rows.Next() {
		var (
			line  domain.OrderLine
			price int64
		)
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Quantity, &price); err != nil {
			return nil, err
		}
		line.UnitPrice = domain.Money(price)
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE id::text = $2 AND status = $3`, string(to), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id::text = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                                   domain.Order
		subtotal, discount, shipping, total int64
		status                              string
	)
	c := &o.Customer
	if err := row.Scan(&o.ID, &c.FullName, &c.Email, &c.Phone, &c.AddressLine1,
		&c.AddressLine2, &c.Area, &c.City, &c.State, &c.Pincode, &o.ShippingAddress,
		&subtotal, &o.CouponCode, &discount, &shipping, &total,
		&o.PaymentReference, &status, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Subtotal = domain.Money(subtotal)
	o.Discount = domain.Money(discount)
	o.ShippingCost = domain.Money(shipping)
	o.Total = domain.Money(total)
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
