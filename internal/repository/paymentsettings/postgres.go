package paymentsettings

import (
	"context"
	"errors"

	"hayase/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const columns = `id::text, upi_id, COALESCE(qr_code_url, ''), account_name, is_active, updated_at`

func (r *postgresRepo) GetActive(ctx context.Context) (*domain.PaymentSettings, error) {
	return r.fetch(ctx, `SELECT `+columns+` FROM payment_settings WHERE is_active ORDER BY updated_at DESC LIMIT 1`)
}

func (r *postgresRepo) Latest(ctx context.Context) (*domain.PaymentSettings, error) {
	return r.fetch(ctx, `SELECT `+columns+` FROM payment_settings ORDER BY updated_at DESC LIMIT 1`)
}

func (r *postgresRepo) Upsert(ctx context.Context, s domain.PaymentSettings) (*domain.PaymentSettings, error) {
	const q = `
INSERT INTO payment_settings (id, upi_id, qr_code_url, account_name, is_active, updated_at)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, NULLIF($3, ''), $4, $5, NOW())
ON CONFLICT (id) DO UPDATE SET
    upi_id = EXCLUDED.upi_id,
    qr_code_url = EXCLUDED.qr_code_url,
    account_name = EXCLUDED.account_name,
    is_active = EXCLUDED.is_active,
    updated_at = NOW()
RETURNING ` + columns
	return scan(r.pool.QueryRow(ctx, q, s.ID, s.UPIID, s.QRCodeURL, s.AccountName, s.IsActive))
}

func (r *postgresRepo) fetch(ctx context.Context, q string) (*domain.PaymentSettings, error) {
	s, err := scan(r.pool.QueryRow(ctx, q))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func scan(row pgx.Row) (*domain.PaymentSettings, error) {
	var s domain.PaymentSettings
	if err := row.Scan(&s.ID, &s.UPIID, &s.QRCodeURL, &s.AccountName, &s.IsActive, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
