package concierge

import (
	"context"
	"fmt"

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
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("concierge_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, req domain.ConciergeRequest) (*domain.ConciergeRequest, error) {
	err := r.pool.QueryRow(ctx, `
INSERT INTO concierge_requests (name, email, character_name, budget, reference_image_url, status)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
RETURNING id::text, created_at
`, req.Name, req.Email, req.CharacterName, string(req.Budget), req.ReferenceImageURL, string(req.Status)).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		r.logger.Error("create", zap.String("character", req.CharacterName), zap.Error(err))
		return nil, fmt.Errorf("insert concierge request: %w", err)
	}
	return &req, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.ConciergeRequest, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, name, email, character_name, budget, COALESCE(reference_image_url, ''), status, created_at
FROM concierge_requests
ORDER BY created_at DESC, id
`)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	requests, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ConciergeRequest, error) {
		var (
			req            domain.ConciergeRequest
			budget, status string
		)
		err := row.Scan(&req.ID, &req.Name, &req.Email, &req.CharacterName, &budget, &req.ReferenceImageURL, &status, &req.CreatedAt)
		req.Budget = domain.Budget(budget)
		req.Status = domain.RequestStatus(status)
		return req, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan concierge requests: %w", err)
	}
	return requests, nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE concierge_requests SET status = $2 WHERE id::text = $1`, id, string(status))
	if err != nil {
		r.logger.Error("set status", zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
