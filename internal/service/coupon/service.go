package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hayase/internal/domain"
	"hayase/internal/logging"
	couponrepo "hayase/internal/repository/coupon"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrCouponExists = errors.New("coupon code already exists")
	// ErrLookupUnavailable means the breaker is open and the store was not asked.
	ErrLookupUnavailable = errors.New("coupon lookup unavailable")
)

// flightTimeout bounds a shared lookup, which outlives any single caller.
const flightTimeout = 5 * time.Second

type Service struct {
	repo          couponrepo.Repository
	logger        *zap.Logger
	now           func() time.Time
	flight        singleflight.Group
	flightTimeout time.Duration
	breaker       *gobreaker.CircuitBreaker[*domain.Coupon]
}

func New(repo couponrepo.Repository, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger).Named("coupon")
	st := gobreaker.Settings{
		Name:        "coupon-lookup",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var verr *domain.ValidationError
			return err == nil ||
				errors.Is(err, domain.ErrNotFound) ||
				errors.As(err, &verr) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &Service{
		repo:          repo,
		logger:        logger,
		now:           time.Now,
		flightTimeout: flightTimeout,
		breaker:       gobreaker.NewCircuitBreaker[*domain.Coupon](st),
	}
}

// FindByCode returns the coupon for code only if it can be redeemed now.
// Inactive, expired and exhausted coupons are reported as domain.ErrNotFound.
// Concurrent lookups of the same code share one store round trip. The shared
// call is detached from the caller that started it, so one shopper giving up
// does not fail the others waiting on the same code.
func (s *Service) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.CanonicalCouponCode(code)
	if code == "" {
		return nil, domain.ErrNotFound
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(code, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(flightCtx, s.flightTimeout)
		defer cancel()
		c, err := s.breaker.Execute(func() (*domain.Coupon, error) {
			return s.repo.FindByCode(lookupCtx, code)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
		}
		return c, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		c := *res.Val.(*domain.Coupon)
		if !c.Redeemable(s.now()) {
			return nil, domain.ErrNotFound
		}
		return &c, nil
	}
}

type CreateInput struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinOrderValue domain.Money    `json:"minOrderValue"`
	IsActive      *bool           `json:"isActive,omitempty"`
	MaxUses       *int            `json:"maxUses,omitempty"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Coupon, error) {
	code := domain.CanonicalCouponCode(in.Code)
	if code == "" {
		return nil, &domain.ValidationError{Field: "code", Message: "required"}
	}
	if strings.ContainsAny(code, " \t\n") {
		return nil, &domain.ValidationError{Field: "code", Message: "must not contain whitespace"}
	}
	dt, err := domain.ParseDiscountType(in.DiscountType)
	if err != nil {
		return nil, &domain.ValidationError{Field: "discountType", Message: "must be percent or fixed"}
	}
	if in.DiscountValue.IsNegative() {
		return nil, &domain.ValidationError{Field: "discountValue", Message: "must not be negative"}
	}
	if dt == domain.DiscountPercent && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &domain.ValidationError{Field: "discountValue", Message: "percentage cannot exceed 100"}
	}
	if in.MinOrderValue < 0 {
		return nil, &domain.ValidationError{Field: "minOrderValue", Message: "must not be negative"}
	}
	if in.MaxUses != nil && *in.MaxUses <= 0 {
		return nil, &domain.ValidationError{Field: "maxUses", Message: "must be positive"}
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	c, err := s.repo.Create(ctx, couponrepo.CreateInput{
		Code:          code,
		DiscountType:  dt,
		DiscountValue: in.DiscountValue,
		MinOrderValue: in.MinOrderValue,
		IsActive:      active,
		MaxUses:       in.MaxUses,
		ExpiresAt:     in.ExpiresAt,
	})
	if errors.Is(err, domain.ErrConflict) {
		return nil, ErrCouponExists
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("coupon created", zap.String("code", c.Code), zap.String("type", string(c.DiscountType)))
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
