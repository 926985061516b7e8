package coupon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hayase/internal/domain"
	couponrepo "hayase/internal/repository/coupon"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	mu        sync.Mutex
	coupon    *domain.Coupon
	findErr   error
	findCalls int
	block     chan struct{}
	lastCode  string

	created   couponrepo.CreateInput
	createErr error
}

func (s *stubRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	s.mu.Lock()
	s.findCalls++
	s.lastCode = code
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.findErr != nil {
		return nil, s.findErr
	}
	c := *s.coupon
	return &c, nil
}

func (s *stubRepo) List(context.Context) ([]domain.Coupon, error) {
	return []domain.Coupon{*s.coupon}, nil
}

func (s *stubRepo) Create(_ context.Context, in couponrepo.CreateInput) (*domain.Coupon, error) {
	s.created = in
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Coupon{ID: "c1", Code: in.Code, DiscountType: in.DiscountType, DiscountValue: in.DiscountValue, IsActive: in.IsActive}, nil
}

func (s *stubRepo) SetActive(context.Context, string, bool) error { return nil }
func (s *stubRepo) Delete(context.Context, string) error          { return nil }

func activeCoupon() *domain.Coupon {
	return &domain.Coupon{ID: "c1", Code: "SAVE10", DiscountType: domain.DiscountPercent, DiscountValue: decimal.NewFromInt(10), IsActive: true}
}

func TestFindByCode_CanonicalisesAndReturnsUsable(t *testing.T) {
	repo := &stubRepo{coupon: activeCoupon()}
	svc := New(repo, nil)

	got, err := svc.FindByCode(context.Background(), "  save10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", got.Code)
	assert.Equal(t, "SAVE10", repo.lastCode)
}

func TestFindByCode_EmptyCode(t *testing.T) {
	repo := &stubRepo{coupon: activeCoupon()}
	_, err := New(repo, nil).FindByCode(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, repo.findCalls)
}

func TestFindByCode_UnusableCouponsAreNotFound(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	one := 1

	inactive := activeCoupon()
	inactive.IsActive = false
	expired := activeCoupon()
	expired.ExpiresAt = &past
	exhausted := activeCoupon()
	exhausted.MaxUses = &one
	exhausted.UsedCount = 1

	for name, c := range map[string]*domain.Coupon{"inactive": inactive, "expired": expired, "exhausted": exhausted} {
		t.Run(name, func(t *testing.T) {
			svc := New(&stubRepo{coupon: c}, nil)
			svc.now = func() time.Time { return now }
			_, err := svc.FindByCode(context.Background(), "SAVE10")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestFindByCode_RespectsContextDeadline(t *testing.T) {
	repo := &stubRepo{coupon: activeCoupon(), block: make(chan struct{})}
	defer close(repo.block)
	svc := New(repo, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.FindByCode(ctx, "SAVE10")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFindByCode_CollapsesConcurrentLookups(t *testing.T) {
	repo := &stubRepo{coupon: activeCoupon(), block: make(chan struct{})}
	svc := New(repo, nil)

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.FindByCode(context.Background(), "SAVE10")
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(repo.block)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Less(t, repo.findCalls, callers)
}

func TestFindByCode_CancelledCallerDoesNotFailOthers(t *testing.T) {
	repo := &stubRepo{coupon: activeCoupon(), block: make(chan struct{})}
	svc := New(repo, nil)

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.FindByCode(first, "SAVE10")
		firstErr <- err
	}()
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.findCalls == 1
	}, time.Second, 5*time.Millisecond)

	type result struct {
		coupon *domain.Coupon
		err    error
	}
	second := make(chan result, 1)
	go func() {
		c, err := svc.FindByCode(context.Background(), "SAVE10")
		second <- result{c, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(repo.block)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "SAVE10", res.coupon.Code)
	assert.Equal(t, 1, repo.findCalls)
}

func TestFindByCode_FlightHasItsOwnDeadline(t *testing.T) {
	repo := &stubRepo{coupon: activeCoupon(), block: make(chan struct{})}
	defer close(repo.block)
	svc := New(repo, nil)
	svc.flightTimeout = 10 * time.Millisecond

	_, err := svc.FindByCode(context.Background(), "SAVE10")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFindByCode_AbandonedLookupsDoNotTripBreaker(t *testing.T) {
	repo := &stubRepo{coupon: activeCoupon(), block: make(chan struct{})}
	svc := New(repo, nil)
	svc.flightTimeout = 5 * time.Millisecond

	for i := 0; i < 8; i++ {
		_, err := svc.FindByCode(context.Background(), "SAVE10")
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
	close(repo.block)
	repo.mu.Lock()
	repo.block = nil
	repo.mu.Unlock()

	got, err := svc.FindByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", got.Code)
}

func TestFindByCode_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	repo := &stubRepo{findErr: errors.New("connection refused")}
	svc := New(repo, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.FindByCode(ctx, "SAVE10")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrLookupUnavailable)
	}
	_, err := svc.FindByCode(ctx, "SAVE10")
	assert.ErrorIs(t, err, ErrLookupUnavailable)
	assert.Equal(t, 5, repo.findCalls)
}

func TestFindByCode_NotFoundDoesNotTripBreaker(t *testing.T) {
	repo := &stubRepo{findErr: domain.ErrNotFound}
	svc := New(repo, nil)
	for i := 0; i < 10; i++ {
		_, err := svc.FindByCode(context.Background(), "MISSING")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, 10, repo.findCalls)
}

func TestCreate_Validation(t *testing.T) {
	zero := 0
	cases := map[string]CreateInput{
		"missing code":     {DiscountType: "fixed", DiscountValue: decimal.NewFromInt(1)},
		"spaces in code":   {Code: "SAVE 10", DiscountType: "fixed", DiscountValue: decimal.NewFromInt(1)},
		"unknown type":     {Code: "X", DiscountType: "bogo", DiscountValue: decimal.NewFromInt(1)},
		"negative value":   {Code: "X", DiscountType: "fixed", DiscountValue: decimal.NewFromInt(-1)},
		"percent over 100": {Code: "X", DiscountType: "percent", DiscountValue: decimal.NewFromInt(101)},
		"negative minimum": {Code: "X", DiscountType: "fixed", DiscountValue: decimal.NewFromInt(1), MinOrderValue: -1},
		"zero max uses":    {Code: "X", DiscountType: "fixed", DiscountValue: decimal.NewFromInt(1), MaxUses: &zero},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(&stubRepo{}, nil).Create(context.Background(), in)
			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
}

func TestCreate_NormalisesAndDefaultsActive(t *testing.T) {
	repo := &stubRepo{}
	c, err := New(repo, nil).Create(context.Background(), CreateInput{Code: " big500 ", DiscountType: "FIXED", DiscountValue: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.Equal(t, "BIG500", c.Code)
	assert.Equal(t, domain.DiscountFixed, repo.created.DiscountType)
	assert.True(t, repo.created.IsActive)
}

func TestCreate_Duplicate(t *testing.T) {
	repo := &stubRepo{createErr: domain.ErrConflict}
	_, err := New(repo, nil).Create(context.Background(), CreateInput{Code: "SAVE10", DiscountType: "percent", DiscountValue: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrCouponExists)
}
