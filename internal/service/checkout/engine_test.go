package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hayase/internal/domain"
	"hayase/internal/events"
	cartrepo "hayase/internal/repository/cart"
	cartsvc "hayase/internal/service/cart"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCoupons struct {
	coupons map[string]*domain.Coupon
	err     error
	block   chan struct{}
}

func (s *stubCoupons) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.coupons[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

type stubOrders struct {
	mu        sync.Mutex
	createErr error
	linesErr  error
	deleteErr error
	block     chan struct{}

	payloads []domain.OrderPayload
	lines    map[string][]domain.OrderLine
	deleted  []string
}

func (s *stubOrders) CreateOrder(_ context.Context, p domain.OrderPayload) (string, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.payloads = append(s.payloads, p)
	return "order-" + p.IdempotencyKey, nil
}

func (s *stubOrders) CreateOrderLines(_ context.Context, id string, lines []domain.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linesErr != nil {
		return s.linesErr
	}
	if s.lines == nil {
		s.lines = make(map[string][]domain.OrderLine)
	}
	s.lines[id] = lines
	return nil
}

func (s *stubOrders) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

var (
	figure  = domain.Product{ID: "p1", Name: "Scale Figure Asuka", Price: 120000, Stock: 5}
	keyring = domain.Product{ID: "p2", Name: "Acrylic Keyring", Price: 50000, Stock: 5}
	small   = domain.Product{ID: "p3", Name: "Sticker Pack", Price: 30000, Stock: 5}
)

func testCoupons() *stubCoupons {
	return &stubCoupons{coupons: map[string]*domain.Coupon{
		"SAVE10":  {Code: "SAVE10", DiscountType: domain.DiscountPercent, DiscountValue: decimal.NewFromInt(10), IsActive: true},
		"BIG500":  {Code: "BIG500", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(500), IsActive: true},
		"MIN1000": {Code: "MIN1000", DiscountType: domain.DiscountFixed, DiscountValue: decimal.NewFromInt(100), MinOrderValue: 100000, IsActive: true},
	}}
}

func validShipping() domain.ShippingInfo {
	return domain.ShippingInfo{
		FullName:     "Meera Iyer",
		Email:        "meera@example.com",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		Area:         "Indiranagar",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560038",
	}
}

type fixture struct {
	cart      *cartsvc.Store
	snapshots cartrepo.SnapshotStore
	coupons   *stubCoupons
	orders    *stubOrders
	publisher *recordingPublisher
	engine    *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		snapshots: cartrepo.NewMemory(),
		coupons:   testCoupons(),
		orders:    &stubOrders{},
		publisher: &recordingPublisher{},
	}
	f.cart = cartsvc.NewStore(cartrepo.Key("s1"), f.snapshots, nil)
	f.cart.Load(context.Background())
	keys := 0
	f.engine = NewEngine(f.cart, f.coupons, f.orders, f.publisher, nil, Options{
		ShippingCost: 0,
		NewKey: func() string {
			keys++
			return fmt.Sprintf("key-%d", keys)
		},
	})
	return f
}

func (f *fixture) readyToPay(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.ValidateShippingInfo(validShipping()))
}

func TestApplyCoupon_PercentOnTwoFigures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 2)

	got, err := f.engine.ApplyCoupon(ctx, "save10", f.cart.Subtotal())
	require.NoError(t, err)
	assert.Equal(t, domain.Money(240000), got.Subtotal)
	assert.Equal(t, domain.Money(24000), got.Discount)
	assert.Equal(t, domain.Money(216000), got.FinalTotal)
	assert.Equal(t, "SAVE10", got.Code)
}

func TestApplyCoupon_FixedClampedToSubtotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, keyring, 1)

	got, err := f.engine.ApplyCoupon(ctx, "BIG500", f.cart.Subtotal())
	require.NoError(t, err)
	assert.Equal(t, domain.Money(50000), got.Discount)
	assert.Equal(t, domain.Money(0), got.FinalTotal)
}

func TestApplyCoupon_BelowMinimum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, small, 1)

	_, err := f.engine.ApplyCoupon(ctx, "MIN1000", f.cart.Subtotal())
	require.ErrorIs(t, err, domain.ErrMinimumOrderNotMet)
	var minErr *domain.MinimumOrderError
	require.True(t, errors.As(err, &minErr))
	assert.Equal(t, domain.Money(100000), minErr.Threshold)

	sum := f.engine.Summary()
	assert.Nil(t, sum.Discount)
	assert.Equal(t, domain.Money(30000), sum.Subtotal)
	assert.Equal(t, domain.Money(30000), sum.Total)
	assert.Len(t, f.cart.Snapshot().Items, 1)
}

func TestApplyCoupon_FailuresAreCouponNotFound(t *testing.T) {
	cases := map[string]*stubCoupons{
		"missing":       testCoupons(),
		"backend error": {err: errors.New("connection reset")},
		"malformed row": {err: &domain.ValidationError{Field: "discountType", Message: "unknown"}},
	}
	for name, coupons := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.engine.coupons = coupons
			_, err := f.engine.ApplyCoupon(context.Background(), "NOPE", 100000)
			assert.ErrorIs(t, err, domain.ErrCouponNotFound)
		})
	}
}

func TestApplyCoupon_BlankCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ApplyCoupon(context.Background(), "   ", 100000)
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)
}

func TestApplyCoupon_LookupTimeout(t *testing.T) {
	f := newFixture(t)
	f.coupons.block = make(chan struct{})
	defer close(f.coupons.block)
	f.engine.opts.CouponTimeout = 20 * time.Millisecond

	_, err := f.engine.ApplyCoupon(context.Background(), "SAVE10", 100000)
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)
}

func TestApplyCoupon_ReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)

	_, err := f.engine.ApplyCoupon(ctx, "SAVE10", f.cart.Subtotal())
	require.NoError(t, err)
	_, err = f.engine.ApplyCoupon(ctx, "BIG500", f.cart.Subtotal())
	require.NoError(t, err)

	sum := f.engine.Summary()
	require.NotNil(t, sum.Discount)
	assert.Equal(t, "BIG500", sum.Discount.Code)
	assert.Equal(t, domain.Money(70000), sum.Total)

	f.engine.RemoveCoupon()
	assert.Nil(t, f.engine.Summary().Discount)
}

func TestSummary_RepricesWhenCartChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)
	_, err := f.engine.ApplyCoupon(ctx, "SAVE10", f.cart.Subtotal())
	require.NoError(t, err)

	f.cart.UpdateQuantity(ctx, figure.ID, 2)
	sum := f.engine.Summary()
	require.NotNil(t, sum.Discount)
	assert.Equal(t, domain.Money(24000), sum.Discount.Discount)
	assert.Equal(t, domain.Money(216000), sum.Total)
}

func TestValidateShippingInfo(t *testing.T) {
	f := newFixture(t)

	bad := validShipping()
	bad.Pincode = "5600"
	err := f.engine.ValidateShippingInfo(bad)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "pincode", verr.Field)
	assert.Equal(t, StateCollectingShippingInfo, f.engine.State())

	form := validShipping()
	form.City = "  Bengaluru "
	require.NoError(t, f.engine.ValidateShippingInfo(form))
	assert.Equal(t, StateAwaitingPaymentConfirmation, f.engine.State())
	assert.Equal(t, "Bengaluru", f.engine.Summary().Shipping.City)
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 2)
	_, err := f.engine.ApplyCoupon(ctx, "SAVE10", f.cart.Subtotal())
	require.NoError(t, err)
	f.readyToPay(t)

	placed, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: " 412345678901 "})
	require.NoError(t, err)

	assert.Equal(t, "order-key-1", placed.OrderID)
	assert.Equal(t, "412345678901", placed.Payload.PaymentReference)
	assert.Equal(t, domain.Money(240000), placed.Payload.Subtotal)
	assert.Equal(t, domain.Money(24000), placed.Payload.Discount)
	assert.Equal(t, domain.Money(216000), placed.Payload.Total)
	require.NotNil(t, placed.Payload.CouponCode)
	assert.Equal(t, "SAVE10", *placed.Payload.CouponCode)
	assert.Equal(t, domain.OrderPendingVerification, placed.Payload.Status)
	assert.Len(t, f.orders.lines["order-key-1"], 1)

	assert.Equal(t, StateSubmitted, f.engine.State())
	assert.True(t, f.cart.Snapshot().IsEmpty())
	persisted, err := f.snapshots.Load(ctx, cartrepo.Key("s1"))
	require.NoError(t, err)
	assert.True(t, persisted.IsEmpty())

	assert.True(t, f.cart.ClearCart(ctx).IsEmpty())
	assert.Nil(t, f.engine.Summary().Discount)
	assert.Equal(t, "order-key-1", f.engine.Summary().LastOrderID)
	assert.Equal(t, "key-2", f.engine.key)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeOrderPlaced, f.publisher.events[0].Type)
	assert.Equal(t, "order-key-1", f.publisher.events[0].OrderID)
}

func TestPlaceOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.err = errors.New("broker unavailable")
	f.cart.AddItem(ctx, figure, 1)
	f.readyToPay(t)

	_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, f.engine.State())
}

func TestPlaceOrder_LineWriteFailureKeepsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)
	f.readyToPay(t)
	f.orders.linesErr = errors.New("insert order_items: connection reset")

	_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
	require.ErrorIs(t, err, domain.ErrOrderSubmissionFailed)
	var subErr *domain.OrderSubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "lines", subErr.Stage)
	assert.NotContains(t, err.Error(), "connection reset")

	assert.Equal(t, StateAwaitingPaymentConfirmation, f.engine.State())
	assert.Len(t, f.cart.Snapshot().Items, 1)
	assert.Equal(t, []string{"order-key-1"}, f.orders.deleted)
	assert.Empty(t, f.publisher.events)

	f.orders.linesErr = nil
	placed, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
	require.NoError(t, err)
	assert.Equal(t, "order-key-1", placed.OrderID, "retry reuses the idempotency key")
}

func TestPlaceOrder_OrderWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)
	f.readyToPay(t)
	f.orders.createErr = errors.New("insert orders: timeout")

	_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
	var subErr *domain.OrderSubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, "order", subErr.Stage)
	assert.Empty(t, f.orders.deleted)
	assert.Equal(t, StateAwaitingPaymentConfirmation, f.engine.State())
	assert.Len(t, f.cart.Snapshot().Items, 1)
}

func TestPlaceOrder_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("blank reference", func(t *testing.T) {
		f := newFixture(t)
		f.cart.AddItem(ctx, figure, 1)
		f.readyToPay(t)
		_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "  "})
		assert.ErrorIs(t, err, domain.ErrMissingPaymentReference)
		assert.Empty(t, f.orders.payloads)
	})

	t.Run("shipping not collected", func(t *testing.T) {
		f := newFixture(t)
		f.cart.AddItem(ctx, figure, 1)
		_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("empty cart", func(t *testing.T) {
		f := newFixture(t)
		f.readyToPay(t)
		_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "cart", verr.Field)
	})

	t.Run("already submitted", func(t *testing.T) {
		f := newFixture(t)
		f.cart.AddItem(ctx, figure, 1)
		f.readyToPay(t)
		_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
		require.NoError(t, err)

		f.cart.AddItem(ctx, figure, 1)
		_, err = f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR2"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestPlaceOrder_CouponNoLongerMeetsMinimum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)
	_, err := f.engine.ApplyCoupon(ctx, "MIN1000", f.cart.Subtotal())
	require.NoError(t, err)
	f.cart.UpdateQuantity(ctx, figure.ID, 0)
	f.cart.AddItem(ctx, small, 1)
	f.readyToPay(t)

	_, err = f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
	assert.ErrorIs(t, err, domain.ErrMinimumOrderNotMet)
	assert.Nil(t, f.engine.Summary().Discount)
	assert.Empty(t, f.orders.payloads)
}

func TestPlaceOrder_RejectsConcurrentSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)
	f.readyToPay(t)
	f.orders.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
		done <- err
	}()

	require.Eventually(t, func() bool {
		f.engine.mu.Lock()
		defer f.engine.mu.Unlock()
		return f.engine.submitting
	}, time.Second, 5*time.Millisecond)

	_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
	assert.ErrorIs(t, err, domain.ErrSubmissionInProgress)

	close(f.orders.block)
	require.NoError(t, <-done)
	assert.Len(t, f.orders.payloads, 1)
}

func TestPlaceOrder_KeepsItemsAddedDuringSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)
	f.readyToPay(t)
	f.orders.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
		done <- err
	}()
	require.Eventually(t, func() bool {
		f.engine.mu.Lock()
		defer f.engine.mu.Unlock()
		return f.engine.submitting
	}, time.Second, 5*time.Millisecond)

	f.cart.AddItem(ctx, keyring, 1)
	f.cart.AddItem(ctx, figure, 1)
	close(f.orders.block)
	require.NoError(t, <-done)

	require.Len(t, f.orders.payloads[0].Lines, 1)
	left := f.cart.Snapshot()
	require.Len(t, left.Items, 2)
	assert.Equal(t, "p1", left.Items[0].ProductID)
	assert.Equal(t, 1, left.Items[0].Quantity)
	assert.Equal(t, "p2", left.Items[1].ProductID)
	assert.Equal(t, domain.Money(170000), left.Subtotal())
}

func TestValidateShippingInfo_AfterSubmissionStartsNewCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.cart.AddItem(ctx, figure, 1)
	f.readyToPay(t)
	_, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR1"})
	require.NoError(t, err)

	f.cart.AddItem(ctx, keyring, 1)
	f.readyToPay(t)
	placed, err := f.engine.PlaceOrder(ctx, PlaceOrderInput{PaymentReference: "UTR2"})
	require.NoError(t, err)
	assert.Equal(t, "order-key-2", placed.OrderID)
}
