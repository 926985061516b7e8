package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"hayase/internal/domain"
	"hayase/internal/events"
	"hayase/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State string

const (
	StateCollectingShippingInfo      State = "collecting_shipping_info"
	StateAwaitingPaymentConfirmation State = "awaiting_payment_confirmation"
	StateSubmitted                   State = "submitted"
)

const (
	defaultCouponTimeout = 3 * time.Second
	compensationTimeout  = 5 * time.Second
)

// CouponFinder returns a redeemable coupon or domain.ErrNotFound.
type CouponFinder interface {
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type OrderWriter interface {
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (string, error)
	CreateOrderLines(ctx context.Context, orderID string, lines []domain.OrderLine) error
	DeleteOrder(ctx context.Context, orderID string) error
}

// Cart is the part of the cart store the engine reads and empties.
type Cart interface {
	Snapshot() domain.CartSnapshot
	RemoveOrdered(ctx context.Context, lines []domain.OrderLine) domain.CartSnapshot
}

type Options struct {
	CouponTimeout time.Duration
	ShippingCost  domain.Money
	Now           func() time.Time
	NewKey        func() string
}

// Engine drives one shopper's checkout from shipping details to a placed order.
type Engine struct {
	mu         sync.Mutex
	state      State
	shipping   *domain.ShippingInfo
	coupon     *domain.Coupon
	applied    *domain.AppliedDiscount
	submitting bool
	key        string
	lastOrder  string

	cart      Cart
	coupons   CouponFinder
	orders    OrderWriter
	publisher events.Publisher
	logger    *zap.Logger
	opts      Options
}

func NewEngine(cart Cart, coupons CouponFinder, orders OrderWriter, publisher events.Publisher, logger *zap.Logger, opts Options) *Engine {
	if opts.CouponTimeout <= 0 {
		opts.CouponTimeout = defaultCouponTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewKey == nil {
		opts.NewKey = uuid.NewString
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Engine{
		state:     StateCollectingShippingInfo,
		key:       opts.NewKey(),
		cart:      cart,
		coupons:   coupons,
		orders:    orders,
		publisher: publisher,
		logger:    logging.OrNop(logger).Named("checkout"),
		opts:      opts,
	}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ValidateShippingInfo checks the form and, on success, stores it and moves
// to awaiting_payment_confirmation. Submitting a form after an order was
// placed starts a new checkout.
func (e *Engine) ValidateShippingInfo(form domain.ShippingInfo) error {
	if err := form.Validate(); err != nil {
		return err
	}
	info := form.Normalized()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitting {
		return domain.ErrSubmissionInProgress
	}
	if e.state == StateSubmitted {
		e.coupon, e.applied = nil, nil
	}
	e.shipping = &info
	e.state = StateAwaitingPaymentConfirmation
	return nil
}

// ApplyCoupon looks the code up and evaluates it against subtotal. Every
// lookup failure, including a timeout, is reported as domain.ErrCouponNotFound.
// A successful apply replaces any previously applied coupon.
func (e *Engine) ApplyCoupon(ctx context.Context, code string, subtotal domain.Money) (domain.AppliedDiscount, error) {
	code = domain.CanonicalCouponCode(code)
	if code == "" {
		return domain.AppliedDiscount{}, domain.ErrCouponNotFound
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.opts.CouponTimeout)
	defer cancel()
	c, err := e.coupons.FindByCode(lookupCtx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.logger.Warn("coupon lookup failed", zap.String("code", code), zap.Error(err))
		}
		return domain.AppliedDiscount{}, domain.ErrCouponNotFound
	}

	applied, err := c.Apply(subtotal)
	if err != nil {
		return domain.AppliedDiscount{}, err
	}

	e.mu.Lock()
	e.coupon = c
	e.applied = &applied
	e.mu.Unlock()
	return applied, nil
}

func (e *Engine) RemoveCoupon() {
	e.mu.Lock()
	e.coupon, e.applied = nil, nil
	e.mu.Unlock()
}

// Summary is the checkout as it would be priced right now.
type Summary struct {
	State        State                   `json:"state"`
	Shipping     *domain.ShippingInfo    `json:"shipping,omitempty"`
	Items        []domain.CartLineItem   `json:"items"`
	Subtotal     domain.Money            `json:"subtotal"`
	Discount     *domain.AppliedDiscount `json:"discount,omitempty"`
	ShippingCost domain.Money            `json:"shippingCost"`
	Total        domain.Money            `json:"total"`
	LastOrderID  string                  `json:"lastOrderId,omitempty"`
}

func (e *Engine) Summary() Summary {
	snap := e.cart.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	sum := Summary{
		State:        e.state,
		Items:        snap.Items,
		Subtotal:     snap.Subtotal(),
		ShippingCost: e.opts.ShippingCost,
		LastOrderID:  e.lastOrder,
	}
	if sum.Items == nil {
		sum.Items = []domain.CartLineItem{}
	}
	if e.shipping != nil {
		info := *e.shipping
		sum.Shipping = &info
	}
	discount := domain.Money(0)
	if d, err := e.currentDiscountLocked(sum.Subtotal); err == nil && d != nil {
		sum.Discount = d
		discount = d.Discount
	}
	sum.Total = (sum.Subtotal - discount).Plus(sum.ShippingCost)
	return sum
}

type PlaceOrderInput struct {
	PaymentReference string `json:"paymentReference"`
}

type PlacedOrder struct {
	OrderID string              `json:"orderId"`
	Payload domain.OrderPayload `json:"order"`
}

// PlaceOrder writes the order row then its lines. The ordered units leave the
// cart and the flow moves to submitted only after both writes succeed. Any write failure
// returns a *domain.OrderSubmissionError and leaves cart and state untouched.
func (e *Engine) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlacedOrder, error) {
	ref := strings.TrimSpace(in.PaymentReference)
	if ref == "" {
		return nil, domain.ErrMissingPaymentReference
	}

	payload, err := e.beginSubmission(ref)
	if err != nil {
		return nil, err
	}
	defer e.endSubmission()

	log := e.logger.With(zap.String("idempotency_key", payload.IdempotencyKey))

	orderID, err := e.orders.CreateOrder(ctx, payload)
	if err != nil {
		log.Error("create order failed", zap.Error(err))
		return nil, &domain.OrderSubmissionError{Stage: "order", Cause: err}
	}

	if err := e.orders.CreateOrderLines(ctx, orderID, payload.Lines); err != nil {
		log.Error("create order lines failed", zap.String("order_id", orderID), zap.Error(err))
		e.compensate(ctx, log, orderID)
		return nil, &domain.OrderSubmissionError{Stage: "lines", Cause: err}
	}

	e.cart.RemoveOrdered(ctx, payload.Lines)

	e.mu.Lock()
	e.state = StateSubmitted
	e.coupon, e.applied = nil, nil
	e.lastOrder = orderID
	e.key = e.opts.NewKey()
	e.mu.Unlock()

	log.Info("order placed", zap.String("order_id", orderID), zap.Int64("total_paise", int64(payload.Total)))
	if err := e.publisher.Publish(ctx, events.NewOrderPlaced(orderID, payload, e.opts.Now())); err != nil {
		log.Warn("publish order placed event", zap.String("order_id", orderID), zap.Error(err))
	}

	return &PlacedOrder{OrderID: orderID, Payload: payload}, nil
}

func (e *Engine) beginSubmission(ref string) (domain.OrderPayload, error) {
	snap := e.cart.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitting {
		return domain.OrderPayload{}, domain.ErrSubmissionInProgress
	}
	if e.state != StateAwaitingPaymentConfirmation || e.shipping == nil {
		return domain.OrderPayload{}, &domain.TransitionError{From: string(e.state), To: string(StateSubmitted)}
	}
	if snap.IsEmpty() {
		return domain.OrderPayload{}, &domain.ValidationError{Field: "cart", Message: "cart is empty"}
	}
	applied, err := e.currentDiscountLocked(snap.Subtotal())
	if err != nil {
		e.coupon, e.applied = nil, nil
		return domain.OrderPayload{}, err
	}
	e.submitting = true
	return domain.NewOrderPayload(e.key, *e.shipping, snap, applied, e.opts.ShippingCost, ref), nil
}

func (e *Engine) endSubmission() {
	e.mu.Lock()
	e.submitting = false
	e.mu.Unlock()
}

// currentDiscountLocked re-prices the applied coupon when the cart subtotal
// has moved since it was applied.
func (e *Engine) currentDiscountLocked(subtotal domain.Money) (*domain.AppliedDiscount, error) {
	if e.applied == nil || e.coupon == nil {
		return nil, nil
	}
	if e.applied.Subtotal == subtotal {
		return e.applied, nil
	}
	d, err := e.coupon.Apply(subtotal)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (e *Engine) compensate(ctx context.Context, log *zap.Logger, orderID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := e.orders.DeleteOrder(ctx, orderID); err != nil {
		log.Error("compensating order delete failed, a retry will reuse the order", zap.String("order_id", orderID), zap.Error(err))
	}
}
