package httpserver

import (
	"context"
	"net/http"
	"time"

	"hayase/internal/domain"
	"hayase/internal/logging"
	couponsvc "hayase/internal/service/coupon"
	"hayase/internal/service/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Purchasable(ctx context.Context, id string, quantity int) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdatePrice(ctx context.Context, id string, price domain.Money) error
}

type CouponService interface {
	List(ctx context.Context) ([]domain.Coupon, error)
	Create(ctx context.Context, in couponsvc.CreateInput) (*domain.Coupon, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type OrderService interface {
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error)
}

type PaymentSettingsService interface {
	Active(ctx context.Context) (*domain.PaymentSettings, error)
	Latest(ctx context.Context) (*domain.PaymentSettings, error)
	Save(ctx context.Context, in domain.PaymentSettings) (*domain.PaymentSettings, error)
}

type ReviewService interface {
	Submit(ctx context.Context, in domain.Review) (*domain.Review, error)
	Approved(ctx context.Context, productID string) ([]domain.Review, domain.ReviewSummary, error)
	List(ctx context.Context) ([]domain.Review, error)
	Moderate(ctx context.Context, id string, status domain.ReviewStatus) error
}

type ConciergeService interface {
	Submit(ctx context.Context, in domain.ConciergeRequest) (*domain.ConciergeRequest, error)
	List(ctx context.Context) ([]domain.ConciergeRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error
}

type SessionRegistry interface {
	Resolve(ctx context.Context, id string) (*session.Session, bool)
}

// Deps are the services behind the storefront and admin routes.
type Deps struct {
	Products        ProductService
	Coupons         CouponService
	Orders          OrderService
	PaymentSettings PaymentSettingsService
	Reviews         ReviewService
	Concierge       ConciergeService
	Sessions        SessionRegistry
	AdminKeys       []string
	CORSOrigins     []string
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	logger = logging.OrNop(logger)
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinMiddleware(logger.Named("http")), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:  []string{"Origin", "Content-Type", sessionHeader, adminKeyHeader},
			ExposeHeaders: []string{sessionHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/products/:id/reviews", h.listReviews)
	router.POST("/products/:id/reviews", h.submitReview)
	router.GET("/categories", h.listCategories)
	router.POST("/requests", h.submitConciergeRequest)
	router.GET("/payment-settings", h.activePaymentSettings)

	shop := router.Group("/", sessionMiddleware(deps.Sessions))
	shop.GET("/cart", h.getCart)
	shop.POST("/cart/items", h.addCartItem)
	shop.PUT("/cart/items/:productId", h.updateCartItem)
	shop.DELETE("/cart/items/:productId", h.removeCartItem)
	shop.DELETE("/cart", h.clearCart)
	shop.PUT("/cart/drawer", h.setDrawer)
	shop.GET("/checkout", h.getCheckout)
	shop.POST("/checkout/shipping", h.submitShipping)
	shop.POST("/checkout/coupon", h.applyCoupon)
	shop.DELETE("/checkout/coupon", h.removeCoupon)
	shop.POST("/checkout/orders", h.placeOrder)
	shop.GET("/orders/:id/confirmation", h.orderConfirmation)

	admin := router.Group("/admin", adminMiddleware(deps.AdminKeys))
	admin.GET("/orders", h.adminListOrders)
	admin.GET("/orders/:id", h.adminGetOrder)
	admin.PATCH("/orders/:id/status", h.adminUpdateOrderStatus)
	admin.GET("/coupons", h.adminListCoupons)
	admin.POST("/coupons", h.adminCreateCoupon)
	admin.PATCH("/coupons/:id", h.adminSetCouponActive)
	admin.DELETE("/coupons/:id", h.adminDeleteCoupon)
	admin.PUT("/products", h.adminUpsertProduct)
	admin.PATCH("/products/:id/price", h.adminUpdatePrice)
	admin.GET("/payment-settings", h.adminGetPaymentSettings)
	admin.PUT("/payment-settings", h.adminSavePaymentSettings)
	admin.GET("/reviews", h.adminListReviews)
	admin.PATCH("/reviews/:id/status", h.adminModerateReview)
	admin.GET("/requests", h.adminListConciergeRequests)
	admin.PATCH("/requests/:id/status", h.adminUpdateConciergeStatus)

	return router
}
