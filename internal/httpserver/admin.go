package httpserver

import (
	"net/http"
	"time"

	"hayase/internal/domain"
	couponsvc "hayase/internal/service/coupon"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type statusRequest struct {
	Status string `json:"status"`
}

// Amounts are in rupees on the admin API.
type createCouponRequest struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	MinOrderValue decimal.Decimal `json:"minOrderValue"`
	IsActive      *bool           `json:"isActive"`
	MaxUses       *int            `json:"maxUses"`
	ExpiresAt     *time.Time      `json:"expiresAt"`
}

type couponActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

type productRequest struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Images       []string        `json:"images"`
	Manufacturer string          `json:"manufacturer"`
	Scale        string          `json:"scale"`
	Condition    string          `json:"condition"`
	Category     string          `json:"category"`
	IsFeatured   bool            `json:"isFeatured"`
}

type priceRequest struct {
	Price *decimal.Decimal `json:"price"`
}

type paymentSettingsRequest struct {
	ID          string `json:"id"`
	UPIID       string `json:"upiId"`
	QRCodeURL   string `json:"qrCodeUrl"`
	AccountName string `json:"accountName"`
	IsActive    *bool  `json:"isActive"`
}

func (h *handlers) adminListOrders(c *gin.Context) {
	orders, err := h.deps.Orders.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

func (h *handlers) adminGetOrder(c *gin.Context) {
	o, err := h.deps.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func (h *handlers) adminUpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	o, err := h.deps.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func (h *handlers) adminListCoupons(c *gin.Context) {
	coupons, err := h.deps.Coupons.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]couponResponse, 0, len(coupons))
	for _, cp := range coupons {
		out = append(out, toCouponResponse(cp))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

func (h *handlers) adminCreateCoupon(c *gin.Context) {
	var req createCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	cp, err := h.deps.Coupons.Create(c.Request.Context(), couponsvc.CreateInput{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrderValue: domain.MoneyFromDecimal(req.MinOrderValue),
		IsActive:      req.IsActive,
		MaxUses:       req.MaxUses,
		ExpiresAt:     req.ExpiresAt,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toCouponResponse(*cp))
}

func (h *handlers) adminSetCouponActive(c *gin.Context) {
	var req couponActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		badRequest(c, "isActive is required")
		return
	}
	if err := h.deps.Coupons.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adminDeleteCoupon(c *gin.Context) {
	if err := h.deps.Coupons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adminUpsertProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	p, err := h.deps.Products.Upsert(c.Request.Context(), domain.Product{
		ID:           req.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        domain.MoneyFromDecimal(req.Price),
		Stock:        req.Stock,
		Images:       req.Images,
		Manufacturer: req.Manufacturer,
		Scale:        req.Scale,
		Condition:    req.Condition,
		Category:     req.Category,
		IsFeatured:   req.IsFeatured,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

func (h *handlers) adminUpdatePrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Price == nil {
		badRequest(c, "price is required")
		return
	}
	if err := h.deps.Products.UpdatePrice(c.Request.Context(), c.Param("id"), domain.MoneyFromDecimal(*req.Price)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adminGetPaymentSettings(c *gin.Context) {
	s, err := h.deps.PaymentSettings.Latest(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) adminSavePaymentSettings(c *gin.Context) {
	var req paymentSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	s, err := h.deps.PaymentSettings.Save(c.Request.Context(), domain.PaymentSettings{
		ID:          req.ID,
		UPIID:       req.UPIID,
		QRCodeURL:   req.QRCodeURL,
		AccountName: req.AccountName,
		IsActive:    active,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) adminListReviews(c *gin.Context) {
	reviews, err := h.deps.Reviews.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "results": reviews})
}

func (h *handlers) adminModerateReview(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	status, err := domain.ParseReviewStatus(req.Status)
	if err != nil {
		writeError(c, h.logger, &domain.ValidationError{Field: "status", Message: err.Error()})
		return
	}
	if err := h.deps.Reviews.Moderate(c.Request.Context(), c.Param("id"), status); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adminListConciergeRequests(c *gin.Context) {
	requests, err := h.deps.Concierge.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if requests == nil {
		requests = []domain.ConciergeRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(requests), "results": requests})
}

func (h *handlers) adminUpdateConciergeStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	status, err := domain.ParseRequestStatus(req.Status)
	if err != nil {
		writeError(c, h.logger, &domain.ValidationError{Field: "status", Message: err.Error()})
		return
	}
	if err := h.deps.Concierge.UpdateStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
