package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"hayase/internal/domain"
	"hayase/internal/service/checkout"

	"github.com/gin-gonic/gin"
)

var errQuantityTooLarge = &domain.ValidationError{Field: "quantity", Message: fmt.Sprintf("must not exceed %d", domain.MaxLineQuantity)}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type drawerRequest struct {
	Open bool `json:"open"`
}

type reviewRequest struct {
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type conciergeRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	CharacterName     string `json:"characterName"`
	Budget            string `json:"budget"`
	ReferenceImageURL string `json:"referenceImageUrl"`
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *handlers) listProducts(c *gin.Context) {
	filter, err := parseProductFilter(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	products, err := h.deps.Products.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductList(products))
}

// parseProductFilter reads the shop filters. Prices are in rupees and
// category may be repeated or comma separated.
func parseProductFilter(c *gin.Context) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		Search:       c.Query("search"),
		FeaturedOnly: c.Query("featured") == "true",
		InStockOnly:  c.Query("inStock") == "true",
	}
	for _, raw := range c.QueryArray("category") {
		filter.Categories = append(filter.Categories, strings.Split(raw, ",")...)
	}
	for _, bound := range []struct {
		name string
		dst  **domain.Money
	}{{"min", &filter.MinPrice}, {"max", &filter.MaxPrice}} {
		raw := strings.TrimSpace(c.Query(bound.name))
		if raw == "" {
			continue
		}
		m, err := domain.ParseMoney(raw)
		if err != nil {
			return filter, &domain.ValidationError{Field: bound.name, Message: "not a number"}
		}
		*bound.dst = &m
	}
	return filter, nil
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.Products.Categories(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(categories), "results": categories})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}

func (h *handlers) activePaymentSettings(c *gin.Context) {
	s, err := h.deps.PaymentSettings.Active(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) getCart(c *gin.Context) {
	s := currentSession(c)
	c.JSON(http.StatusOK, toCartResponse(s.ID, s.Cart.Snapshot(), s.Cart.DrawerOpen()))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		writeError(c, h.logger, &domain.ValidationError{Field: "productId", Message: "required"})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.Quantity > domain.MaxLineQuantity {
		writeError(c, h.logger, errQuantityTooLarge)
		return
	}
	s := currentSession(c)
	wanted := req.Quantity
	if line, ok := s.Cart.Snapshot().Find(req.ProductID); ok {
		wanted += line.Quantity
	}
	p, err := h.deps.Products.Purchasable(c.Request.Context(), req.ProductID, wanted)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	snap := s.Cart.AddItem(c.Request.Context(), *p, req.Quantity)
	c.JSON(http.StatusOK, toCartResponse(s.ID, snap, s.Cart.DrawerOpen()))
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	if *req.Quantity > domain.MaxLineQuantity {
		writeError(c, h.logger, errQuantityTooLarge)
		return
	}
	productID := c.Param("productId")
	if *req.Quantity >= 1 {
		if _, err := h.deps.Products.Purchasable(c.Request.Context(), productID, *req.Quantity); err != nil {
			writeError(c, h.logger, err)
			return
		}
	}
	s := currentSession(c)
	snap := s.Cart.UpdateQuantity(c.Request.Context(), productID, *req.Quantity)
	c.JSON(http.StatusOK, toCartResponse(s.ID, snap, s.Cart.DrawerOpen()))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	s := currentSession(c)
	snap := s.Cart.RemoveItem(c.Request.Context(), c.Param("productId"))
	c.JSON(http.StatusOK, toCartResponse(s.ID, snap, s.Cart.DrawerOpen()))
}

func (h *handlers) clearCart(c *gin.Context) {
	s := currentSession(c)
	snap := s.Cart.ClearCart(c.Request.Context())
	c.JSON(http.StatusOK, toCartResponse(s.ID, snap, s.Cart.DrawerOpen()))
}

func (h *handlers) setDrawer(c *gin.Context) {
	var req drawerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	s := currentSession(c)
	s.Cart.SetDrawerOpen(req.Open)
	c.JSON(http.StatusOK, toCartResponse(s.ID, s.Cart.Snapshot(), s.Cart.DrawerOpen()))
}

func (h *handlers) getCheckout(c *gin.Context) {
	c.JSON(http.StatusOK, toCheckoutResponse(currentSession(c).Checkout.Summary()))
}

func (h *handlers) submitShipping(c *gin.Context) {
	var form domain.ShippingInfo
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	engine := currentSession(c).Checkout
	if err := engine.ValidateShippingInfo(form); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(engine.Summary()))
}

func (h *handlers) applyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	s := currentSession(c)
	if _, err := s.Checkout.ApplyCoupon(c.Request.Context(), req.Code, s.Cart.Subtotal()); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(s.Checkout.Summary()))
}

func (h *handlers) removeCoupon(c *gin.Context) {
	engine := currentSession(c).Checkout
	engine.RemoveCoupon()
	c.JSON(http.StatusOK, toCheckoutResponse(engine.Summary()))
}

func (h *handlers) placeOrder(c *gin.Context) {
	var in checkout.PlaceOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	placed, err := currentSession(c).Checkout.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toPlacedOrderResponse(*placed))
}

// orderConfirmation shows a session only the order it just placed.
func (h *handlers) orderConfirmation(c *gin.Context) {
	id := c.Param("id")
	if currentSession(c).Checkout.Summary().LastOrderID != id {
		writeError(c, h.logger, domain.ErrNotFound)
		return
	}
	o, err := h.deps.Orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func (h *handlers) listReviews(c *gin.Context) {
	reviews, summary, err := h.deps.Reviews.Approved(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "summary": summary, "results": reviews})
}

// submitReview queues a review for moderation; it is not listed until approved.
func (h *handlers) submitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	r, err := h.deps.Reviews.Submit(c.Request.Context(), domain.Review{
		ProductID: c.Param("id"),
		UserName:  req.UserName,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handlers) submitConciergeRequest(c *gin.Context) {
	var req conciergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	r, err := h.deps.Concierge.Submit(c.Request.Context(), domain.ConciergeRequest{
		Name:              req.Name,
		Email:             req.Email,
		CharacterName:     req.CharacterName,
		Budget:            domain.Budget(strings.TrimSpace(req.Budget)),
		ReferenceImageURL: req.ReferenceImageURL,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}
