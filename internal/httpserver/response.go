package httpserver

import (
	"time"

	"hayase/internal/domain"
	"hayase/internal/service/checkout"
)

const currencyINR = "INR"

type priceValue struct {
	CurrencyCode   string `json:"currencyCode"`
	CentAmount     int64  `json:"centAmount"`
	FractionDigits int    `json:"fractionDigits"`
	Formatted      string `json:"formatted"`
}

func toPrice(m domain.Money) priceValue {
	return priceValue{
		CurrencyCode:   currencyINR,
		CentAmount:     int64(m),
		FractionDigits: 2,
		Formatted:      m.String(),
	}
}

type productResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Price        priceValue `json:"price"`
	Stock        int        `json:"stock"`
	SoldOut      bool       `json:"soldOut"`
	Images       []string   `json:"images"`
	Manufacturer string     `json:"manufacturer,omitempty"`
	Scale        string     `json:"scale,omitempty"`
	Condition    string     `json:"condition,omitempty"`
	Category     string     `json:"category,omitempty"`
	IsFeatured   bool       `json:"isFeatured"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toProductResponse(p domain.Product) productResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        toPrice(p.Price),
		Stock:        p.Stock,
		SoldOut:      !p.InStock(),
		Images:       images,
		Manufacturer: p.Manufacturer,
		Scale:        p.Scale,
		Condition:    p.Condition,
		Category:     p.Category,
		IsFeatured:   p.IsFeatured,
		CreatedAt:    p.CreatedAt,
	}
}

type productList struct {
	Count   int               `json:"count"`
	Results []productResponse `json:"results"`
}

func toProductList(products []domain.Product) productList {
	results := make([]productResponse, 0, len(products))
	for _, p := range products {
		results = append(results, toProductResponse(p))
	}
	return productList{Count: len(results), Results: results}
}

type lineItemResponse struct {
	ProductID string     `json:"productId"`
	Name      string     `json:"name"`
	UnitPrice priceValue `json:"unitPrice"`
	Quantity  int        `json:"quantity"`
	Images    []string   `json:"images"`
	Total     priceValue `json:"totalPrice"`
}

type cartResponse struct {
	SessionID     string             `json:"sessionId"`
	LineItems     []lineItemResponse `json:"lineItems"`
	TotalQuantity int                `json:"totalLineItemQuantity"`
	Subtotal      priceValue         `json:"subtotal"`
	DrawerOpen    bool               `json:"drawerOpen"`
}

func toLineItems(items []domain.CartLineItem) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, item := range items {
		images := item.Images
		if images == nil {
			images = []string{}
		}
		out = append(out, lineItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: toPrice(item.UnitPrice),
			Quantity:  item.Quantity,
			Images:    images,
			Total:     toPrice(item.LineTotal()),
		})
	}
	return out
}

func toCartResponse(sessionID string, snap domain.CartSnapshot, drawerOpen bool) cartResponse {
	return cartResponse{
		SessionID:     sessionID,
		LineItems:     toLineItems(snap.Items),
		TotalQuantity: snap.TotalQuantity(),
		Subtotal:      toPrice(snap.Subtotal()),
		DrawerOpen:    drawerOpen,
	}
}

type discountResponse struct {
	Code       string     `json:"code"`
	Type       string     `json:"type"`
	Value      string     `json:"value"`
	Amount     priceValue `json:"amount"`
	FinalTotal priceValue `json:"finalTotal"`
}

func toDiscountResponse(d domain.AppliedDiscount) discountResponse {
	return discountResponse{
		Code:       d.Code,
		Type:       string(d.Type),
		Value:      d.Value.String(),
		Amount:     toPrice(d.Discount),
		FinalTotal: toPrice(d.FinalTotal),
	}
}

type checkoutResponse struct {
	State        string               `json:"state"`
	Shipping     *domain.ShippingInfo `json:"shippingInfo,omitempty"`
	LineItems    []lineItemResponse   `json:"lineItems"`
	Subtotal     priceValue           `json:"subtotal"`
	Discount     *discountResponse    `json:"discount,omitempty"`
	ShippingCost priceValue           `json:"shippingCost"`
	Total        priceValue           `json:"total"`
	LastOrderID  string               `json:"lastOrderId,omitempty"`
}

func toCheckoutResponse(sum checkout.Summary) checkoutResponse {
	resp := checkoutResponse{
		State:        string(sum.State),
		Shipping:     sum.Shipping,
		LineItems:    toLineItems(sum.Items),
		Subtotal:     toPrice(sum.Subtotal),
		ShippingCost: toPrice(sum.ShippingCost),
		Total:        toPrice(sum.Total),
		LastOrderID:  sum.LastOrderID,
	}
	if sum.Discount != nil {
		d := toDiscountResponse(*sum.Discount)
		resp.Discount = &d
	}
	return resp
}

type orderLineResponse struct {
	ProductID string     `json:"productId"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	UnitPrice priceValue `json:"unitPrice"`
	Total     priceValue `json:"totalPrice"`
}

type orderResponse struct {
	ID               string              `json:"id"`
	Status           string              `json:"status"`
	Customer         domain.ShippingInfo `json:"customer"`
	ShippingAddress  string              `json:"shippingAddress"`
	Lines            []orderLineResponse `json:"lines"`
	Subtotal         priceValue          `json:"subtotal"`
	CouponCode       *string             `json:"couponCode,omitempty"`
	Discount         priceValue          `json:"discount"`
	ShippingCost     priceValue          `json:"shippingCost"`
	Total            priceValue          `json:"total"`
	PaymentReference string              `json:"paymentReference"`
	CreatedAt        time.Time           `json:"createdAt,omitempty"`
}

func toOrderLines(lines []domain.OrderLine) []orderLineResponse {
	out := make([]orderLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, orderLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: toPrice(l.UnitPrice),
			Total:     toPrice(l.Total()),
		})
	}
	return out
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:               o.ID,
		Status:           string(o.Status),
		Customer:         o.Customer,
		ShippingAddress:  o.ShippingAddress,
		Lines:            toOrderLines(o.Lines),
		Subtotal:         toPrice(o.Subtotal),
		CouponCode:       o.CouponCode,
		Discount:         toPrice(o.Discount),
		ShippingCost:     toPrice(o.ShippingCost),
		Total:            toPrice(o.Total),
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt,
	}
}

func toPlacedOrderResponse(p checkout.PlacedOrder) orderResponse {
	return orderResponse{
		ID:               p.OrderID,
		Status:           string(p.Payload.Status),
		Customer:         p.Payload.Customer,
		ShippingAddress:  p.Payload.Customer.AddressText(),
		Lines:            toOrderLines(p.Payload.Lines),
		Subtotal:         toPrice(p.Payload.Subtotal),
		CouponCode:       p.Payload.CouponCode,
		Discount:         toPrice(p.Payload.Discount),
		ShippingCost:     toPrice(p.Payload.ShippingCost),
		Total:            toPrice(p.Payload.Total),
		PaymentReference: p.Payload.PaymentReference,
	}
}

type couponResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discountType"`
	DiscountValue string     `json:"discountValue"`
	MinOrderValue priceValue `json:"minOrderValue"`
	IsActive      bool       `json:"isActive"`
	MaxUses       *int       `json:"maxUses,omitempty"`
	UsedCount     int        `json:"usedCount"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func toCouponResponse(c domain.Coupon) couponResponse {
	return couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue.String(),
		MinOrderValue: toPrice(c.MinOrderValue),
		IsActive:      c.IsActive,
		MaxUses:       c.MaxUses,
		UsedCount:     c.UsedCount,
		ExpiresAt:     c.ExpiresAt,
		CreatedAt:     c.CreatedAt,
	}
}
