package httpserver

import (
	"errors"
	"net/http"

	"hayase/internal/domain"
	couponsvc "hayase/internal/service/coupon"
	productsvc "hayase/internal/service/product"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	Code      string      `json:"error"`
	Message   string      `json:"message"`
	Field     string      `json:"field,omitempty"`
	Threshold *priceValue `json:"threshold,omitempty"`
	Available *int        `json:"available,omitempty"`
}

// writeError maps domain errors to responses. Collaborator errors never
// reach the body; unmapped errors are logged and reported as a 500.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verr     *domain.ValidationError
		minErr   *domain.MinimumOrderError
		stockErr *productsvc.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "validation_failed", Message: verr.Error(), Field: verr.Field})
	case errors.As(err, &minErr):
		threshold := toPrice(minErr.Threshold)
		c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Code:      "minimum_order_not_met",
			Message:   "Minimum order value of " + minErr.Threshold.String() + " required",
			Threshold: &threshold,
		})
	case errors.Is(err, domain.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Code: "coupon_not_found", Message: "Invalid coupon code"})
	case errors.Is(err, domain.ErrMissingPaymentReference):
		c.JSON(http.StatusBadRequest, errorResponse{Code: "missing_payment_reference", Message: "Please enter the UPI transaction ID", Field: "paymentReference"})
	case errors.Is(err, domain.ErrSubmissionInProgress):
		c.JSON(http.StatusConflict, errorResponse{Code: "submission_in_progress", Message: "Your order is already being placed"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, errorResponse{Code: "invalid_transition", Message: err.Error()})
	case errors.Is(err, domain.ErrOrderSubmissionFailed):
		c.JSON(http.StatusBadGateway, errorResponse{Code: "order_submission_failed", Message: err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, errorResponse{Code: "insufficient_stock", Message: stockErr.Error(), Available: &stockErr.Available})
	case errors.Is(err, productsvc.ErrOutOfStock):
		c.JSON(http.StatusConflict, errorResponse{Code: "sold_out", Message: "This item is sold out"})
	case errors.Is(err, couponsvc.ErrCouponExists):
		c.JSON(http.StatusConflict, errorResponse{Code: "coupon_exists", Message: "A coupon with this code already exists", Field: "code"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Code: "not_found", Message: "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{Code: "conflict", Message: "conflict"})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Code: "internal", Message: "internal error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Code: "invalid_request", Message: message})
}
