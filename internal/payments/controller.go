package payments

import (
	"errors"
	"net/http"

	"kleihaven/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	gateway Gateway
}

func NewController(gateway Gateway) *Controller {
	return &Controller{gateway: gateway}
}

// GetPaymentStatus handles GET /api/v1/payments/status?id=
// The confirmation page polls this after the customer returns from checkout.
func (c *Controller) GetPaymentStatus(ctx *gin.Context) {
	paymentID := ctx.Query("id")
	if paymentID == "" {
		response.RespondError(ctx, http.StatusBadRequest,
			response.CodeMissingPaymentID, "Payment ID is required")
		return
	}

	payment, err := c.gateway.GetPayment(ctx.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			response.RespondError(ctx, http.StatusNotFound,
				response.CodeMissingPaymentID, "Payment not found")
			return
		}
		response.RespondError(ctx, http.StatusBadGateway,
			response.CodeProviderError, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK,
		"Payment status retrieved successfully", gin.H{
			"id":          payment.ID,
			"status":      payment.Status,
			"amount":      payment.Amount,
			"description": payment.Description,
			"metadata":    payment.Metadata,
		}, nil)
}
