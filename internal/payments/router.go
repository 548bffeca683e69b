package payments

import "github.com/gin-gonic/gin"

// SetupPaymentRoutes configures payment status routes. The webhook route is
// owned by the reservations package, which drives the reconciliation.
func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	{
		payments.GET("/status", controller.GetPaymentStatus) // GET /api/v1/payments/status?id=
	}
}
