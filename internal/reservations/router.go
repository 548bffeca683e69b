package reservations

import (
	"kleihaven/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReservationRoutes configures the booking flow routes: reservation
// creation, the provider webhook and the scheduled sweep.
func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller, schedulerToken string) {
	rg.POST("/reservations", controller.CreateReservation) // POST /api/v1/reservations

	// The provider calls this; replays are safe
	rg.POST("/payments/webhook", controller.HandleWebhook) // POST /api/v1/payments/webhook

	internal := rg.Group("/internal")
	internal.Use(middleware.SchedulerToken(schedulerToken))
	{
		internal.POST("/sweep", controller.RunSweep) // POST /api/v1/internal/sweep?dryRun=
	}
}
