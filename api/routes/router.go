// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"kleihaven/internal/courses"
	"kleihaven/internal/notifications"
	"kleihaven/internal/payments"
	"kleihaven/internal/reservations"
	"kleihaven/internal/shared/config"
	"kleihaven/internal/shared/database"
	"kleihaven/pkg/cache"
	"kleihaven/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config     *config.Config
	db         *database.DB
	cache      cache.Service
	gateway    payments.Gateway
	dispatcher notifications.Dispatcher
	log        *logger.Logger

	courseRepo courses.Repository
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, cacheService cache.Service, gateway payments.Gateway, dispatcher notifications.Dispatcher, log *logger.Logger) *Router {
	return &Router{
		config:     cfg,
		db:         db,
		cache:      cacheService,
		gateway:    gateway,
		dispatcher: dispatcher,
		log:        log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		// The course repo is shared with the reservation flow, so the
		// catalog routes go first
		r.setupCourseRoutes(api)
		r.setupPaymentRoutes(api)
		r.setupReservationRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "kleihaven-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "kleihaven-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupCourseRoutes configures the catalog routes
func (r *Router) setupCourseRoutes(rg *gin.RouterGroup) {
	r.courseRepo = courses.NewRepository(r.db.GetPostgreSQL())
	courseService := courses.NewService(r.courseRepo, r.cache, r.config.Redis.CourseCacheTTL)
	courseController := courses.NewController(courseService)

	courses.SetupCourseRoutes(rg, courseController, r.config.Sweep.Token)
}

// setupPaymentRoutes configures the payment status routes
func (r *Router) setupPaymentRoutes(rg *gin.RouterGroup) {
	paymentController := payments.NewController(r.gateway)

	payments.SetupPaymentRoutes(rg, paymentController)
}

// setupReservationRoutes configures the booking flow routes
func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	reservationRepo := reservations.NewRepository(r.db.GetPostgreSQL())
	ledger := reservations.NewLedger(r.courseRepo, r.cache)

	reservationService := reservations.NewService(
		reservationRepo, ledger, r.courseRepo, r.gateway, r.config.Payment, r.log)

	reconciler := reservations.NewReconciler(
		reservationRepo, ledger, r.courseRepo, r.gateway, r.dispatcher,
		r.cache, r.config.Redis.WebhookDedupTTL, r.log)

	sweeper := reservations.NewSweeper(
		reservationRepo, ledger, r.gateway, reconciler,
		r.config.Sweep.AbandonedAfter, r.log)

	reservationController := reservations.NewController(
		reservationService, reconciler, sweeper, r.log)

	reservations.SetupReservationRoutes(rg, reservationController, r.config.Sweep.Token)
}
