package reservations

import (
	"errors"
	"net/http"
	"strings"

	"kleihaven/internal/courses"
	"kleihaven/internal/payments"
	"kleihaven/internal/shared/utils/response"
	"kleihaven/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service    Service
	reconciler *Reconciler
	sweeper    *Sweeper
	validator  *validator.Validate
	log        *logger.Logger
}

func NewController(service Service, reconciler *Reconciler, sweeper *Sweeper, log *logger.Logger) *Controller {
	return &Controller{
		service:    service,
		reconciler: reconciler,
		sweeper:    sweeper,
		validator:  validator.New(),
		log:        log,
	}
}

// CreateReservation handles POST /api/v1/reservations. On success the body is
// the bare contract object the booking widget consumes, not the standard
// envelope.
func (c *Controller) CreateReservation(ctx *gin.Context) {
	var req CreateReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest,
			"Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest,
			"Validation failed", nil, err.Error())
		return
	}

	resp, err := c.service.CreateReservation(ctx.Request.Context(), req)
	if err != nil {
		c.respondReservationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) respondReservationError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, courses.ErrCourseNotFound):
		response.RespondError(ctx, http.StatusNotFound,
			response.CodeCourseNotFound, "De gekozen cursus bestaat niet meer.")
	case errors.Is(err, courses.ErrPeriodNotFound):
		response.RespondError(ctx, http.StatusNotFound,
			response.CodePeriodNotFound, "De gekozen cursusperiode bestaat niet meer.")
	case errors.Is(err, ErrCapacityExceeded):
		response.RespondError(ctx, http.StatusBadRequest,
			response.CodeSpotsNotAvailable, "Er zijn niet genoeg plekken meer beschikbaar.")
	case errors.Is(err, ErrInvalidSpotCount):
		response.RespondError(ctx, http.StatusBadRequest,
			response.CodeValidationError, "Het aantal plekken moet groter zijn dan nul.")
	case errors.Is(err, payments.ErrGateway):
		response.RespondError(ctx, http.StatusBadGateway,
			response.CodeProviderError, "De betaalprovider is tijdelijk niet bereikbaar.")
	default:
		c.log.WithError(err).Error("Reservation creation failed")
		response.RespondError(ctx, http.StatusInternalServerError,
			response.CodeUnknownError, "Er is iets misgegaan bij het reserveren.")
	}
}

// webhookBody is the JSON shape some provider configurations deliver;
// form-encoded deliveries carry the same id as a form field.
type webhookBody struct {
	ID string `json:"id"`
}

// HandleWebhook handles POST /api/v1/payments/webhook. The provider delivers
// at least once; replays are answered 200 without side effects.
func (c *Controller) HandleWebhook(ctx *gin.Context) {
	paymentID := c.extractPaymentID(ctx)
	if paymentID == "" {
		response.RespondError(ctx, http.StatusBadRequest,
			response.CodeMissingPaymentID, "Missing payment id")
		return
	}

	outcome, err := c.reconciler.Process(ctx.Request.Context(), paymentID)
	if err != nil {
		c.respondWebhookError(ctx, paymentID, err)
		return
	}

	switch outcome.Kind {
	case OutcomeConfirmed:
		response.RespondJSON(ctx, "success", http.StatusOK,
			"Booking confirmed", gin.H{"paymentId": paymentID}, nil)
	case OutcomeDuplicate:
		response.RespondJSON(ctx, "success", http.StatusOK,
			"Payment already processed", gin.H{"paymentId": paymentID}, nil)
	default:
		// Released or still pending: the payment did not complete
		response.RespondError(ctx, http.StatusBadRequest,
			response.CodePaymentNotPaid, "Payment not completed")
	}
}

func (c *Controller) extractPaymentID(ctx *gin.Context) string {
	if strings.Contains(ctx.ContentType(), "json") {
		var body webhookBody
		if err := ctx.ShouldBindJSON(&body); err == nil {
			return strings.TrimSpace(body.ID)
		}
		return ""
	}
	return strings.TrimSpace(ctx.PostForm("id"))
}

func (c *Controller) respondWebhookError(ctx *gin.Context, paymentID string, err error) {
	switch {
	case errors.Is(err, payments.ErrPaymentNotFound):
		response.RespondError(ctx, http.StatusNotFound,
			response.CodeMissingPaymentID, "Unknown payment id")
	case errors.Is(err, ErrReservationNotFound):
		// A payment we never created a reservation for; acknowledging it
		// would hide a real inconsistency, so answer 404 and keep the log.
		c.log.WithPaymentID(paymentID).Error("Webhook for unknown reservation")
		response.RespondError(ctx, http.StatusNotFound,
			response.CodeUnknownError, "No reservation for this payment")
	case errors.Is(err, payments.ErrGateway):
		response.RespondError(ctx, http.StatusBadGateway,
			response.CodeProviderError, "Payment provider unavailable")
	default:
		// Processing failed mid-transition; a non-2xx answer makes the
		// provider redeliver, which re-drives the settlement.
		c.log.WithPaymentID(paymentID).WithError(err).Error("Webhook processing failed")
		response.RespondError(ctx, http.StatusInternalServerError,
			response.CodeUnknownError, "Failed to process webhook")
	}
}

// RunSweep handles POST /api/v1/internal/sweep. Guarded by the scheduler
// token middleware; dryRun=true reports without touching anything.
func (c *Controller) RunSweep(ctx *gin.Context) {
	dryRun := ctx.Query("dryRun") == "true"

	report, err := c.sweeper.Run(ctx.Request.Context(), dryRun)
	if err != nil {
		c.log.WithError(err).Error("Sweep run failed")
		response.RespondError(ctx, http.StatusInternalServerError,
			response.CodeUnknownError, "Failed to run sweep")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK,
		"Sweep completed", report, nil)
}
