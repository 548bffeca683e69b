package courses

import (
	"errors"
	"net/http"

	"kleihaven/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// ListCourses handles GET /api/v1/courses
func (c *Controller) ListCourses(ctx *gin.Context) {
	courses, err := c.service.ListCourses(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, http.StatusInternalServerError,
			response.CodeUnknownError, "Failed to fetch courses")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK,
		"Courses retrieved successfully", courses, nil)
}

// GetCourse handles GET /api/v1/courses/:id
func (c *Controller) GetCourse(ctx *gin.Context) {
	courseID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, http.StatusBadRequest,
			response.CodeValidationError, "Invalid course ID")
		return
	}

	course, err := c.service.GetCourse(ctx.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			response.RespondError(ctx, http.StatusNotFound,
				response.CodeCourseNotFound, "De gekozen cursus bestaat niet meer.")
			return
		}
		response.RespondError(ctx, http.StatusInternalServerError,
			response.CodeUnknownError, "Failed to fetch course")
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK,
		"Course retrieved successfully", course, nil)
}

// ReplacePeriods handles PUT /api/v1/courses/:id/periods
func (c *Controller) ReplacePeriods(ctx *gin.Context) {
	courseID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, http.StatusBadRequest,
			response.CodeValidationError, "Invalid course ID")
		return
	}

	var req ReplacePeriodsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest,
			"Invalid request body", nil, err.Error())
		return
	}

	periods := make([]Period, 0, len(req.Periods))
	for _, in := range req.Periods {
		p := Period{
			StartDate:           in.StartDate,
			EndDate:             in.EndDate,
			TimeInfo:            in.TimeInfo,
			TotalSpots:          in.TotalSpots,
			BookedSpots:         in.BookedSpots,
			PendingReservations: in.PendingReservations,
			Version:             in.Version,
		}
		if in.ID != "" {
			p.ID = uuid.MustParse(in.ID) // validated by binding tag
		}
		periods = append(periods, p)
	}

	course, err := c.service.ReplacePeriods(ctx.Request.Context(), courseID, periods)
	if err != nil {
		switch {
		case errors.Is(err, ErrCourseNotFound):
			response.RespondError(ctx, http.StatusNotFound,
				response.CodeCourseNotFound, "De gekozen cursus bestaat niet meer.")
		case errors.Is(err, ErrStoreConflict):
			response.RespondError(ctx, http.StatusConflict,
				response.CodeValidationError, "Course was modified concurrently, re-read and retry")
		default:
			response.RespondError(ctx, http.StatusInternalServerError,
				response.CodeUnknownError, "Failed to update periods")
		}
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK,
		"Periods updated successfully", course, nil)
}
