package courses

import (
	"kleihaven/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCourseRoutes configures all course catalog routes
func SetupCourseRoutes(rg *gin.RouterGroup, controller *Controller, schedulerToken string) {
	courses := rg.Group("/courses")
	{
		courses.GET("", controller.ListCourses)       // GET /api/v1/courses
		courses.GET("/:id", controller.GetCourse)     // GET /api/v1/courses/:id
	}

	// Period management is only reachable for the studio's own tooling
	admin := rg.Group("/courses")
	admin.Use(middleware.SchedulerToken(schedulerToken))
	{
		admin.PUT("/:id/periods", controller.ReplacePeriods) // PUT /api/v1/courses/:id/periods
	}
}
