package response

import "github.com/gin-gonic/gin"

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError writes an error envelope with a stable machine-readable code
func RespondError(c *gin.Context, httpStatus int, errorCode, message string) {
	c.JSON(httpStatus, StandardApiResponse{
		Status:     "error",
		StatusCode: httpStatus,
		Message:    message,
		Code:       errorCode,
	})
}
