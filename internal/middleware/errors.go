package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"todoapi/internal/apperr"
	"todoapi/internal/dto"
	"todoapi/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	labelValidation    = "Validation Error"
	labelNotFound      = "Todo not found"
	labelMissingField  = "Missing required field"
	labelInvalidType   = "Invalid data type"
	labelInternal      = "Internal Server Error"
	labelRouteNotFound = "Not Found"

	genericMessage = "Something went wrong"
)

// ErrorHandler renders the last error recorded on the request with c.Error.
// Internal error text is exposed only when exposeDetails is true.
func ErrorHandler(log *zap.Logger, exposeDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, body := Classify(err, exposeDetails)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("request_id", RequestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// Classify maps err onto an HTTP status and error envelope.
func Classify(err error, exposeDetails bool) (int, dto.ErrorResponse) {
	var (
		ve *apperr.ValidationError
		nf *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody(labelValidation, ve.Message)
	case errors.As(err, &nf):
		return http.StatusNotFound, errorBody(labelNotFound, nf.Message)
	case utils.IsPGNotNullViolation(err):
		return http.StatusBadRequest, errorBody(labelMissingField, "Please provide all required fields")
	case utils.IsPGInvalidTextRepresentation(err):
		return http.StatusBadRequest, errorBody(labelInvalidType, "Please check your input data types")
	}
	msg := genericMessage
	if exposeDetails {
		msg = err.Error()
	}
	return http.StatusInternalServerError, errorBody(labelInternal, msg)
}

// NotFound answers unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody(labelRouteNotFound,
			fmt.Sprintf("Route %s not found", c.Request.URL.RequestURI())))
	}
}

// Recovery turns a panic into the 500 envelope.
func Recovery(log *zap.Logger, exposeDetails bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		err := fmt.Errorf("panic: %v", recovered)
		log.Error("panic recovered",
			zap.String("request_id", RequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
			zap.Stack("stack"),
		)
		_, body := Classify(err, exposeDetails)
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

func errorBody(label, msg string) dto.ErrorResponse {
	return dto.ErrorResponse{Success: false, Error: label, Message: msg}
}
