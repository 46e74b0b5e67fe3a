package api

import (
	"net/http"

	"clipforge/editor-api/pkg/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortWithError maps a service error to a response. Operation errors are
// logged server-side and surface as a generic 500
func abortWithError(c *gin.Context, requestID string, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindAccessDenied:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		zap.L().Error("Request failed", zap.String("requestID", requestID), zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":     apperr.Message(err),
		"requestID": requestID,
	})
}
