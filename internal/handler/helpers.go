package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/fwforge/fwportal/internal/pkg/errors"
	"github.com/fwforge/fwportal/internal/pkg/response"
)

func getUserEmail(c *gin.Context) string {
	value, _ := c.Get("user_email")
	email, _ := value.(string)
	return email
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	var throttled *appErr.ThrottledError
	switch {
	case errors.As(err, &throttled):
		response.Error(c, http.StatusTooManyRequests, throttled.Error())
	case errors.Is(err, appErr.ErrTooManyAttempts):
		response.Error(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, appErr.ErrInvalidEmail),
		errors.Is(err, appErr.ErrNoChallenge),
		errors.Is(err, appErr.ErrCodeExpired),
		errors.Is(err, appErr.ErrInvalidCode),
		errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not found")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict")
	case errors.Is(err, appErr.ErrDelivery):
		response.Error(c, http.StatusInternalServerError, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
