// Package respond turns service errors into JSON error responses
package respond

import (
	"errors"
	"net/http"

	"github.com/fork-archive-hub/drive-server/internal/apperr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindConflict:     http.StatusConflict,
	apperr.KindUnauthorized: http.StatusForbidden,
	apperr.KindPrecondition: http.StatusBadRequest,
	apperr.KindUpstream:     http.StatusBadGateway,
	apperr.KindCrypto:       http.StatusInternalServerError,
}

// Codes answered with something other than their kind's status
var codeStatus = map[string]int{
	apperr.ErrTeamMemberLimitReached.Code: http.StatusPaymentRequired,
	apperr.ErrTeamsNotPaid.Code:           http.StatusPaymentRequired,
}

// Override replaces the status of one error on a single route
type Override struct {
	Err    *apperr.Error
	Status int
}

// Status returns the HTTP status err maps to
func Status(err error, overrides ...Override) int {
	for _, o := range overrides {
		if errors.Is(err, o.Err) {
			return o.Status
		}
	}

	var e *apperr.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	if s, ok := codeStatus[e.Code]; ok {
		return s
	}

	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}

	return http.StatusInternalServerError
}

// Error aborts the request with the status and message of err. Messages of
// infrastructure, upstream and crypto failures are logged, never returned.
func Error(c *gin.Context, err error, overrides ...Override) {
	requestID := c.GetString("requestID")
	status := Status(err, overrides...)

	var e *apperr.Error
	if !errors.As(err, &e) {
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID), zap.String("route", c.FullPath()))

		c.AbortWithStatusJSON(status, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})
		return
	}

	msg := e.Msg
	switch e.Kind {
	case apperr.KindUpstream:
		zap.L().Warn("Upstream failure", zap.Error(err), zap.String("requestID", requestID), zap.String("route", c.FullPath()))
		if !errors.Is(err, apperr.ErrTeamsNotPaid) {
			msg = "Upstream service failed"
		}
	case apperr.KindCrypto:
		zap.L().Error("Crypto failure", zap.Error(err), zap.String("requestID", requestID))
		msg = "Internal server error"
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":     msg,
		"code":      e.Code,
		"requestID": requestID,
	})
}

// BadRequest aborts with a 400 and msg
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}
