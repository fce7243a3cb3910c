package httpserver

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/apperr"
)

// StatusFor maps an error to the response status. Only not-found and
// validation failures get their own codes; everything else is a 500.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError logs err, reports server errors to sentry when enabled and
// aborts the request with {"detail": message}.
func AbortWithError(c *gin.Context, logger *zap.Logger, err error) {
	status := StatusFor(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("kind", apperr.KindOf(err).String()),
		zap.String("request_id", RequestIDFrom(c)),
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	} else {
		logger.Debug("request rejected", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"detail": apperr.Message(err)})
}

// AbortWithValidation is a shortcut for malformed request input.
func AbortWithValidation(c *gin.Context, logger *zap.Logger, err error, message string) {
	AbortWithError(c, logger, apperr.Validation(err, "%s", message))
}
