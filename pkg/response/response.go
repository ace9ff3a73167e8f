package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/internal/domain/apperror"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// Success writes a successful envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	}
	ctx.JSON(status, resp)
	return resp
}

// Error writes a failed envelope and returns it.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     err,
	}
	ctx.JSON(status, resp)
	return resp
}

// FromError translates an application error into an envelope. Field details are
// only exposed for validation and conflict failures; internal causes never are.
// Errors without a kind and dependency failures are logged.
func FromError(ctx *gin.Context, logger *logrus.Logger, err error) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		if logger != nil {
			logger.WithError(err).WithField("request_id", ctx.GetString("request_id")).Error("unhandled error")
		}
		Error[any](ctx, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	var details interface{}
	switch ae.Kind {
	case apperror.KindValidation, apperror.KindConflict:
		if ae.Field != "" {
			details = map[string]string{ae.Field: ae.Message}
		}
	case apperror.KindDependency, apperror.KindUnknown:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"request_id": ctx.GetString("request_id"),
				"kind":       ae.Kind.String(),
			}).Error(ae.Message)
		}
	}
	Error[any](ctx, ae.Kind.HTTPStatus(), ae.Message, details)
}
