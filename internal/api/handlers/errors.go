package handlers

import (
	"errors"
	"net/http"

	"pv-configurator/internal/api/models"
	"pv-configurator/internal/data"
	"pv-configurator/internal/model"

	"github.com/gin-gonic/gin"
)

// respondError maps engine error kinds onto HTTP statuses and error codes.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, model.ErrUnknownComponent):
		status, code = http.StatusNotFound, "UNKNOWN_COMPONENT"
	case errors.Is(err, model.ErrLocationDataUnavailable):
		status, code = http.StatusServiceUnavailable, "LOCATION_DATA_UNAVAILABLE"
	case errors.Is(err, model.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_INPUT"
	}

	detail := models.ErrorDetail{
		Code:      code,
		Message:   err.Error(),
		Retryable: model.IsRetryable(err),
	}
	var me *model.Error
	if errors.As(err, &me) {
		detail.Message = me.Message
		detail.Details = map[string]interface{}{"operation": me.Op}
	}
	var pe *data.PVGISError
	if errors.As(err, &pe) {
		if detail.Details == nil {
			detail.Details = map[string]interface{}{}
		}
		detail.Details["upstream_code"] = pe.Code
		detail.Details["upstream_message"] = pe.Message
		if pe.StatusCode != 0 {
			detail.Details["upstream_status"] = pe.StatusCode
		}
	}

	_ = c.Error(err)
	c.JSON(status, models.ErrorResponse{Error: detail})
}

// invalidRequest answers a body or query that failed to bind.
func invalidRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_INPUT",
			Message: err.Error(),
		},
	})
}
