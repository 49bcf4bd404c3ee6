package httpapi

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse единый формат ошибок API
type ErrorResponse struct {
	Message   string         `json:"message"`
	Details   string         `json:"details,omitempty"`
	Conflicts []conflictView `json:"conflicts,omitempty"`
}

type conflictView struct {
	Start  string            `json:"start"`
	End    string            `json:"end"`
	Source model.BlockSource `json:"source"`
}

// statusFor отображает ошибку сервиса на HTTP статус
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, service.ErrBlockNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSlotsUnavailable), errors.Is(err, service.ErrBookingNotPending):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotBookingOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrInvalidTimeSlot),
		errors.Is(err, service.ErrInvalidWorkingHour),
		errors.Is(err, service.ErrNothingToReserve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// JSONError отвечает ошибкой. Внутренние ошибки логируются и не раскрываются клиенту.
func (a *API) JSONError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, ErrorResponse{Message: "internal server error"})
		return
	}

	resp := ErrorResponse{Message: publicMessage(err), Details: err.Error()}

	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		for _, b := range conflict.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictView{
				Start:  b.StartDatetime.Format(wallTimeLayout),
				End:    b.EndDatetime.Format(wallTimeLayout),
				Source: b.Source,
			})
		}
	}

	c.JSON(status, resp)
}

func publicMessage(err error) string {
	for _, known := range []error{
		service.ErrBookingNotFound,
		service.ErrBlockNotFound,
		service.ErrSlotsUnavailable,
		service.ErrBookingNotPending,
		service.ErrNotBookingOwner,
		service.ErrInvalidDateRange,
		service.ErrInvalidTimeSlot,
		service.ErrInvalidWorkingHour,
		service.ErrNothingToReserve,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func badRequest(c *gin.Context, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
