// Package httpapi HTTP API ядра бронирования для сервисов создания и управления заявками
package httpapi

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services зависимости API
type Services struct {
	Availability *service.AvailabilityService
	Reservation  *service.ReservationService
	Holds        *service.HoldService
	Bookings     *service.BookingService
	WorkingHours *service.WorkingHoursService
	Calendar     *service.CalendarService
}

type API struct {
	svc    Services
	logger *zap.Logger
}

// NewRouter собирает gin engine со всеми маршрутами
func NewRouter(svc Services, logger *zap.Logger) *gin.Engine {
	a := &API{svc: svc, logger: logger}

	r := gin.New()
	r.Use(a.requestLogger(), a.recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")

	instructors := api.Group("/instructors/:id")
	instructors.GET("/availability", a.getAvailability)
	instructors.GET("/availability/check", a.checkAvailability)
	instructors.GET("/working-hours", a.listWorkingHours)
	instructors.PUT("/working-hours", a.setWorkingHours)
	instructors.DELETE("/working-hours/:day", a.deactivateWorkingHours)
	instructors.POST("/blocks", a.addManualBlock)
	instructors.DELETE("/blocks/:blockId", a.removeManualBlock)
	instructors.PUT("/external-blocks", a.replaceExternalBlocks)

	bookings := api.Group("/bookings")
	bookings.POST("", a.createBooking)
	bookings.GET("/:id", a.getBooking)
	bookings.POST("/:id/accept", a.acceptBooking)
	bookings.POST("/:id/reject", a.rejectBooking)
	bookings.POST("/:id/cancel", a.cancelBooking)
	bookings.POST("/:id/holds", a.createHolds)
	bookings.DELETE("/:id/holds", a.releaseHolds)
	bookings.POST("/:id/confirm", a.confirmHolds)
	bookings.GET("/:id/can-accept", a.canAccept)

	api.POST("/holds/cleanup", a.cleanupHolds)

	return r
}

// requestLogger пишет строку лога на каждый запрос
func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		a.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// recovery превращает панику в 500 с JSON телом
func (a *API) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				a.logger.Error("Unhandled panic", zap.Any("error", rec), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "internal server error"})
			}
		}()
		c.Next()
	}
}
