package handlers

import (
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService         *service.UserService
	bookingService      *service.BookingService
	availabilityService *service.AvailabilityService
	clock               service.Clock
	logger              *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	bookingService *service.BookingService,
	availabilityService *service.AvailabilityService,
	clock service.Clock,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:         userService,
		bookingService:      bookingService,
		availabilityService: availabilityService,
		clock:               clock,
		logger:              logger,
	}
}
