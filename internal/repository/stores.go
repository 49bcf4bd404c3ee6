package repository

import "github.com/Freeeeeet/lesson_booking/internal/service"

var (
	_ service.UserStore        = (*UserRepository)(nil)
	_ service.WorkingHourStore = (*WorkingHourRepository)(nil)
	_ service.BookingStore     = (*BookingRequestRepository)(nil)
	_ service.BlockStore       = (*BlockingIntervalRepository)(nil)
)
