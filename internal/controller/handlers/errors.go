package handlers

import (
	"errors"

	"github.com/Freeeeeet/lesson_booking/internal/service"
)

// Ошибки разбора команд
var (
	ErrMissingArgument = errors.New("missing command argument")
	ErrInvalidArgument = errors.New("invalid command argument")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingArgument):
		return "❌ Укажите номер заявки, например: /accept 12"
	case errors.Is(err, ErrInvalidArgument):
		return "❌ Неверный формат. Даты в формате ГГГГ-ММ-ДД, номера заявок числом"
	case errors.Is(err, service.ErrBookingNotFound):
		return "❌ Заявка не найдена"
	case errors.Is(err, service.ErrNotBookingOwner):
		return "❌ Это не ваша заявка"
	case errors.Is(err, service.ErrBookingNotPending):
		return "❌ Заявка уже обработана или истекла"
	case errors.Is(err, service.ErrSlotsUnavailable):
		return "❌ Слоты уже заняты другой подтверждённой записью"
	case errors.Is(err, service.ErrInvalidDateRange):
		return "❌ Неверный диапазон дат"
	case errors.Is(err, service.ErrInvalidTimeSlot):
		return "❌ Неверное время слота"
	default:
		return "❌ Произошла ошибка"
	}
}
