package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/go-telegram/bot/models"
)

// Префиксы callback data для кнопок заявок
const (
	CallbackAccept = "accept:"
	CallbackReject = "reject:"
)

// commandArg возвращает аргумент команды: "/accept 12" -> "12"
func commandArg(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// parseID разбирает номер заявки
func parseID(raw string) (int64, error) {
	if raw == "" {
		return 0, ErrMissingArgument
	}
	raw = strings.TrimPrefix(raw, "#")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidArgument, raw)
	}
	return id, nil
}

// parseWeekStart дата начала недели из аргумента или сегодняшний день
func parseWeekStart(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return model.DateOf(now), nil
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidArgument, raw)
	}
	return date, nil
}

// FormatBooking форматирует заявку для отображения
func FormatBooking(req *model.BookingRequest) string {
	return fmt.Sprintf("📝 Заявка #%d\n\n%s\n📨 Создана: %s",
		req.ID,
		notify.DescribeRequest(req),
		req.CreatedAt.Format("02.01.2006 15:04"),
	)
}

// decisionKeyboard кнопки принять/отклонить под заявкой
func decisionKeyboard(bookingID int64) *models.InlineKeyboardMarkup {
	id := strconv.FormatInt(bookingID, 10)
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Принять", CallbackData: CallbackAccept + id},
				{Text: "❌ Отклонить", CallbackData: CallbackReject + id},
			},
		},
	}
}
