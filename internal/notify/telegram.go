// Package notify доставляет уведомления о заявках в Telegram
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender часть *bot.Bot, нужная для отправки
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup источник Telegram ID участников
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// TelegramNotifier шлёт сообщения инструктору и клиенту. Ошибки только логируются.
type TelegramNotifier struct {
	sender Sender
	users  UserLookup
	logger *zap.Logger
}

var _ service.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(sender Sender, users UserLookup, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

func (n *TelegramNotifier) BookingRequested(ctx context.Context, req *model.BookingRequest, expiresAt time.Time) {
	n.send(ctx, req.InstructorID, req.ID, fmt.Sprintf(
		"📩 Новая заявка #%d\n\n%s\n\n⏳ Слоты удерживаются до %s\n\n/accept %d - принять\n/reject %d - отклонить",
		req.ID, DescribeRequest(req), expiresAt.Format("02.01.2006 15:04"), req.ID, req.ID,
	))
}

func (n *TelegramNotifier) BookingAccepted(ctx context.Context, req *model.BookingRequest) {
	n.send(ctx, req.ClientID, req.ID, fmt.Sprintf("✅ Заявка #%d принята\n\n%s", req.ID, DescribeRequest(req)))
}

func (n *TelegramNotifier) BookingRejected(ctx context.Context, req *model.BookingRequest) {
	n.send(ctx, req.ClientID, req.ID, fmt.Sprintf("❌ Заявка #%d отклонена инструктором", req.ID))
}

func (n *TelegramNotifier) HoldExpired(ctx context.Context, req *model.BookingRequest) {
	n.send(ctx, req.ClientID, req.ID, fmt.Sprintf(
		"⌛ Заявка #%d истекла: инструктор не ответил вовремя, слоты освобождены. Выберите время заново.", req.ID))
}

func (n *TelegramNotifier) send(ctx context.Context, userID, bookingID int64, text string) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Error("Failed to load notification recipient",
			zap.Int64("user_id", userID),
			zap.Int64("booking_request_id", bookingID),
			zap.Error(err),
		)
		return
	}
	if user == nil || user.TelegramID == nil {
		n.logger.Debug("Recipient has no telegram chat", zap.Int64("user_id", userID))
		return
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   text,
	})
	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.Int64("user_id", userID),
			zap.Int64("booking_request_id", bookingID),
			zap.Error(err),
		)
	}
}

// DescribeRequest даты и слоты заявки одной строкой на строку
func DescribeRequest(req *model.BookingRequest) string {
	dates := req.StartDate.Format("02.01.2006")
	if !req.EndDate.Equal(req.StartDate) {
		dates += " - " + req.EndDate.Format("02.01.2006")
	}

	slots := fmt.Sprintf("%d ч. в день с утра", req.HoursPerDay)
	if len(req.TimeSlots) > 0 {
		slots = strings.Join(req.TimeSlots, ", ")
	}

	return fmt.Sprintf("📅 %s\n🕐 %s\n📊 Статус: %s", dates, slots, StatusText(req.Status))
}

// StatusText статус заявки по-русски
func StatusText(status model.BookingStatus) string {
	switch status {
	case model.BookingStatusPending:
		return "⏳ Ожидает ответа"
	case model.BookingStatusViewed:
		return "👀 Просмотрена"
	case model.BookingStatusAccepted:
		return "✅ Принята"
	case model.BookingStatusRejected:
		return "❌ Отклонена"
	case model.BookingStatusExpired:
		return "⌛ Истекла"
	case model.BookingStatusCancelled:
		return "🚫 Отменена"
	case model.BookingStatusCompleted:
		return "🏁 Завершена"
	default:
		return string(status)
	}
}
