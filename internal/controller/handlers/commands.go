package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/controller/render"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"/start - Начать работу с ботом\n" +
	"/help - Показать эту справку\n\n" +
	"Для инструкторов:\n" +
	"/becomeinstructor - Зарегистрироваться как инструктор\n" +
	"/pending - Заявки, ожидающие ответа\n" +
	"/accept <номер> - Принять заявку\n" +
	"/reject <номер> - Отклонить заявку\n" +
	"/availability [ГГГГ-ММ-ДД] - Сетка доступности на неделю"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	user, err := h.userService.RegisterUser(ctx, from.ID, from.Username, from.FirstName, false)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Привет, %s!\n\nЗдесь инструкторы получают заявки на занятия и отвечают на них.\n\n%s",
		user.FirstName, helpText,
	), nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleBecomeInstructor обрабатывает команду /becomeinstructor
func (h *Handlers) HandleBecomeInstructor(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	user, err := h.userService.RegisterUser(ctx, from.ID, from.Username, from.FirstName, true)
	if err != nil {
		h.logger.Error("Failed to register instructor", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"🎓 Готово! Ваш ID инструктора: %d\n\nНовые заявки будут приходить сюда.\n/pending - заявки, ожидающие ответа",
		user.ID,
	), nil)
}

// HandlePending показывает заявки инструктора с кнопками решения
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireInstructor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	pending, err := h.bookingService.ListPending(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to list pending bookings", zap.Int64("instructor_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, ErrorMessage(err))
		return
	}

	if len(pending) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Нет заявок, ожидающих ответа", nil)
		return
	}

	for _, req := range pending {
		if err := h.bookingService.MarkViewed(ctx, req.ID, user.ID); err != nil {
			h.logger.Warn("Failed to mark booking viewed", zap.Int64("booking_request_id", req.ID), zap.Error(err))
		}
		h.sendMessage(ctx, b, chatID, FormatBooking(req), decisionKeyboard(req.ID))
	}
}

// HandleAccept обрабатывает /accept <номер>
func (h *Handlers) HandleAccept(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireInstructor(ctx, b, update)
	if !ok {
		return
	}
	h.decide(ctx, b, update.Message.Chat.ID, user.ID, commandArg(update.Message.Text), true)
}

// HandleReject обрабатывает /reject <номер>
func (h *Handlers) HandleReject(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireInstructor(ctx, b, update)
	if !ok {
		return
	}
	h.decide(ctx, b, update.Message.Chat.ID, user.ID, commandArg(update.Message.Text), false)
}

// HandleCallbackQuery обрабатывает кнопки под заявками
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}); err != nil {
		h.logger.Warn("Failed to answer callback query", zap.Error(err))
	}

	user, ok := h.requireUser(ctx, b, query.From.ID, query.From.ID)
	if !ok {
		return
	}

	var (
		raw    string
		accept bool
	)
	switch {
	case strings.HasPrefix(query.Data, CallbackAccept):
		raw, accept = strings.TrimPrefix(query.Data, CallbackAccept), true
	case strings.HasPrefix(query.Data, CallbackReject):
		raw = strings.TrimPrefix(query.Data, CallbackReject)
	default:
		h.logger.Warn("Unknown callback data", zap.String("data", query.Data))
		return
	}

	h.decide(ctx, b, query.From.ID, user.ID, raw, accept)
}

func (h *Handlers) decide(ctx context.Context, b *bot.Bot, chatID, instructorID int64, rawID string, accept bool) {
	bookingID, err := parseID(rawID)
	if err != nil {
		h.sendError(ctx, b, chatID, ErrorMessage(err))
		return
	}

	if accept {
		req, err := h.bookingService.AcceptBooking(ctx, bookingID, instructorID)
		if err != nil {
			h.logger.Info("Accept failed", zap.Int64("booking_request_id", bookingID), zap.Error(err))
			h.sendError(ctx, b, chatID, ErrorMessage(err))
			return
		}
		h.sendMessage(ctx, b, chatID, "✅ Заявка принята\n\n"+FormatBooking(req), nil)
		return
	}

	req, err := h.bookingService.RejectBooking(ctx, bookingID, instructorID)
	if err != nil {
		h.logger.Info("Reject failed", zap.Int64("booking_request_id", bookingID), zap.Error(err))
		h.sendError(ctx, b, chatID, ErrorMessage(err))
		return
	}
	h.sendMessage(ctx, b, chatID, "❌ Заявка отклонена, слоты освобождены\n\n"+FormatBooking(req), nil)
}

// HandleAvailability присылает картинку с сеткой доступности на неделю
func (h *Handlers) HandleAvailability(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireInstructor(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	now := h.clock.Now()
	start, err := parseWeekStart(commandArg(update.Message.Text), now)
	if err != nil {
		h.sendError(ctx, b, chatID, ErrorMessage(err))
		return
	}

	days, err := h.availabilityService.GenerateSlotsForDateRange(ctx, user.ID, start, start.AddDate(0, 0, 6), availability.DefaultSlotDuration)
	if err != nil {
		h.logger.Error("Failed to build availability", zap.Int64("instructor_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, ErrorMessage(err))
		return
	}

	img, err := render.WeekImage(days, now)
	if err != nil {
		h.logger.Error("Failed to render availability", zap.Error(err))
		h.sendError(ctx, b, chatID, ErrorMessage(err))
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "availability.png", Data: bytes.NewReader(img)},
		Caption: fmt.Sprintf("🗓 Доступность с %s", start.Format("02.01.2006")),
	})
	if err != nil {
		h.logger.Error("Failed to send availability image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
