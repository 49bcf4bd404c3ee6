package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	return &models.Message{}, f.err
}

type fakeUsers map[int64]*model.User

func (f fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	return f[id], nil
}

func telegramID(id int64) *int64 { return &id }

func testRequest() *model.BookingRequest {
	day := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	return &model.BookingRequest{
		ID:           7,
		InstructorID: 1,
		ClientID:     2,
		StartDate:    day,
		EndDate:      day.AddDate(0, 0, 1),
		TimeSlots:    []string{"09:00", "10:00"},
		Status:       model.BookingStatusPending,
	}
}

func TestTelegramNotifierRoutesMessages(t *testing.T) {
	sender := &fakeSender{}
	users := fakeUsers{
		1: {ID: 1, TelegramID: telegramID(1001)},
		2: {ID: 2, TelegramID: telegramID(2002)},
	}
	n := NewTelegramNotifier(sender, users, zap.NewNop())
	ctx := context.Background()
	req := testRequest()

	n.BookingRequested(ctx, req, time.Date(2025, time.January, 3, 10, 0, 0, 0, time.UTC))
	n.BookingAccepted(ctx, req)
	n.HoldExpired(ctx, req)

	require.Len(t, sender.sent, 3)
	assert.Equal(t, int64(1001), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "/accept 7")
	assert.Contains(t, sender.sent[0].Text, "03.01.2025 10:00")
	assert.Equal(t, int64(2002), sender.sent[1].ChatID)
	assert.Contains(t, sender.sent[1].Text, "принята")
	assert.Equal(t, int64(2002), sender.sent[2].ChatID)
}

func TestTelegramNotifierSkipsUsersWithoutChat(t *testing.T) {
	sender := &fakeSender{err: errors.New("blocked by user")}
	users := fakeUsers{2: {ID: 2}}
	n := NewTelegramNotifier(sender, users, zap.NewNop())

	n.BookingRejected(context.Background(), testRequest())
	n.BookingRequested(context.Background(), testRequest(), time.Now())

	assert.Empty(t, sender.sent)
}

func TestDescribeRequest(t *testing.T) {
	req := testRequest()
	assert.Equal(t, "📅 06.01.2025 - 07.01.2025\n🕐 09:00, 10:00\n📊 Статус: ⏳ Ожидает ответа", DescribeRequest(req))

	req.EndDate = req.StartDate
	req.TimeSlots = nil
	req.HoursPerDay = 2
	req.Status = model.BookingStatusExpired
	assert.Equal(t, "📅 06.01.2025\n🕐 2 ч. в день с утра\n📊 Статус: ⌛ Истекла", DescribeRequest(req))
}
