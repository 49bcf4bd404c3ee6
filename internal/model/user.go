package model

import "time"

// User минимальная запись о пользователе для уведомлений
type User struct {
	ID           int64     `json:"id"`
	TelegramID   *int64    `json:"telegram_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	IsInstructor bool      `json:"is_instructor"`
	CreatedAt    time.Time `json:"created_at"`
}
