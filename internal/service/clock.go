package service

import "time"

// Clock источник текущего времени, подменяется в тестах
type Clock interface {
	Now() time.Time
}

// WallClock настенное время инструктора без часового пояса
type WallClock struct{}

func (c WallClock) Now() time.Time {
	return c.Strip(time.Now())
}

// Strip сохраняет показания часов и отбрасывает зону
func (WallClock) Strip(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
