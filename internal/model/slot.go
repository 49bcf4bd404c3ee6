package model

import "time"

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBlocked   SlotStatus = "blocked"
	SlotStatusPending   SlotStatus = "pending"
	SlotStatusBooked    SlotStatus = "booked"
)

// Slot вычисляемая ячейка сетки доступности, не хранится в БД
type Slot struct {
	Date        time.Time    `json:"date"`
	StartTime   TimeOfDay    `json:"start_time"`
	EndTime     TimeOfDay    `json:"end_time"`
	Status      SlotStatus   `json:"status"`
	BlockSource *BlockSource `json:"block_source,omitempty"`
	BookingID   *int64       `json:"booking_id,omitempty"`
}

// Start абсолютное начало слота
func (s Slot) Start() time.Time { return s.StartTime.On(s.Date) }

// End абсолютный конец слота
func (s Slot) End() time.Time { return s.EndTime.On(s.Date) }

// DayAvailability сетка слотов на один календарный день
type DayAvailability struct {
	Date         time.Time `json:"date"`
	DayOfWeek    int       `json:"day_of_week"`
	IsWorkingDay bool      `json:"is_working_day"`
	Slots        []Slot    `json:"slots"`
}
