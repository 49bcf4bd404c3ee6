package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRequestRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRequestRepository(pool *pgxpool.Pool) *BookingRequestRepository {
	return &BookingRequestRepository{pool: pool}
}

const bookingRequestColumns = `id, instructor_id, client_id, start_date, end_date, hours_per_day, time_slots, status, created_at, updated_at`

// Create создаёт заявку
func (r *BookingRequestRepository) Create(ctx context.Context, req *model.BookingRequest) error {
	query := `
		INSERT INTO booking_requests (instructor_id, client_id, start_date, end_date, hours_per_day, time_slots, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	slots := req.TimeSlots
	if slots == nil {
		slots = []string{}
	}

	err := r.pool.QueryRow(ctx, query,
		req.InstructorID,
		req.ClientID,
		req.StartDate,
		req.EndDate,
		req.HoursPerDay,
		slots,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create booking request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID, nil если её нет
func (r *BookingRequestRepository) GetByID(ctx context.Context, id int64) (*model.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + ` FROM booking_requests WHERE id = $1`

	req, err := scanBookingRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking request: %w", err)
	}

	return req, nil
}

// UpdateStatus меняет статус заявки
func (r *BookingRequestRepository) UpdateStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	query := `
		UPDATE booking_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	n, err := base.ExecAffected(ctx, r.pool, query, id, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update booking status: booking request %d not found", id)
	}

	return nil
}

// ListPendingByInstructor заявки инструктора в pending и viewed
func (r *BookingRequestRepository) ListPendingByInstructor(ctx context.Context, instructorID int64) ([]*model.BookingRequest, error) {
	query := `SELECT ` + bookingRequestColumns + `
		FROM booking_requests
		WHERE instructor_id = $1 AND status IN ('pending', 'viewed')
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list pending booking requests: %w", err)
	}
	defer rows.Close()

	var out []*model.BookingRequest
	for rows.Next() {
		req, err := scanBookingRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking request: %w", err)
		}
		out = append(out, req)
	}

	return out, rows.Err()
}

func scanBookingRequest(row pgx.Row) (*model.BookingRequest, error) {
	var req model.BookingRequest
	err := row.Scan(
		&req.ID,
		&req.InstructorID,
		&req.ClientID,
		&req.StartDate,
		&req.EndDate,
		&req.HoursPerDay,
		&req.TimeSlots,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
