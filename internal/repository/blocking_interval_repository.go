package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BlockingIntervalRepository интервалы занятости инструкторов всех источников
type BlockingIntervalRepository struct {
	*base.Repository
}

func NewBlockingIntervalRepository(pool *pgxpool.Pool) *BlockingIntervalRepository {
	return &BlockingIntervalRepository{Repository: base.NewRepository(pool)}
}

const blockColumns = `id, instructor_id, start_datetime, end_datetime, all_day, source, booking_request_id, google_event_id, expires_at, created_at`

const promoteHoldsQuery = `
	UPDATE blocking_intervals
	SET source = 'booking_confirmed', expires_at = NULL
	WHERE booking_request_id = $1 AND source = 'hold_pending'
	RETURNING ` + blockColumns

const insertBlockQuery = `
	INSERT INTO blocking_intervals (` + blockColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// ListByInstructorRange интервалы инструктора, задевающие [from, to)
func (r *BlockingIntervalRepository) ListByInstructorRange(ctx context.Context, instructorID int64, from, to time.Time) ([]*model.BlockingInterval, error) {
	query := `SELECT ` + blockColumns + `
		FROM blocking_intervals
		WHERE instructor_id = $1 AND start_datetime < $3 AND end_datetime > $2
		ORDER BY start_datetime
	`

	blocks, err := queryBlocks(ctx, r.Pool(), query, instructorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list instructor blocks: %w", err)
	}
	return blocks, nil
}

// ListByBooking все интервалы заявки
func (r *BlockingIntervalRepository) ListByBooking(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	query := `SELECT ` + blockColumns + `
		FROM blocking_intervals
		WHERE booking_request_id = $1
		ORDER BY start_datetime
	`

	blocks, err := queryBlocks(ctx, r.Pool(), query, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("list booking blocks: %w", err)
	}
	return blocks, nil
}

// PromoteHolds переводит удержания заявки в booking_confirmed на месте
func (r *BlockingIntervalRepository) PromoteHolds(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	blocks, err := queryBlocks(ctx, r.Pool(), promoteHoldsQuery, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("promote holds: %w", err)
	}
	return blocks, nil
}

// DeleteHolds удаляет удержания заявки и возвращает удалённые строки
func (r *BlockingIntervalRepository) DeleteHolds(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	query := `
		DELETE FROM blocking_intervals
		WHERE booking_request_id = $1 AND source = 'hold_pending'
		RETURNING ` + blockColumns

	blocks, err := queryBlocks(ctx, r.Pool(), query, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("delete holds: %w", err)
	}
	return blocks, nil
}

// ExpiredHoldGroups заявки, у которых есть просроченные удержания
func (r *BlockingIntervalRepository) ExpiredHoldGroups(ctx context.Context, now time.Time) ([]int64, error) {
	query := `
		SELECT DISTINCT booking_request_id
		FROM blocking_intervals
		WHERE source = 'hold_pending' AND expires_at < $1
		ORDER BY booking_request_id
	`

	rows, err := r.Pool().Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan expired holds: %w", err)
	}
	return ids, nil
}

// ExpireGroup удаляет просроченные удержания заявки и переводит её из pending в expired
// в одной транзакции. Откат оставляет удержания на месте до следующей очистки.
func (r *BlockingIntervalRepository) ExpireGroup(ctx context.Context, bookingRequestID int64, now time.Time) (int64, bool, error) {
	var (
		deleted int64
		expired bool
	)

	err := r.InTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		n, err := base.ExecAffected(ctx, tx, `
			DELETE FROM blocking_intervals
			WHERE booking_request_id = $1 AND source = 'hold_pending' AND expires_at < $2
		`, bookingRequestID, now)
		if err != nil {
			return fmt.Errorf("delete expired holds: %w", err)
		}

		m, err := base.ExecAffected(ctx, tx, `
			UPDATE booking_requests
			SET status = 'expired', updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
		`, bookingRequestID)
		if err != nil {
			return fmt.Errorf("expire booking request: %w", err)
		}

		deleted, expired = n, m > 0
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return deleted, expired, nil
}

// AcceptGroup переводит заявку в accepted и продвигает её удержания в одной транзакции
func (r *BlockingIntervalRepository) AcceptGroup(ctx context.Context, bookingRequestID int64) ([]*model.BlockingInterval, error) {
	var promoted []*model.BlockingInterval

	err := r.InTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		n, err := base.ExecAffected(ctx, tx, `
			UPDATE booking_requests
			SET status = 'accepted', updated_at = NOW()
			WHERE id = $1 AND status IN ('pending', 'viewed')
		`, bookingRequestID)
		if err != nil {
			return fmt.Errorf("accept booking request: %w", err)
		}
		if n == 0 {
			return service.ErrBookingNotPending
		}

		promoted, err = queryBlocks(ctx, tx, promoteHoldsQuery, bookingRequestID)
		if err != nil {
			return fmt.Errorf("promote holds: %w", err)
		}
		if len(promoted) == 0 {
			return service.ErrNoHolds
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return promoted, nil
}

// Create вставляет один интервал
func (r *BlockingIntervalRepository) Create(ctx context.Context, block *model.BlockingInterval) error {
	if _, err := r.Pool().Exec(ctx, insertBlockQuery, blockArgs(block)...); err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

// DeleteManual удаляет ручной блок инструктора
func (r *BlockingIntervalRepository) DeleteManual(ctx context.Context, instructorID int64, id uuid.UUID) (bool, error) {
	n, err := base.ExecAffected(ctx, r.Pool(), `
		DELETE FROM blocking_intervals
		WHERE id = $1 AND instructor_id = $2 AND source = 'manual'
	`, id, instructorID)
	if err != nil {
		return false, fmt.Errorf("delete manual block: %w", err)
	}
	return n > 0, nil
}

// ReplaceExternal атомарно заменяет блоки внешнего календаря инструктора
func (r *BlockingIntervalRepository) ReplaceExternal(ctx context.Context, instructorID int64, blocks []*model.BlockingInterval) error {
	return r.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM blocking_intervals
			WHERE instructor_id = $1 AND source = 'external_calendar'
		`, instructorID)
		if err != nil {
			return fmt.Errorf("delete external blocks: %w", err)
		}

		return insertBlocks(ctx, tx, blocks)
	})
}

// Reserve открывает транзакцию резервирования. Транзакционная advisory блокировка
// по инструктору сериализует попытки даже когда пересекающихся строк ещё нет.
func (r *BlockingIntervalRepository) Reserve(ctx context.Context, instructorID int64, fn func(ctx context.Context, tx service.ReservationTx) error) error {
	return r.InTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, instructorID); err != nil {
			return fmt.Errorf("lock instructor: %w", err)
		}
		return fn(ctx, &reservationTx{tx: tx})
	})
}

type reservationTx struct {
	tx pgx.Tx
}

func (t *reservationTx) DeleteHolds(ctx context.Context, bookingRequestID int64) (int64, error) {
	return base.ExecAffected(ctx, t.tx, `
		DELETE FROM blocking_intervals
		WHERE booking_request_id = $1 AND source = 'hold_pending'
	`, bookingRequestID)
}

func (t *reservationTx) LockRange(ctx context.Context, instructorID, excludeBookingID int64, from, to time.Time) ([]*model.BlockingInterval, error) {
	query := `SELECT ` + blockColumns + `
		FROM blocking_intervals
		WHERE instructor_id = $1
			AND start_datetime < $4 AND end_datetime > $3
			AND (booking_request_id IS NULL OR booking_request_id <> $2)
		ORDER BY start_datetime
		FOR UPDATE
	`
	return queryBlocks(ctx, t.tx, query, instructorID, excludeBookingID, from, to)
}

func (t *reservationTx) InsertHolds(ctx context.Context, blocks []*model.BlockingInterval) error {
	return insertBlocks(ctx, t.tx, blocks)
}

func insertBlocks(ctx context.Context, tx pgx.Tx, blocks []*model.BlockingInterval) error {
	if len(blocks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, b := range blocks {
		batch.Queue(insertBlockQuery, blockArgs(b)...)
	}

	br := tx.SendBatch(ctx, batch)
	for range blocks {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert block: %w", err)
		}
	}
	return br.Close()
}

func blockArgs(b *model.BlockingInterval) []any {
	return []any{
		b.ID,
		b.InstructorID,
		b.StartDatetime,
		b.EndDatetime,
		b.AllDay,
		b.Source,
		b.BookingRequestID,
		b.GoogleEventID,
		b.ExpiresAt,
		b.CreatedAt,
	}
}

func queryBlocks(ctx context.Context, db base.DBTX, query string, args ...any) ([]*model.BlockingInterval, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []*model.BlockingInterval
	for rows.Next() {
		var b model.BlockingInterval
		err := rows.Scan(
			&b.ID,
			&b.InstructorID,
			&b.StartDatetime,
			&b.EndDatetime,
			&b.AllDay,
			&b.Source,
			&b.BookingRequestID,
			&b.GoogleEventID,
			&b.ExpiresAt,
			&b.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, &b)
	}

	return blocks, rows.Err()
}
