package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkingHourRepository правила рабочих часов инструкторов
type WorkingHourRepository struct {
	*base.Repository
}

func NewWorkingHourRepository(pool *pgxpool.Pool) *WorkingHourRepository {
	return &WorkingHourRepository{Repository: base.NewRepository(pool)}
}

// ListActiveByInstructor активные правила инструктора, по одному на день недели
func (r *WorkingHourRepository) ListActiveByInstructor(ctx context.Context, instructorID int64) ([]*model.WorkingHourRule, error) {
	query := `
		SELECT id, instructor_id, day_of_week, start_minute, end_minute, season_start, season_end, is_active, created_at, updated_at
		FROM working_hour_rules
		WHERE instructor_id = $1 AND is_active
		ORDER BY day_of_week
	`

	rows, err := r.Pool().Query(ctx, query, instructorID)
	if err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}
	defer rows.Close()

	var rules []*model.WorkingHourRule
	for rows.Next() {
		rule, err := scanWorkingHourRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan working hours: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Upsert деактивирует текущее правило на этот день и вставляет новое
func (r *WorkingHourRepository) Upsert(ctx context.Context, rule *model.WorkingHourRule) error {
	return r.InTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE working_hour_rules
			SET is_active = FALSE, updated_at = NOW()
			WHERE instructor_id = $1 AND day_of_week = $2 AND is_active
		`, rule.InstructorID, rule.DayOfWeek)
		if err != nil {
			return fmt.Errorf("deactivate previous rule: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO working_hour_rules (instructor_id, day_of_week, start_minute, end_minute, season_start, season_end, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			RETURNING id, created_at
		`,
			rule.InstructorID,
			rule.DayOfWeek,
			int(rule.StartTime),
			int(rule.EndTime),
			monthDayValue(rule.SeasonStart),
			monthDayValue(rule.SeasonEnd),
		).Scan(&rule.ID, &rule.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert working hours: %w", err)
		}

		return nil
	})
}

// Deactivate выключает правило дня недели
func (r *WorkingHourRepository) Deactivate(ctx context.Context, instructorID int64, dayOfWeek int) (bool, error) {
	n, err := base.ExecAffected(ctx, r.Pool(), `
		UPDATE working_hour_rules
		SET is_active = FALSE, updated_at = NOW()
		WHERE instructor_id = $1 AND day_of_week = $2 AND is_active
	`, instructorID, dayOfWeek)
	if err != nil {
		return false, fmt.Errorf("deactivate working hours: %w", err)
	}
	return n > 0, nil
}

func scanWorkingHourRule(row pgx.Row) (*model.WorkingHourRule, error) {
	var (
		rule                   model.WorkingHourRule
		start, end             int
		seasonStart, seasonEnd *string
	)
	err := row.Scan(
		&rule.ID,
		&rule.InstructorID,
		&rule.DayOfWeek,
		&start,
		&end,
		&seasonStart,
		&seasonEnd,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.StartTime = model.TimeOfDay(start)
	rule.EndTime = model.TimeOfDay(end)

	if rule.SeasonStart, err = parseMonthDay(seasonStart); err != nil {
		return nil, err
	}
	if rule.SeasonEnd, err = parseMonthDay(seasonEnd); err != nil {
		return nil, err
	}

	return &rule, nil
}

func monthDayValue(md *model.MonthDay) *string {
	if md == nil {
		return nil
	}
	s := md.String()
	return &s
}

func parseMonthDay(s *string) (*model.MonthDay, error) {
	if s == nil {
		return nil, nil
	}
	md, err := model.ParseMonthDay(*s)
	if err != nil {
		return nil, err
	}
	return &md, nil
}
