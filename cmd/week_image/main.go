package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/availability"
	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/Freeeeeet/lesson_booking/internal/controller/render"
	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Рисует неделю доступности инструктора в PNG
func main() {
	instructorID := flag.Int64("instructor", 0, "instructor user id")
	week := flag.String("week", "", "any date of the week, YYYY-MM-DD (default: current week)")
	out := flag.String("out", "week_schedule.png", "output file")
	flag.Parse()

	if *instructorID <= 0 {
		log.Fatal("-instructor is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	now := service.WallClock{}.Now()
	day := now
	if *week != "" {
		day, err = time.Parse(time.DateOnly, *week)
		if err != nil {
			logger.Fatal("Invalid -week", zap.Error(err))
		}
	}
	start := model.DateOf(day)
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, -1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	availabilityService := service.NewAvailabilityService(
		repository.NewWorkingHourRepository(pool),
		repository.NewBlockingIntervalRepository(pool),
		logger,
	)

	days, err := availabilityService.GenerateSlotsForDateRange(ctx, *instructorID, start, start.AddDate(0, 0, 6), availability.DefaultSlotDuration)
	if err != nil {
		logger.Fatal("Failed to build availability", zap.Error(err))
	}

	img, err := render.WeekImage(days, now)
	if err != nil {
		logger.Fatal("Failed to render week", zap.Error(err))
	}

	if err := os.WriteFile(*out, img, 0o644); err != nil {
		logger.Fatal("Failed to write image", zap.Error(err))
	}

	logger.Info("Week image saved",
		zap.String("file", *out),
		zap.Int64("instructor_id", *instructorID),
		zap.String("week_start", start.Format(time.DateOnly)),
		zap.Int("bytes", len(img)),
	)
}
