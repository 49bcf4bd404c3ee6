package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/app"
	"github.com/Freeeeeet/lesson_booking/internal/config"
	"github.com/Freeeeeet/lesson_booking/internal/controller"
	"github.com/Freeeeeet/lesson_booking/internal/controller/httpapi"
	"github.com/Freeeeeet/lesson_booking/internal/notify"
	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting lesson booking service",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Duration("hold_ttl", cfg.HoldTTL),
		zap.String("sweep_schedule", cfg.SweepSchedule),
	)

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to database")

	if cfg.MigrationsEnabled {
		migrator, err := app.NewMigrator(pool, logger)
		if err != nil {
			return err
		}
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		if err := migrator.Close(); err != nil {
			logger.Warn("Failed to close migrator", zap.Error(err))
		}
	}

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	hourRepo := repository.NewWorkingHourRepository(pool)
	bookingRepo := repository.NewBookingRequestRepository(pool)
	blockRepo := repository.NewBlockingIntervalRepository(pool)

	// Telegram опционален: без токена работает только HTTP API
	var (
		botInstance *bot.Bot
		notifier    service.Notifier = service.NopNotifier{}
	)
	if cfg.TelegramToken != "" {
		botInstance, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		notifier = notify.NewTelegramNotifier(botInstance, userRepo, logger)
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, bot and notifications are disabled")
	}

	// Сервисы
	clock := service.WallClock{}
	policy := service.DefaultHoldPolicy()
	policy.TTL = cfg.HoldTTL
	policy.AnchorHour = cfg.FallbackAnchor

	userService := service.NewUserService(userRepo, logger)
	availabilityService := service.NewAvailabilityService(hourRepo, blockRepo, logger)
	reservationService := service.NewReservationService(bookingRepo, blockRepo, clock, policy, logger)
	holdService := service.NewHoldService(bookingRepo, blockRepo, clock, policy, notifier, logger)
	bookingService := service.NewBookingService(bookingRepo, reservationService, holdService, clock, notifier, logger)

	scheduler, err := app.NewScheduler(holdService, cfg.SweepSchedule, logger)
	if err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Services{
			Availability: availabilityService,
			Reservation:  reservationService,
			Holds:        holdService,
			Bookings:     bookingService,
			WorkingHours: service.NewWorkingHoursService(hourRepo, logger),
			Calendar:     service.NewCalendarService(blockRepo, clock, logger),
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup

	if botInstance != nil {
		botController := controller.NewBotController(botInstance, userService, bookingService, availabilityService, clock, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			botController.Start(ctx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	wg.Wait()
	logger.Info("Service stopped")
	return nil
}
