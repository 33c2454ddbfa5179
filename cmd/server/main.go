package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/immo-backend/internal/clock"
	"github.com/ignatzorin/immo-backend/internal/config"
	"github.com/ignatzorin/immo-backend/internal/db"
	httpHandlers "github.com/ignatzorin/immo-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/immo-backend/internal/http/router"
	"github.com/ignatzorin/immo-backend/internal/logger"
	"github.com/ignatzorin/immo-backend/internal/repository"
	"github.com/ignatzorin/immo-backend/internal/scheduler"
	"github.com/ignatzorin/immo-backend/internal/service"
	"github.com/ignatzorin/immo-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	clk := clock.System()

	// Репозитории.
	contractRepo := repository.NewContractRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Уведомления и каналы доставки.
	notificationService := service.NewNotificationService(notificationRepo, clk, cfg.NotifyMaxAttempts)

	hub := ws.NewHub(ctx)
	go hub.Run()

	notificationService.RegisterChannel(hub)
	notificationService.RegisterChannel(service.NewLogChannel())

	// Движки жизненного цикла.
	contractService := service.NewContractService(contractRepo, notificationService, clk, cfg.RetractionWindow)
	paymentService := service.NewPaymentService(paymentRepo, contractRepo, notificationService, clk, cfg.EscrowHold, cfg.RetractionWindow)

	// Фоновые свиперы: активация договоров, освобождение escrow, повторная доставка.
	sweeper := scheduler.New(cfg.SweepInterval, cfg.SweepBudget,
		scheduler.Job{Name: "activate_due_contracts", Run: contractService.ActivateDueContracts},
		scheduler.Job{Name: "release_due_escrows", Run: paymentService.ReleaseDueEscrows},
		scheduler.Job{Name: "redeliver_pending_notifications", Run: notificationService.RedeliverPending},
	)
	sweeper.Start(ctx)

	// HTTP хэндлеры.
	contractHandler := httpHandlers.NewContractHandler(contractService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, contractHandler, paymentHandler, notificationHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
