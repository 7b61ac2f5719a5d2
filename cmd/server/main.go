package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/iliyamo/stadium-booking/internal/config"
	"github.com/iliyamo/stadium-booking/internal/database"
	"github.com/iliyamo/stadium-booking/internal/handler"
	"github.com/iliyamo/stadium-booking/internal/logging"
	"github.com/iliyamo/stadium-booking/internal/notify"
	"github.com/iliyamo/stadium-booking/internal/queue"
	"github.com/iliyamo/stadium-booking/internal/repository"
	"github.com/iliyamo/stadium-booking/internal/repository/memory"
	"github.com/iliyamo/stadium-booking/internal/router"
	"github.com/iliyamo/stadium-booking/internal/service"
)

func main() {
	cfg := config.Load()
	log := logging.NewForEnv(cfg.Env)
	logging.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, db := openStore(ctx, cfg)
	if db != nil {
		defer db.Close()
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var publisher queue.Publisher = queue.NopPublisher{}
	var background conc.WaitGroup
	if cfg.AMQPURL != "" {
		p, err := queue.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal("connect to broker", "err", err)
		}
		defer p.Close()
		publisher = p

		events := &queue.EventLog{Path: cfg.EventLogPath}
		if cfg.TelegramToken != "" {
			tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
			if err != nil {
				log.Warn("telegram disabled", "err", err)
			} else {
				events.Notifier = tg
			}
		}
		background.Go(func() {
			queue.RunConsumer(ctx, queue.ConsumerConfig{
				URL:      cfg.AMQPURL,
				Exchange: cfg.AMQPExchange,
				Queue:    "booking-log",
			}, events)
		})
	} else {
		log.Warn("AMQP_URL not set, booking events are not published")
	}

	slots := service.NewSlotStore(store)
	coord := service.NewCoordinator(store, slots, publisher)
	ledger := service.NewBookingLedger(store, slots, coord)

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	e := router.New(router.Handlers{
		Health:    handler.Health(pinger),
		Auth:      handler.NewAuthHandler(cfg, store),
		Stadiums:  handler.NewStadiumHandler(service.NewStadiumService(store), slots),
		Bookings:  handler.NewBookingHandler(ledger, coord),
		Teams:     handler.NewTeamHandler(service.NewTeamService(store)),
		Analytics: handler.NewAnalyticsHandler(service.NewAnalyticsService(store)),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Logger:    log.With("component", "http"),
	})

	addr := ":" + cfg.Port
	background.Go(func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "store", string(cfg.Store))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "err", err)
			stop()
		}
	})

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	background.Wait()
}

// openStore returns the configured record store. The *sql.DB is nil for the
// in-memory driver.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, *sql.DB) {
	if cfg.Store == config.StoreMemory {
		logging.Default().Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	}
	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		logging.Default().Fatal("open database", "err", err)
	}
	if cfg.RunMigrations {
		if err := database.Migrate(db); err != nil {
			logging.Default().Fatal("migrate database", "err", err)
		}
	}
	return repository.NewSQLStore(db), db
}
