package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/config"
	"github.com/iliyamo/ticket-lifecycle/internal/database"
	"github.com/iliyamo/ticket-lifecycle/internal/handler"
	"github.com/iliyamo/ticket-lifecycle/internal/mapper"
	"github.com/iliyamo/ticket-lifecycle/internal/middleware"
	"github.com/iliyamo/ticket-lifecycle/internal/monitoring"
	"github.com/iliyamo/ticket-lifecycle/internal/queue"
	"github.com/iliyamo/ticket-lifecycle/internal/realtime"
	"github.com/iliyamo/ticket-lifecycle/internal/repository"
	"github.com/iliyamo/ticket-lifecycle/internal/router"
	"github.com/iliyamo/ticket-lifecycle/internal/service"
	"github.com/iliyamo/ticket-lifecycle/internal/ticket"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not read .env: %v", err)
	}
	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystem()
	store, events, users, db := openStores(ctx, cfg, clk, logger)
	if db != nil {
		defer db.Close()
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	signer, err := ticket.NewSigner([]byte(cfg.SigningKey))
	if err != nil {
		log.Fatalf("signing key: %v", err)
	}

	broker := config.LoadBrokerConfig()
	if broker.Consume {
		go func() {
			if err := queue.NewMailConsumer(broker, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("mail consumer stopped", "error", err)
			}
		}()
	}

	translator := mapper.New(mapper.Defaults{
		Currency: cfg.DefaultCurrency,
		Status:   mapper.DefaultStatus,
		Type:     mapper.DefaultType,
	})
	deps := ticket.Deps{
		Tickets: ticket.NewAccess(store, translator, clk),
		Events:  events,
		Users:   users,
		Mailer:  service.NewMailPublisher(broker, clk),
		Signer:  signer,
		Clock:   clk,
		Logger:  logger,
	}

	cache := middleware.NewTicketCache(config.LoadCacheConfig(), rdb)
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(monitoring.Middleware())
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	router.RegisterRoutes(e, handler.Readiness{DB: db, Redis: rdb})
	router.RegisterTickets(e, router.TicketRoutes{
		Handler:   handler.NewTicketHandler(deps, cache, realtime.NewBroadcaster(config.LoadRealtimeConfig(), logger), cfg.MaxPageSize),
		JWTSecret: cfg.JWTSecret,
		Cache:     cache.Middleware(),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, clk),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// openStores returns the ticket store and its lookups for the configured
// driver.  The *sql.DB is nil for the memory driver.
func openStores(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (ticket.Store, ticket.EventFinder, ticket.UserFinder, *sql.DB) {
	if cfg.StoreDriver != config.StoreMySQL {
		logger.Warn("using in-memory ticket store; data is lost on restart")
		events, users := repository.NewMemoryEvents(), repository.NewMemoryUsers()
		if cfg.SeedFile != "" {
			var err error
			if events, users, err = repository.LoadSeed(cfg.SeedFile); err != nil {
				log.Fatalf("seed: %v", err)
			}
			logger.Info("loaded event and user seed", "file", cfg.SeedFile)
		} else {
			logger.Warn("STORE_SEED_FILE not set; artifacts and dispatch need events and users")
		}
		return repository.NewMemoryTicketStore(clk), events, users, nil
	}
	db, err := database.Open(ctx, database.Settings{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if cfg.DBAutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("database schema: %v", err)
		}
	}
	return repository.NewTicketRepo(db, clk), repository.NewEventRepo(db), repository.NewUserRepo(db), db
}
