package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/repository/memory"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// redisPinger adapts the Redis client to handler.Pinger.
type redisPinger struct{ *redis.Client }

func (r redisPinger) PingContext(ctx context.Context) error { return r.Ping(ctx).Err() }

// stores groups the persistence chosen by STORE_DRIVER.
type stores struct {
	events  interface {
		service.EventStore
		service.Ledger
	}
	tickets service.TicketStore
	tx      service.Transactor
	db      *sql.DB
}

func openStores(ctx context.Context, cfg config.Config, logger *log.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		m := memory.New()
		return &stores{events: m, tickets: m.Tickets()}, nil
	}
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &stores{
		events:  repository.NewEventRepo(db),
		tickets: repository.NewTicketRepo(db),
		tx:      repository.NewTransactor(db),
		db:      db,
	}, nil
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	logger := log.New("ticketing")
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Warnf("redis unavailable, rate limiting and caching disabled: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	opts := []service.PurchaseOption{
		service.WithLogger(logger),
		service.WithStoreTimeout(cfg.StoreTimeout),
	}
	if st.tx != nil {
		opts = append(opts, service.WithTransactor(st.tx))
	}
	if cfg.RabbitURL != "" {
		opts = append(opts, service.WithNotifier(service.NewQueuePublisher(cfg.RabbitURL, logger)))
		if cfg.RunConsumer {
			c := queue.NewConsumer(cfg.RabbitURL, cfg.LogDir, logger)
			go func() {
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Errorf("purchase consumer stopped: %v", err)
				}
			}()
		}
	} else {
		logger.Info("RABBITMQ_URL not set; purchase events are not published")
	}

	purchases := service.NewPurchaseService(st.events, st.events, st.tickets, opts...)
	events := service.NewEventService(st.events, cfg.StoreTimeout, logger)

	deps := map[string]handler.Pinger{}
	if st.db != nil {
		deps["mysql"] = st.db
	}
	if rdb != nil {
		deps["redis"] = redisPinger{rdb}
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.LogLevel)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	router.Register(e, router.Deps{
		Tickets:   handler.NewTicketHandler(purchases),
		Events:    handler.NewEventHandler(events),
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Ready:     handler.Ready(deps),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
