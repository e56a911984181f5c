// A minimal worker process: loads config from the environment, connects to
// PostgreSQL, applies migrations and runs delivery jobs until interrupted.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/mailroom"
	"github.com/dmitrymomot/mailroom/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailroom/pkg/pgstore"
	"github.com/dmitrymomot/mailroom/pkg/queue"

	"github.com/caarlos0/env/v11"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := mailroom.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	smtpCfg, err := env.ParseAs[smtp.Config]()
	if err != nil {
		log.Fatalf("load smtp config: %v", err)
	}

	pool, err := pgstore.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pgstore.Migrate(ctx, pool, cfg.Database.MigrationsTable, logger); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	store := pgstore.New(pool)
	sender := smtp.New(smtpCfg)

	svc, err := mailroom.New(store, sender,
		mailroom.WithTemplates(store),
		mailroom.WithConfig(cfg),
		mailroom.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("mailroom service: %v", err)
	}

	manager, err := queue.NewManager(pool, svc.Engine(),
		queue.WithManagerConfig(cfg.Queue),
		queue.WithPeriodicDispatch(cfg.Queue.DispatchSchedule, svc.Engine()),
		queue.WithManagerLogger(logger),
	)
	if err != nil {
		log.Fatalf("queue manager: %v", err)
	}

	if err := manager.Start(ctx); err != nil {
		log.Fatalf("start workers: %v", err)
	}
	logger.InfoContext(ctx, "mailroom worker started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		logger.Error("stop workers", slog.Any("error", err))
	}
}
