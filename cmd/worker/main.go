package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/docagenda/scheduling-api/internal/worker"
	"github.com/docagenda/scheduling-api/pkg/logger"
)

type workerConfig struct {
	DatabaseURL  string        `envconfig:"DATABASE_URL" required:"true"`
	SMTPHost     string        `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort     int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword string        `envconfig:"SMTP_PASSWORD"`
	From         string        `envconfig:"REMINDER_FROM" default:"noreply@example.com"`
	Lookahead    time.Duration `envconfig:"REMINDER_LOOKAHEAD" default:"24h"`
	Interval     time.Duration `envconfig:"REMINDER_INTERVAL" default:"10m"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel})

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	w := worker.NewReminderWorker(db, dialer, cfg.From, cfg.Lookahead, cfg.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	log.Info().Dur("interval", cfg.Interval).Dur("lookahead", cfg.Lookahead).Msg("reminder worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")
	cancel()
}
