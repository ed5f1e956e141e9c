package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/docagenda/scheduling-api/internal/config"
	"github.com/docagenda/scheduling-api/internal/email"
	"github.com/docagenda/scheduling-api/internal/event"
	"github.com/docagenda/scheduling-api/internal/handler"
	appointmentHandler "github.com/docagenda/scheduling-api/internal/handler/appointment"
	clinicHandler "github.com/docagenda/scheduling-api/internal/handler/clinic"
	doctorHandler "github.com/docagenda/scheduling-api/internal/handler/doctor"
	patientHandler "github.com/docagenda/scheduling-api/internal/handler/patient"
	"github.com/docagenda/scheduling-api/internal/middleware"
	"github.com/docagenda/scheduling-api/internal/repository/postgres"
	"github.com/docagenda/scheduling-api/internal/router"
	"github.com/docagenda/scheduling-api/internal/schedule"
	bookingService "github.com/docagenda/scheduling-api/internal/service/booking"
	clinicService "github.com/docagenda/scheduling-api/internal/service/clinic"
	doctorService "github.com/docagenda/scheduling-api/internal/service/doctor"
	patientService "github.com/docagenda/scheduling-api/internal/service/patient"
	"github.com/docagenda/scheduling-api/internal/worker"
	"github.com/docagenda/scheduling-api/pkg/auth"
	"github.com/docagenda/scheduling-api/pkg/logger"
	redisbroker "github.com/docagenda/scheduling-api/pkg/messaging/redis"
	"github.com/docagenda/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	clinicRepo := postgres.NewClinicRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db, cfg.Scheduling.SlotDuration)

	index := schedule.NewIndex()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the conflict index from active appointments before serving.
	if err := index.Rebuild(ctx, appointmentRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to build conflict index")
	}

	var notifiers event.Multi
	locker := schedule.NewNoopLocker()
	if cfg.Redis.Enabled {
		opts, err := redislib.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis URL")
		}
		client := redislib.NewClient(opts)
		defer client.Close()
		locker = schedule.NewRedisDoctorLocker(client, cfg.Scheduling.LockTTL)
		notifiers = append(notifiers, event.NewNotifier(redisbroker.NewRedisBroker(client)))
	}

	m := metrics.NewMetrics("scheduling")

	if cfg.Email.Enabled {
		notifiers = append(notifiers, email.NewService(email.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, patientRepo, doctorRepo))
	}

	var notifier bookingService.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	clinicSvc := clinicService.NewService(clinicRepo, doctorRepo, index)
	patientSvc := patientService.NewService(patientRepo, clinicRepo)
	bookingSvc := bookingService.NewService(
		doctorRepo,
		patientRepo,
		appointmentRepo,
		index,
		locker,
		bookingService.Config{
			SlotDuration: cfg.Scheduling.SlotDuration,
			Notifier:     notifier,
			Metrics:      m,
		},
	)
	doctorSvc := doctorService.NewService(doctorRepo, clinicRepo, index, bookingSvc)

	verifier := auth.NewTokenVerifier(cfg.JWT.Secret)
	authMiddleware := middleware.NewAuthMiddleware(verifier, clinicSvc)

	r := router.NewRouter(
		authMiddleware,
		clinicHandler.NewHandler(clinicSvc),
		doctorHandler.NewHandler(doctorSvc),
		patientHandler.NewHandler(patientSvc),
		appointmentHandler.NewHandler(bookingSvc),
		handler.NewHealthHandler(db),
		router.Config{
			RateLimit:     rate.Limit(cfg.RateLimit.RPS),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "scheduling_http",
		},
	)
	r.Setup()

	reconciler := worker.NewReconciler(index, appointmentRepo, cfg.Scheduling.ReconcileInterval, m)
	go reconciler.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
