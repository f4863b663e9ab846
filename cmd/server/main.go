package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetings/boardroom/internal/api"
	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/common"
	"meetings/boardroom/internal/config"
	"meetings/boardroom/internal/db"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/jobs"
	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"
	"meetings/boardroom/internal/middleware"
	"meetings/boardroom/internal/notify"
	"meetings/boardroom/internal/permissions"
	"meetings/boardroom/internal/phone"
	"meetings/boardroom/internal/providers"
	"meetings/boardroom/internal/routes"
	"meetings/boardroom/internal/services"
	"meetings/boardroom/internal/storage"
	"meetings/boardroom/internal/workers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Boardroom starting up",
		"environment", cfg.AppEnv,
		"db_driver", cfg.DBDriver,
		"notify_mode", cfg.NotifyMode,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	gdb, err := db.OpenORM(cfg, metricsReg)
	if err != nil {
		logging.Fatal("Failed to open database", "error", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		logging.Fatal("Failed to migrate database", "error", err)
	}
	logging.Info("Database ready", "driver", cfg.DBDriver)

	// sqlx is only the health probe; sqlite runs without one
	var health db.Pinger
	if cfg.DBDriver == "postgres" {
		sqlDB, err := db.InitPostgres(cfg.PostgresDSN())
		if err != nil {
			logging.Fatal("Failed to connect to Postgres (sqlx)", "error", err)
		}
		defer sqlDB.Close()
		health = sqlDB
	}

	// Redis carries the notification queue and the used download token
	// registry. Only the queue cannot do without it.
	rdb := common.NewRedisClient(cfg)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		if cfg.NotifyMode == "queue" {
			logging.Fatal("Failed to connect to Redis", "addr", cfg.RedisAddr(), "error", err)
		}
		logging.Warn("Redis unavailable, download links stay valid until expiry", "error", err)
		rdb = nil
	}

	phones := phone.NewValidator(cfg.PhoneRegion)
	sms := providers.NewSMSProvider(cfg.SMSEndpoint, cfg.SMSModule)

	deps := &api.Dependencies{
		DirectoryFile: cfg.DirectoryFile,
		UpSince:       time.Now(),
		Health:        health,
	}

	var dispatcher notify.Dispatcher
	switch cfg.NotifyMode {
	case "queue":
		queue := common.NewRedisQueueService(rdb)
		dispatcher = notify.NewQueued(queue, common.NotificationStream, metricsReg)
		container := workers.InitWorkers(ctx, queue, sms, metricsReg)
		deps.Queue = container.Monitor
	case "direct":
		dispatcher = notify.NewDirect(sms, metricsReg)
	default:
		dispatcher = notify.Discard{}
	}
	logging.Info("Notifications configured", "mode", cfg.NotifyMode, "provider", sms.GetProviderType())

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	principals := common.NewCacheService(cfg.PrincipalTTL, time.Minute).Instrument("principals", metricsReg)
	resolver := auth.NewIdentityResolver(tokens, repositories.NewUserRepository(gdb), principals, cfg.PrincipalTTL)

	ownership := common.NewCacheService(time.Minute, 5*time.Minute).Instrument("ownership", metricsReg)
	deps.Permissions = permissions.NewEvaluator(permissions.NewCachedLookup(permissions.NewGormLookup(gdb), ownership, time.Minute))
	deps.Signer = common.NewURLSignerService([]byte(cfg.JWTSecret), rdb)
	deps.Services = buildServices(gdb, cfg, phones, dispatcher, tokens, resolver, metricsReg)

	if job := jobs.InitializeJobs(ctx, gdb, phones, cfg.DirectoryFile); job != nil {
		logging.Info("Directory sync scheduled", "file", cfg.DirectoryFile)
	}

	router := routes.RegisterRoutes(deps, routes.Options{
		Resolver:     resolver,
		Metrics:      metricsReg,
		LoginLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, "127.0.0.1"),
	})

	// Setup metrics endpoint outside of Chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server shutdown failed", "error", err)
		}
	}()

	logging.Info("Server starting", "port", cfg.HTTPPort, "environment", cfg.AppEnv)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Server stopped", "error", err)
	}
	logging.Info("Server stopped")
}

func buildServices(gdb *gorm.DB, cfg *config.Config, phones *phone.Validator, dispatcher notify.Dispatcher,
	tokens *auth.TokenIssuer, resolver *auth.IdentityResolver, m *metrics.MetricsRegistry) *api.Services {

	return &api.Services{
		Departments: services.NewDepartmentService(gdb),
		Committees:  services.NewCommitteeService(gdb),
		Users:       services.NewUserService(gdb, phones, resolver),
		Venues:      services.NewVenueService(gdb),
		Events:      services.NewEventService(gdb, m),
		Attendees:   services.NewAttendeeService(gdb, m),
		Agendas:     services.NewAgendaService(gdb),
		Minutes:     services.NewMinuteService(gdb),
		Documents:   services.NewDocumentService(gdb, storage.NewLocalStore(cfg.UploadRoot)),
		Invitations: services.NewInvitationService(gdb, dispatcher),
		Credentials: services.NewCredentialService(gdb, phones, dispatcher, tokens),
		Directory:   services.NewDirectorySyncService(gdb, phones),
	}
}
