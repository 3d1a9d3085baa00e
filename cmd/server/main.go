package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/config"
	"github.com/iliyamo/taxischool/internal/database"
	"github.com/iliyamo/taxischool/internal/handler"
	"github.com/iliyamo/taxischool/internal/jobs"
	"github.com/iliyamo/taxischool/internal/logging"
	"github.com/iliyamo/taxischool/internal/mail"
	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/observability"
	"github.com/iliyamo/taxischool/internal/queue"
	"github.com/iliyamo/taxischool/internal/repository"
	"github.com/iliyamo/taxischool/internal/router"
	"github.com/iliyamo/taxischool/internal/service"
	"github.com/iliyamo/taxischool/internal/storage"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()
	cfg := config.Load()

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer lg.Closer()
	log := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal("blob storage", zap.Error(err))
	}

	var notifier service.Notifier
	switch cfg.Notify.Driver {
	case "amqp":
		notifier = queue.NewPublisher(cfg.Notify.RabbitMQURL, cfg.Notify.Queue, log)
		if cfg.Notify.Consume {
			consumer := queue.NewConsumer(cfg.Notify.RabbitMQURL, cfg.Notify.Queue,
				mail.New(cfg.Mail, log), cfg.PublicBaseURL, log)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("notification consumer stopped", zap.Error(err))
				}
			}()
		}
	default:
		notifier = queue.NewLogNotifier(log)
	}

	st := repository.NewStores(db)
	authSvc := service.NewAuthService(st.Users, cfg.JWTSecret, cfg.AccessTTLMin)
	catalogSvc := service.NewCatalogService(st.Catalog)
	reservationSvc := service.NewReservationService(st.Reservations, st.Catalog, st.Users, notifier, log)
	vehicleSvc := service.NewVehicleService(st.Vehicles)
	rentalSvc := service.NewRentalService(st.Rentals, st.Vehicles, st.Users, notifier, log, cfg.BcryptCost)
	trackingSvc := service.NewTrackingService(st.Rentals, st.Vehicles)
	documentSvc := service.NewDocumentService(st.Documents, st.Rentals, st.Catalog, st.Users,
		blobs, notifier, log, cfg.TempDocumentTTL)

	v := handler.NewValidator()
	e := echo.New()
	e.HideBanner = true
	e.Validator = v
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log, v)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID)
	e.Use(middleware.AccessLog(log))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	publicLimit := middleware.NewTokenBucket(config.LoadPublicRateLimitConfig(), rdb, log)
	rentalH := handler.NewRentalHandler(rentalSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	vehicleH := handler.NewVehicleHandler(vehicleSvc)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), cfg.JWTSecret)
	router.RegisterCatalog(e, catalogH, cfg.JWTSecret, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterReservations(e, handler.NewReservationHandler(reservationSvc), cfg.JWTSecret)
	router.RegisterRentals(e, rentalH, handler.NewTrackingHandler(trackingSvc), cfg.JWTSecret, publicLimit)
	router.RegisterVehicles(e, vehicleH)
	router.RegisterDocuments(e, handler.NewDocumentHandler(documentSvc), cfg.JWTSecret, publicLimit)
	router.RegisterAdmin(e, catalogH, vehicleH, rentalH, cfg.JWTSecret)

	jobs.New(ctx, log).Every(cfg.CleanupInterval, "temp_documents_sweep",
		jobs.Sweeper(log, "temp_documents_sweep", documentSvc.CleanupExpired))

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
