package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/poofware/booking-service/internal/app"
	"github.com/poofware/booking-service/internal/clock"
	"github.com/poofware/booking-service/internal/config"
	"github.com/poofware/booking-service/internal/constants"
	"github.com/poofware/booking-service/internal/controllers"
	"github.com/poofware/booking-service/internal/lock"
	"github.com/poofware/booking-service/internal/middleware"
	"github.com/poofware/booking-service/internal/repositories"
	"github.com/poofware/booking-service/internal/routes"
	"github.com/poofware/booking-service/internal/services"
	"github.com/poofware/booking-service/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	utils.InitLogger(config.DefaultAppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize booking-service:", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.System()
	locks := lock.NewMutexMap()

	propRepo := repositories.NewPropertyRepository()
	agentRepo := repositories.NewAgentRepository()
	userRepo := repositories.NewUserRepository()
	apptRepo := repositories.NewAppointmentRepository()
	msgRepo := repositories.NewMessageRepository()
	notifRepo := repositories.NewNotificationRepository()
	alertRepo := repositories.NewAdminAlertRepository()
	codeRepo := repositories.NewSMSVerificationRepository()

	auditRepo := repositories.NewMemoryAuditLogRepository()
	if application.DB != nil {
		if err := repositories.EnsureAuditLogSchema(ctx, application.DB); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to prepare audit_log table")
		}
		auditRepo = repositories.NewMirroredAuditLogRepository(repositories.NewPgAuditLogRepository(application.DB), auditRepo)
	}

	var cache services.AvailabilityCache
	if application.Redis != nil {
		cache = services.NewRedisAvailabilityCache(application.Redis)
	}

	directory := services.NewUserDirectory(userRepo, agentRepo)
	notificationService := services.NewNotificationService(cfg, notifRepo, directory)
	bookingService := services.NewBookingService(
		cfg,
		clk,
		locks,
		propRepo,
		agentRepo,
		apptRepo,
		auditRepo,
		msgRepo,
		directory,
		notificationService,
		cache,
	)
	agentService := services.NewAgentService(clk, locks, agentRepo, cache)
	slotScheduler := services.NewSlotSchedulerService(cfg, clk, locks, agentRepo, cache)
	alertService := services.NewAlertService(cfg, clk, apptRepo, alertRepo)
	verificationService := services.NewVerificationService(clk, locks, codeRepo, userRepo, agentRepo)

	if cfg.SeedFile != "" {
		propertyIDs, err := app.LoadSeedFile(ctx, cfg.SeedFile, app.SeedStores{
			Properties:   propRepo,
			Agents:       agentRepo,
			Users:        userRepo,
			Appointments: apptRepo,
		}, clk.Now())
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to load seed file")
		}
		for _, id := range propertyIDs {
			if err := bookingService.RecomputePurchaseRights(ctx, id); err != nil {
				utils.Logger.WithError(err).Fatalf("Failed to derive purchase rights for property %s", id)
			}
		}
	}

	if err := slotScheduler.RunDailySlotGeneration(ctx); err != nil {
		utils.Logger.WithError(err).Error("Startup slot generation failed")
	}

	router := routes.NewRouter(routes.Handlers{
		Health:       controllers.NewHealthController(application),
		Booking:      controllers.NewBookingController(bookingService),
		Message:      controllers.NewMessageController(bookingService),
		Agent:        controllers.NewAgentController(agentService),
		Verification: controllers.NewVerificationController(verificationService),
		Notification: controllers.NewNotificationController(notificationService, alertService),
	}, middleware.ActorMiddleware(cfg.JWTSecret))

	c := cron.New()
	_, slotErr := c.AddFunc(constants.CronSlotGeneration, func() {
		if e := slotScheduler.RunDailySlotGeneration(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled slot generation failed")
		}
	})
	if slotErr != nil {
		utils.Logger.WithError(slotErr).Fatal("Failed to schedule slot generation cron")
	}
	_, sweepErr := c.AddFunc(constants.CronApprovalSweep, func() {
		if e := alertService.RunApprovalTimeoutSweep(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Approval timeout sweep failed")
		}
	})
	if sweepErr != nil {
		utils.Logger.WithError(sweepErr).Fatal("Failed to schedule approval timeout cron")
	}
	_, cleanupErr := c.AddFunc(constants.CronCodeCleanup, func() {
		if e := verificationService.CleanupExpiredCodes(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Verification code cleanup failed")
		}
	})
	if cleanupErr != nil {
		utils.Logger.WithError(cleanupErr).Fatal("Failed to schedule verification code cleanup cron")
	}
	c.Start()
	defer c.Stop()

	co := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderActorID, middleware.HeaderActorRole},
		AllowCredentials: true,
	})
	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return notificationService.Run(gctx)
	})
	g.Go(func() error {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Logger.WithError(err).Error("booking-service stopped with error")
		return
	}
	utils.Logger.Info("booking-service stopped")
}
