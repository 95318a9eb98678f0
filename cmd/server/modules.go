package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/tablemenu/menu-backend/config"
	"github.com/tablemenu/menu-backend/internal/app/controller"
	"github.com/tablemenu/menu-backend/internal/app/repository"
	"github.com/tablemenu/menu-backend/internal/app/service"
	"github.com/tablemenu/menu-backend/internal/db"
	"github.com/tablemenu/menu-backend/internal/middleware"
	"github.com/tablemenu/menu-backend/internal/router"
	"github.com/tablemenu/menu-backend/internal/scheduler"
	"github.com/tablemenu/menu-backend/internal/storage"
	"github.com/tablemenu/menu-backend/internal/theme"
	ws "github.com/tablemenu/menu-backend/internal/websocket"
	"github.com/tablemenu/menu-backend/pkg/logger"
	"github.com/tablemenu/menu-backend/pkg/mailer/resend"
	appredis "github.com/tablemenu/menu-backend/pkg/redis"
	"github.com/tablemenu/menu-backend/pkg/util"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var infraModule = fx.Options(
	fx.Provide(
		provideConfig,
		provideDB,
		provideRedis,
		provideBlacklist,
		provideMailer,
		providePresigner,
		provideHub,
	),
)

var repositoryModule = fx.Provide(
	repository.NewUserRepository,
	repository.NewRestaurantRepository,
	repository.NewCategoryRepository,
	repository.NewMenuItemRepository,
	repository.NewSubscriptionRepository,
	repository.NewActivityRepository,
	repository.NewAnalyticsRepository,
	repository.NewPasswordResetRepository,
)

var serviceModule = fx.Provide(
	provideEmailService,
	provideAuthService,
	providePasswordResetService,
	service.NewProfileService,
	service.NewSubscriptionService,
	service.NewRestaurantService,
	service.NewCategoryService,
	service.NewMenuItemService,
	service.NewMenuSheetService,
	service.NewAnalyticsService,
	service.NewPublicMenuService,
	service.NewUploadService,
)

var httpModule = fx.Provide(
	theme.NewRenderer,
	controller.NewAuthController,
	controller.NewProfileController,
	controller.NewSubscriptionController,
	controller.NewRestaurantController,
	controller.NewCategoryController,
	controller.NewMenuItemController,
	controller.NewMenuSheetController,
	controller.NewPublicMenuController,
	controller.NewUploadController,
	controller.NewEmailController,
	provideAnalyticsController,
	provideAuthMiddleware,
	router.NewRouter,
	provideEngine,
)

// provideConfig also sets up the global logger so everything after it logs consistently.
func provideConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.LogFormat(),
		EnableColor: cfg.Server.IsDevelopment(),
	})
	logger.Info("Starting TableMenu backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   cfg.Log.Level,
	})
	return cfg, nil
}

func provideDB(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	conn, err := db.Initialize(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		hash, err := util.HashPassword(cfg.Admin.Password)
		if err != nil {
			return nil, err
		}
		if err := db.SeedAdmin(conn, db.AdminSeed{
			Email:        cfg.Admin.Email,
			PasswordHash: hash,
			FullName:     cfg.Admin.Name,
		}); err != nil {
			logger.Warn("Failed to seed admin account", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing database connection")
			return db.Close(conn)
		},
	})
	return conn, nil
}

// provideRedis returns nil when Redis is not configured.
func provideRedis(lc fx.Lifecycle, cfg *config.Config) (*goredis.Client, error) {
	if !cfg.Redis.Enabled() {
		logger.Warn("Redis not configured, logout will not revoke access tokens")
		return nil, nil
	}
	client, err := appredis.NewClient(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// provideBlacklist hands out untyped nils without Redis so the nil checks downstream hold.
func provideBlacklist(client *goredis.Client) (service.TokenRevoker, middleware.TokenBlacklist) {
	if client == nil {
		return nil, nil
	}
	blacklist := appredis.NewBlacklist(client)
	return blacklist, blacklist
}

func provideMailer(cfg *config.Config) (service.Mailer, error) {
	if !cfg.Email.Enabled() {
		logger.Warn("RESEND_API_KEY not set, emails are disabled")
		return nil, nil
	}
	client, err := resend.NewClient(resend.Config{
		APIKey:  cfg.Email.ResendAPIKey,
		BaseURL: cfg.Email.BaseURL,
		From:    cfg.Email.FromAddress,
		Timeout: cfg.Email.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func providePresigner(cfg *config.Config) (service.Presigner, error) {
	if !cfg.S3.Enabled() {
		logger.Warn("S3 not configured, image uploads are disabled")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s3Storage, err := storage.NewS3Storage(ctx, &cfg.S3)
	if err != nil {
		return nil, err
	}
	return s3Storage, nil
}

func provideHub(lc fx.Lifecycle) (*ws.Hub, service.ChangeNotifier) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return hub, hub
}

func provideEmailService(mailer service.Mailer, cfg *config.Config) (service.EmailService, error) {
	return service.NewEmailService(mailer, cfg.Email.FromAddress, cfg.Server.PublicURL)
}

func provideAuthService(
	userRepo repository.UserRepository,
	emailService service.EmailService,
	revoker service.TokenRevoker,
	cfg *config.Config,
) service.AuthService {
	return service.NewAuthService(userRepo, emailService, revoker, service.AuthSettings{
		JWTSecret:     cfg.JWT.Secret,
		AccessExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshExpiry: cfg.JWT.RefreshTokenExpiry,
		TrialDays:     cfg.Subscription.TrialDays,
	})
}

func providePasswordResetService(
	resetRepo repository.PasswordResetRepository,
	userRepo repository.UserRepository,
	emailService service.EmailService,
	cfg *config.Config,
) service.PasswordResetService {
	return service.NewPasswordResetService(resetRepo, userRepo, emailService, cfg.Server.PublicURL)
}

func provideAnalyticsController(analytics service.AnalyticsService, hub *ws.Hub, cfg *config.Config) *controller.AnalyticsController {
	return controller.NewAnalyticsController(analytics, hub, cfg.Analytics.RefreshInterval, cfg.CORS.AllowedOrigins)
}

func provideAuthMiddleware(blacklist middleware.TokenBlacklist, cfg *config.Config) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)
}

func provideEngine(r *router.Router) (*gin.Engine, error) {
	return r.Setup()
}

func startHousekeeping(
	lc fx.Lifecycle,
	cfg *config.Config,
	subscriptions service.SubscriptionService,
	resets service.PasswordResetService,
) {
	if !cfg.Scheduler.Enabled {
		logger.Info("Housekeeping scheduler disabled")
		return
	}
	s := scheduler.NewHousekeepingScheduler(subscriptions, resets, scheduler.Config{
		TrialSweepSpec:    cfg.Scheduler.TrialSweepSpec,
		TrialReminderDays: cfg.Scheduler.TrialReminderDays,
	})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop(ctx)
			return nil
		},
	})
}

// compress gzips regular responses. Websocket handshakes bypass it because
// the upgrade needs the raw connection.
func compress(h http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

func startServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           compress(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP server stopped", err)
				}
			}()
			logger.Info("Server started successfully", map[string]interface{}{
				"address": srv.Addr,
				"pid":     os.Getpid(),
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down server gracefully...")
			return srv.Shutdown(ctx)
		},
	})
}
