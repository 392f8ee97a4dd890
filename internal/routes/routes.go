package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/mockpay/internal/auth"
	"github.com/congo-pay/mockpay/internal/config"
	"github.com/congo-pay/mockpay/internal/ledger"
	"github.com/congo-pay/mockpay/internal/metrics"
	"github.com/congo-pay/mockpay/internal/middleware"
	"github.com/congo-pay/mockpay/internal/notification"
	"github.com/congo-pay/mockpay/internal/users"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Memory repositories are only acceptable in development.
	if d.DB == nil && !d.Cfg.IsDevelopment() {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	tokens, err := auth.NewTokenService(d.Cfg.JWTSecret, d.Cfg.JWTAlgorithm, d.Cfg.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	collector := metrics.NewCollector(d.Registry)

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
	}))
	if d.Cfg.LogFormat == "text" {
		// Plain text access log in the format: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	} else {
		app.Use(middleware.Audit(d.Logger))
	}
	app.Use(collector.Middleware())

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", metrics.Handler(d.Registry))

	// Services and handlers
	var (
		userRepo   users.Repository
		ledgerRepo ledger.Repository
	)
	if d.DB != nil {
		userRepo = users.NewPostgresRepository(d.DB)
		ledgerRepo = ledger.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("no database configured, using in-memory repositories")
		userRepo = users.NewMemoryRepository()
		ledgerRepo = ledger.NewMemoryRepository()
	}

	hasher := auth.NewHasher(d.Cfg.BcryptCost)
	userSvc := users.NewService(userRepo, hasher)
	ledgerSvc := ledger.NewService(ledgerRepo, notification.NewLoggerNotifier(d.Logger), d.Logger)

	userHandler := users.NewHandler(userSvc, tokens, collector)
	ledgerHandler := ledger.NewHandler(ledgerSvc, collector)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protect := middleware.Protect(tokens, userSvc)
	RegisterUserRoutes(api, userHandler, protect, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginPerMinute, collector))
	RegisterTransactionRoutes(api, ledgerHandler, protect, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))

	return nil
}
