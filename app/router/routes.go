// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/handlers"
	"github.com/merchantops/support-console/app/middleware"
	"github.com/merchantops/support-console/config"
	"github.com/merchantops/support-console/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown() error
	GetApp() *fiber.App
}

// Handlers bundles every handler the router mounts
type Handlers struct {
	Ticket      handlers.TicketHandlerInterface
	CSAT        handlers.CSATHandlerInterface
	TaskRequest handlers.TaskRequestHandlerInterface
	Webhook     handlers.WebhookHandlerInterface
	Analytics   handlers.AnalyticsHandlerInterface
	Merchant    handlers.MerchantHandlerInterface
	User        handlers.UserHandlerInterface
	Attachment  handlers.AttachmentHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      *config.ProductionConfig
	handlers Handlers
	logger   *zap.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, log *zap.Logger) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Merchant Support Console API",
		ServerHeader: "support-console",
		ErrorHandler: newErrorHandler(log),
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		cfg:      cfg,
		handlers: h,
		logger:   log,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	// Operational endpoints stay outside the rate limited API group
	r.app.Get("/health", r.healthCheck)
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}))

	// Identity headers are trusted from the gateway; enforcement is per-route
	api.Use(middleware.Identity())

	// Public surfaces: intake form, survey, signed webhooks
	api.Post("/tickets", r.handlers.Ticket.Create)
	api.Get("/csat/:token", r.handlers.CSAT.Status)
	api.Post("/csat/:token", r.handlers.CSAT.Submit)
	api.Post("/webhooks/twilio", r.handlers.Webhook.TwilioInbound)

	// Console surfaces require an authenticated operator
	tickets := api.Group("/tickets", middleware.RequireUser())
	tickets.Get("/", r.handlers.Ticket.List)
	tickets.Get("/:id", r.handlers.Ticket.Get)
	tickets.Patch("/:id", r.handlers.Ticket.Update)
	tickets.Post("/:id/csat-link", r.handlers.CSAT.SendLink)

	taskRequests := api.Group("/task-requests", middleware.RequireUser())
	taskRequests.Post("/", r.handlers.TaskRequest.Create)
	taskRequests.Get("/", r.handlers.TaskRequest.List)
	taskRequests.Get("/:id", r.handlers.TaskRequest.Get)
	taskRequests.Post("/:id/review", middleware.RequireAdmin(), r.handlers.TaskRequest.Review)
	taskRequests.Post("/:id/resubmit", r.handlers.TaskRequest.Resubmit)

	analytics := api.Group("/analytics", middleware.RequireUser())
	analytics.Get("/dashboard", r.handlers.Analytics.Dashboard)
	analytics.Get("/export", r.handlers.Analytics.Export)

	api.Get("/merchants/lookup", r.handlers.Merchant.Lookup)
	api.Get("/users", middleware.RequireUser(), r.handlers.User.List)

	attachments := api.Group("/attachments", middleware.RequireUser())
	attachments.Post("/", r.handlers.Attachment.Upload)
	attachments.Get("/*", r.handlers.Attachment.View)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.Post("/merchants/import", r.handlers.Merchant.Import)
	admin.Post("/clickup/sync", r.handlers.TaskRequest.Sync)

	r.app.Use(r.notFoundHandler)
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    r.cfg.Security.XContentTypeOptions,
		XFrameOptions:         r.cfg.Security.XFrameOptions,
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: r.cfg.Security.CSPPolicy,
		ReferrerPolicy:        r.cfg.Security.ReferrerPolicy,
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	r.app.Use(r.accessLog)

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error("panic recovered",
				zap.Any("error", e),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
				zap.String("ip", c.IP()),
				zap.Any("request_id", c.Locals("requestid")),
			)
		},
	}))
}

// accessLog emits one structured line per request
func (r *FiberRouter) accessLog(c fiber.Ctx) error {
	if c.Path() == "/health" || c.Path() == r.cfg.Metrics.Path {
		return c.Next()
	}

	start := time.Now()
	err := c.Next()

	r.logger.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
		zap.String("ip", c.IP()),
		zap.Any("request_id", c.Locals("requestid")),
	)
	return err
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info("starting server", zap.String("address", address))
	return r.app.Listen(address)
}

// Shutdown gracefully stops the HTTP server
func (r *FiberRouter) Shutdown() error {
	return r.app.Shutdown()
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"service":   "support-console-api",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// newErrorHandler builds the global error handler
func newErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		log.Error("unhandled error",
			zap.Int("status", code),
			zap.Error(err),
			zap.String("path", c.Path()),
		)

		return c.Status(code).JSON(dto.APIResponse{
			Success: false,
			Message: "An internal server error occurred",
			Error: dto.ErrorDetail{
				Code: "INTERNAL_ERROR",
				Details: fiber.Map{
					"timestamp":  utils.UTCNow().Unix(),
					"request_id": c.Locals("requestid"),
				},
			},
		})
	}
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
