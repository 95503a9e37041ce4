// Package server assembles the HTTP application from the marketplace services.
package server

import (
	"io"
	"time"

	"harvestiq/internal/handlers"
	"harvestiq/internal/metrics"
	"harvestiq/internal/middleware"
	"harvestiq/internal/services"
	"harvestiq/pkg/blobstore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"
)

// Services are the collaborators the routes dispatch to.
type Services struct {
	Auth          *services.AuthService
	Listings      *services.ListingService
	Conversations *services.ConversationService
	Checkout      *services.CheckoutService
	Orders        *services.OrderService
	Media         *blobstore.Store
}

// Options tune the HTTP layer.
type Options struct {
	LoginRateLimit int          // login attempts per client per minute
	AccessLog      io.Writer    // nil disables the access log
	Ready          func() error // health probe for backing stores
}

// New builds the fiber application with every route mounted under /api/v1.
func New(s Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "HarvestIQ",
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.WithError(err).WithField("path", c.Path()).Error("Unhandled request error")
			}
			return c.Status(code).JSON(fiber.Map{"message": "Request failed", "error": err.Error()})
		},
	})

	app.Use(requestid.New())
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
			Output: opts.AccessLog,
		}))
	}
	app.Use(metrics.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		body := fiber.Map{"status": "healthy", "time": time.Now().Format(time.RFC3339)}
		if opts.Ready != nil {
			if err := opts.Ready(); err != nil {
				status = fiber.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["error"] = err.Error()
			}
		}
		return c.Status(status).JSON(body)
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	max := opts.LoginRateLimit
	if max <= 0 {
		max = 10
	}
	loginLimiter := limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many login attempts, try again later",
			})
		},
	})

	apiV1 := app.Group("/api/v1")
	auth := middleware.AuthRequired(s.Auth)

	handlers.NewAuthHandler(s.Auth).RegisterRoutes(apiV1, auth, loginLimiter)
	handlers.NewConversationHandler(s.Conversations).RegisterRoutes(apiV1, auth)
	handlers.NewListingHandler(s.Listings, s.Media).RegisterRoutes(apiV1, auth)
	handlers.NewOrderHandler(s.Checkout, s.Orders).RegisterRoutes(apiV1, auth)
	if s.Media != nil {
		handlers.NewMediaHandler(s.Media).RegisterRoutes(apiV1, auth)
	}

	return app
}
