package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/storage"
)

// maxBodySize caps webhook and event bodies; image bytes never come in
const maxBodySize = 1 * 1024 * 1024

type Dependencies struct {
	Conversation  handler.Conversation
	Detector      handler.PhotoDetector
	Store         storage.ObjectStore
	PhotoBucket   string
	FacesBucket   string
	WebhookSecret string
	// ServeImages exposes both buckets under /faces and /originals. Only set
	// it when the bot links photos by public URL; the routes are unauthenticated.
	ServeImages bool
	Checks      map[string]handler.ReadinessCheck
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "facelabel",
		BodyLimit:             maxBodySize,
		DisableStartupMessage: true,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var checks map[string]handler.ReadinessCheck
	if r.deps != nil {
		checks = r.deps.Checks
	}
	healthHandler := handler.NewHealthHandler(checks)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	if r.deps.Conversation != nil {
		webhookHandler := handler.NewWebhookHandler(r.deps.Conversation, r.logger)
		// All, not Post: other methods must get 405 rather than 404
		r.app.All("/webhook",
			middleware.PostOnly(),
			middleware.WebhookSecret(r.deps.WebhookSecret),
			webhookHandler.Handle,
		)
	}

	if r.deps.Detector != nil {
		eventsHandler := handler.NewEventsHandler(r.deps.Detector)
		r.app.Post("/events/photo", eventsHandler.PhotoUploaded)
	}

	if r.deps.ServeImages && r.deps.Store != nil {
		imagesHandler := handler.NewImagesHandler(r.deps.Store, r.deps.PhotoBucket, r.deps.FacesBucket)
		r.app.Get("/faces/*", imagesHandler.Face)
		r.app.Get("/originals/*", imagesHandler.Original)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
