// Package server contains the HTTP and WebSocket handlers for the listings API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"estatehub/internal/auth"
	"estatehub/internal/catalog"
	"estatehub/internal/config"
	"estatehub/internal/middleware"
	"estatehub/internal/models"
	"estatehub/internal/notifications"
	"estatehub/internal/repository"
	"estatehub/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the connected dependencies a Server is built from.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
	// Listings is the remote listing store. Defaults to the gorm repository over DB.
	Listings catalog.RemoteStore
	// Changes delivers listing change events. Nil makes the catalog poll.
	Changes catalog.ChangeSource
	// Inquiries forwards new inquiries. Nil disables forwarding.
	Inquiries service.InquiryPublisher
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens  *auth.TokenIssuer
	catalog *catalog.Store
	changes catalog.ChangeSource
	hub     *notifications.Hub
	images  *service.DiskImageStore

	listingService   *service.ListingService
	messageService   *service.MessageService
	analyticsService *service.AnalyticsService
	userService      *service.UserService

	syncMu     sync.Mutex
	changeSub  io.Closer
	lastPushed []models.Listing
}

// NewServer wires repositories, services and the catalog over deps.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("server: database is required")
	}

	listings := deps.Listings
	if listings == nil {
		listings = repository.NewListingRepository(deps.DB, nil)
	}
	messageRepo := repository.NewMessageRepository(deps.DB)
	images := service.NewDiskImageStore(cfg)

	opts := []catalog.Option{catalog.WithImageResolver(images)}
	if deps.Changes != nil {
		opts = append(opts, catalog.WithChangeSource(deps.Changes))
	}
	store := catalog.New(listings, opts...)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("estatehub-api"),
		tokens:         auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL()),
		catalog:        store,
		changes:        deps.Changes,
		hub:            notifications.NewHub(),
		images:         images,
	}
	s.listingService = service.NewListingService(store)
	s.messageService = service.NewMessageService(messageRepo, deps.Inquiries)
	s.analyticsService = service.NewAnalyticsService(repository.NewAnalyticsRepository(deps.DB), messageRepo, s.listingService)
	s.userService = service.NewUserService(repository.NewUserRepository(deps.DB))

	return s, nil
}

// App builds the Fiber app with middleware and routes. It is built once.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "EstateHub API",
		BodyLimit:    (s.maxUploadMB() + 1) * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) maxUploadMB() int {
	if s.config.ImageMaxUploadSizeMB > 0 {
		return s.config.ImageMaxUploadSizeMB
	}
	return service.DefaultImageMaxUploadSizeMB
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error", "error", err)
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Static(service.UploadsURLPrefix, s.images.Dir())

	optional := middleware.OptionalAuth(s.tokens, s.redis)
	required := middleware.AuthRequired(s.tokens, s.redis)
	agentOnly := middleware.RequireRole(auth.RoleAgent, auth.RoleAdmin)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/logout", required, s.Logout)

	listings := api.Group("/listings")
	listings.Get("/", optional, s.ListListings)
	listings.Get("/:id", optional, s.GetListing)
	listings.Post("/", required, agentOnly, middleware.RateLimit(s.redis, 20, time.Hour, "create_listing"), s.CreateListing)
	listings.Put("/:id", required, s.UpdateListing)
	listings.Delete("/:id", required, s.DeleteListing)

	api.Get("/dealer/dashboard", required, agentOnly, s.DealerDashboard)

	api.Post("/inquiries", middleware.RateLimit(s.redis, 5, 10*time.Minute, "inquiry"), s.CreateInquiry)

	analytics := api.Group("/analytics")
	analytics.Post("/page-view", s.RecordPageView)
	analytics.Post("/property-view/:id", s.RecordPropertyView)

	ws := api.Group("/ws", requireUpgrade)
	ws.Get("/catalog", s.CatalogWebSocket())

	admin := api.Group("/admin", required, middleware.RequireRole(auth.RoleAdmin))
	admin.Get("/overview", s.AdminOverview)
	admin.Post("/listings/:id/approve", s.ApproveListing)
	admin.Post("/listings/:id/reject", s.RejectListing)
	admin.Get("/messages", s.AdminListMessages)
	admin.Patch("/messages/:id", s.AdminUpdateMessage)
	admin.Delete("/messages/:id", s.AdminDeleteMessage)
	admin.Get("/analytics", s.AdminAnalytics)
	admin.Get("/users", s.AdminListUsers)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports ready once the database answers and the catalog
// holds a snapshot. Redis is optional and only reported.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	catalogStatus := "loaded"
	if !s.catalog.Loaded() {
		catalogStatus = "loading"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || !s.catalog.Loaded() {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"catalog":  catalogStatus,
		},
		"time": time.Now(),
	})
}

// StartSync loads the catalog and keeps it current through the change feed,
// or by polling when there is none. A failed initial load is retried by the
// feed or the poller.
func (s *Server) StartSync(ctx context.Context) error {
	if _, err := s.catalog.LoadAll(ctx); err != nil {
		middleware.Logger.Warn("Initial catalog load failed; serving an empty catalog until the next sync", "error", err)
	} else {
		s.pushIfChanged(s.catalog.Snapshot())
	}

	if s.changes != nil {
		sub, err := s.catalog.SubscribeToChanges(ctx, s.pushIfChanged)
		if err != nil {
			return fmt.Errorf("subscribe to listing changes: %w", err)
		}
		s.syncMu.Lock()
		s.changeSub = sub
		s.syncMu.Unlock()
		// A missed notification is caught by the slower safety poll.
		go s.catalog.Poll(ctx, 10*s.config.ResyncInterval(), s.pushIfChanged)
		return nil
	}

	go s.catalog.Poll(ctx, s.config.ResyncInterval(), s.pushIfChanged)
	return nil
}

// pushIfChanged tells websocket clients about a new snapshot unless it is
// identical to the last one pushed.
func (s *Server) pushIfChanged(listings []models.Listing) {
	s.syncMu.Lock()
	same := s.lastPushed != nil && reflect.DeepEqual(s.lastPushed, listings)
	if !same {
		s.lastPushed = listings
	}
	s.syncMu.Unlock()
	if !same {
		s.hub.NotifyCatalogChanged(len(listings))
	}
}

// Start starts the catalog sync and the HTTP listener.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()
	if err := s.StartSync(ctx); err != nil {
		return err
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops the listener, the catalog sync and open websockets.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	s.syncMu.Lock()
	sub := s.changeSub
	s.changeSub = nil
	s.syncMu.Unlock()
	if sub != nil {
		if err := sub.Close(); err != nil {
			middleware.Logger.Warn("error closing change subscription", "error", err)
		}
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Warn("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Warn("error shutting down catalog hub", "error", err)
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
