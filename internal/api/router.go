package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Devansh-g1/CryptoGig/internal/api/handler"
	"github.com/Devansh-g1/CryptoGig/internal/api/middleware"
	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
	httphandlers "github.com/Devansh-g1/CryptoGig/internal/infrastructure/http/handlers"
)

// Deps bundles everything the router needs; services are constructed
// in cmd/api so the wiring stays in one place.
type Deps struct {
	Identity  ports.IdentityService
	Channels  ports.ChannelService
	Jobs      ports.JobService
	JWTSecret string
	Mongo     *mongo.Database
	Redis     *redis.Client
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("cryptogig"))

	authHandler := handler.NewAuthHandler(deps.Identity)
	profileHandler := handler.NewProfileHandler(deps.Identity)
	channelHandler := handler.NewChannelHandler(deps.Channels)
	jobHandler := handler.NewJobHandler(deps.Jobs)
	authRequired := middleware.Auth(deps.JWTSecret)

	apiGroup := e.Group("/api")

	// --- Auth routes ---
	auth := apiGroup.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.GET("/me", authHandler.Me, authRequired)
	auth.POST("/switch-role", authHandler.SwitchRole, authRequired)
	auth.POST("/link-wallet", authHandler.LinkWallet, authRequired)

	// --- Profiles ---
	apiGroup.GET("/profile/:id", profileHandler.Get)
	apiGroup.PUT("/profile", profileHandler.Update, authRequired)

	// --- Channels & governance ---
	channels := apiGroup.Group("/channels")
	channels.GET("", channelHandler.List)
	channels.POST("", channelHandler.Create, authRequired)
	channels.POST("/:id/join", channelHandler.Join, authRequired)
	channels.POST("/:id/leave", channelHandler.Leave, authRequired)
	channels.GET("/:id/messages", channelHandler.ListMessages, authRequired)
	channels.POST("/:id/messages", channelHandler.PostMessage, authRequired)
	channels.POST("/:id/vote-kick", channelHandler.VoteKick, authRequired)

	// --- Jobs & arbitration ---
	jobs := apiGroup.Group("/jobs", authRequired)
	jobs.POST("", jobHandler.Create, middleware.RBAC(string(domain.RoleClient)))
	jobs.GET("", jobHandler.List)
	jobs.GET("/:id", jobHandler.Get)
	jobs.POST("/:id/assign", jobHandler.Assign)
	jobs.POST("/:id/fund", jobHandler.Fund)
	jobs.POST("/:id/start", jobHandler.Start)
	jobs.POST("/:id/submit", jobHandler.Submit)
	jobs.POST("/:id/accept", jobHandler.Accept)
	jobs.POST("/:id/dispute", jobHandler.Dispute)
	jobs.POST("/:id/arbitrate", jobHandler.Arbitrate, middleware.RBAC(string(domain.RoleArbitrator)))

	// --- Health probes & metrics (no auth required) ---
	healthHandler := httphandlers.NewHealthHandler()
	healthDepsHandler := httphandlers.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
