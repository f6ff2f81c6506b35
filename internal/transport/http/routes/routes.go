package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/newsline/accounts-service/internal/core/port"
	"github.com/newsline/accounts-service/internal/infra/config"
	"github.com/newsline/accounts-service/internal/transport/http/handlers"
	"github.com/newsline/accounts-service/internal/transport/http/middleware"
)

// Deps collects everything the router mounts.
type Deps struct {
	Registration *handlers.RegistrationHandler
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Tokens       port.TokenService
	RateLimits   port.RateLimitStore
	Limits       config.RateLimitSettings
	Env          string
}

// New builds the gin engine with the full middleware chain and routes.
func New(deps Deps) *gin.Engine {
	if deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.CORS(),
	)

	engine.GET("/healthz", deps.Health.Live)
	engine.GET("/readyz", deps.Health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := engine.Group("/api/v1/auth")
	{
		auth.POST("/register",
			limit(deps, "register", deps.Limits.RegisterMaxAttempts),
			deps.Registration.Register,
		)
		auth.POST("/activate",
			limit(deps, "activate", deps.Limits.ActivateMaxAttempts),
			deps.Registration.Activate,
		)
		auth.POST("/activate/resend",
			limit(deps, "resend", deps.Limits.ResendMaxAttempts),
			deps.Registration.ResendCode,
		)
		auth.POST("/login",
			limit(deps, "login", deps.Limits.LoginMaxAttempts),
			deps.Auth.Login,
		)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.POST("/logout",
			middleware.RequireAuth(deps.Tokens),
			deps.Auth.Logout,
		)
		auth.GET("/profile",
			middleware.RequireAuth(deps.Tokens),
			deps.Auth.Profile,
		)
	}

	return engine
}

func limit(deps Deps, name string, maxAttempts int) gin.HandlerFunc {
	return middleware.RateLimit(deps.RateLimits, middleware.RateLimitRule{
		Name:        name,
		MaxAttempts: maxAttempts,
		Window:      deps.Limits.WindowDuration,
	})
}
