package v1

import (
	"net/http"
	"time"

	"github.com/divyadhiman22/MyNotes/config"
	"github.com/divyadhiman22/MyNotes/internal/delivery/http/middleware"
	"github.com/divyadhiman22/MyNotes/internal/delivery/http/response"
	"github.com/divyadhiman22/MyNotes/internal/domain"
	"github.com/divyadhiman22/MyNotes/internal/session"
	"github.com/divyadhiman22/MyNotes/internal/usecase"
	"github.com/divyadhiman22/MyNotes/pkg/security"
	"github.com/divyadhiman22/MyNotes/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC      domain.AuthUsecase
	ContactUC   domain.ContactUsecase
	PageUC      domain.PageUsecase
	HealthUC    usecase.HealthUsecase
	Registry    *session.Registry
	RateLimiter *middleware.RateLimiter
	Audit       *security.SecurityLogger
	Validate    *validator.Validate
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}
	if deps.Validate == nil {
		deps.Validate = validation.New()
	}
	if deps.RateLimiter == nil {
		deps.RateLimiter = middleware.NewRateLimiter(nil, deps.Audit)
	}

	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware([]string{cfg.FrontendURL}, cfg.IsProduction())) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.CookieSecure))

	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
	r.Use(deps.RateLimiter.Middleware(middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, window)))
	r.Use(middleware.CSRFMiddleware(cfg.CookieSecure, deps.Audit))
	authLimit := deps.RateLimiter.Middleware(middleware.AuthRateLimitConfig(cfg.RateLimitLoginThreshold, window))

	cookies := middleware.Cookies{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain}
	gate := middleware.NewSessionGate(deps.AuthUC, deps.Registry, cookies, cfg.SessionLoadTimeout, deps.Audit)

	// Pages
	NewPageHandler(r.Group("", gate.Handle(middleware.GatePage)), deps.PageUC)
	NewContactHandler(r.Group("", authLimit), deps.ContactUC)

	v1 := r.Group("/v1")

	v1.GET("/health", func(c *gin.Context) {
		status, healthy := deps.HealthUC.Check(c.Request.Context())
		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, "System degraded", status)
			return
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	public := v1.Group("", authLimit)
	optional := v1.Group("", gate.Handle(middleware.GateOptional))
	protected := v1.Group("", gate.Handle(middleware.GateAPI))
	{
		NewAuthHandler(public, optional, protected, deps.AuthUC, AuthHandlerConfig{
			Cookies:     cookies,
			FrontendURL: cfg.FrontendURL,
			PublicEntry: cfg.PublicEntryPath,
		})
		NewNoteHandler(protected, deps.Validate)
	}

	return r
}
