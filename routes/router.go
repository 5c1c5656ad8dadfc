package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cppla/keepsake/config"
	"github.com/cppla/keepsake/content"
	"github.com/cppla/keepsake/controllers"
	"github.com/cppla/keepsake/middleware"
	"github.com/cppla/keepsake/services"
	"github.com/cppla/keepsake/utils"
)

// Deps are the shared handles the router wires into controllers.
type Deps struct {
	Config  config.AppConfig
	DB      *gorm.DB
	Redis   *redis.Client
	Library *content.Library
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	utils.SetDefaultLocale(cfg.DefaultLocale)

	r := gin.New()
	r.Use(utils.RequestID())
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.GinzapWithConfig(gl, &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			Context:    utils.AccessLogFields,
		}))
		r.Use(ginzap.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin logger unavailable path=%s err=%v", cfg.GinPath, err)
		r.Use(gin.Recovery())
	}

	// Credentialed CORS only for explicitly listed origins; a wildcard cannot carry cookies.
	if origins := allowedOrigins(cfg.AllowedOrigins); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Accept-Language", utils.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.Use(preflight())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	signer := utils.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL())
	blacklist := utils.NewTokenBlacklist(deps.Redis)
	var cache services.StateCache
	if sc := utils.NewStateCache(deps.Redis, time.Duration(cfg.StateCacheTTLSeconds)*time.Second); sc != nil {
		cache = sc
	}

	gate := services.NewGate(deps.DB, cfg.AdminSecret)
	store := services.NewStateStore(deps.DB, cache)

	gateController := controllers.NewGateController(gate, signer, blacklist, controllers.CookieSettings{
		Name:   cfg.SessionCookieName,
		Domain: cfg.SessionCookieDomain,
	})
	adminController := controllers.NewAdminController(gate)
	stateController := controllers.NewStateController(store, deps.Library, cfg.Location())
	contentController := controllers.NewContentController(deps.Library)

	api := r.Group("/api/v1")
	api.POST("/gate", gateController.Check)
	api.GET("/session", gateController.Session)
	api.POST("/logout", gateController.Logout)
	api.GET("/content/pools", contentController.Pools)

	admin := api.Group("/admin")
	admin.Use(middleware.RateLimit(cfg.AdminRateLimitPerMinute))
	admin.POST("/codes", adminController.Provision)

	protected := api.Group("/state")
	protected.Use(middleware.SessionRequired(cfg.SessionCookieName, signer, blacklist, gate.Exists))
	protected.GET("", stateController.Get)
	protected.POST("", stateController.Update)
	protected.POST("/visit", stateController.Visit)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "api_not_found")
	})

	return r
}

// preflight answers OPTIONS requests that the cors middleware did not handle.
func preflight() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

func allowedOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || o == "*" {
			continue
		}
		out = append(out, o)
	}
	return out
}
