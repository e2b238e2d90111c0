package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "blog-backend/internal/app"
	"blog-backend/internal/bootstrap"
	"blog-backend/internal/cache"
	"blog-backend/internal/pkg/jwtutil"
	"blog-backend/internal/pkg/password"
	"blog-backend/internal/repository"
	"blog-backend/internal/transport/http/handler"
	"blog-backend/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	log := app.Logger

	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(log.Named("http"), app.Metrics), gin.Recovery())
	if len(cfg.App.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.App.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
		}))
	}

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))

	userRepo := repository.NewUserRepository(app.DB)
	otpRepo := repository.NewOTPRepository(app.DB)
	postRepo := repository.NewPostRepository(app.DB)

	tokens := jwtutil.NewManager(cfg.Auth.JWTSecret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	gate := appsvc.NewAuthGate(userRepo, tokens)

	authDeps := appsvc.AuthDeps{
		Users:   userRepo,
		OTPs:    appsvc.NewOTPService(otpRepo, cfg.OTPTTL(), nil),
		Hasher:  password.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens:  tokens,
		Gate:    gate,
		Mailer:  app.Mailer,
		Metrics: app.Metrics,
		Logger:  log,
	}
	var postCache appsvc.PostCache
	if app.Redis != nil {
		authDeps.Throttle = cache.NewOTPThrottle(app.Redis, cfg.OTPResendCooldown())
		postCache = cache.NewPostCache(app.Redis, cfg.PostCacheTTL())
	}
	authService := appsvc.NewAuthService(authDeps)
	postService := appsvc.NewPostService(postRepo, postCache, log)

	authHandler := handler.NewAuthHandler(authService, handler.CookieSettings{
		AccessName:  cfg.Auth.AccessCookieName,
		RefreshName: cfg.Auth.RefreshCookieName,
		Secure:      cfg.Auth.CookieSecure,
		AccessTTL:   cfg.AccessTokenTTL(),
		RefreshTTL:  cfg.RefreshTokenTTL(),
	}, log)
	blogHandler := handler.NewBlogHandler(postService, log)

	activeUser := middleware.RequireUser(gate, cfg.Auth.AccessCookieName, appsvc.RequireActiveUser, log)
	verifiedUser := middleware.RequireUser(gate, cfg.Auth.AccessCookieName, appsvc.RequireVerifiedUser, log)

	api := router.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/verify", authHandler.Verify)
	authGroup.POST("/resend-otp", authHandler.ResendOTP)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", activeUser, authHandler.Me)

	blogGroup := api.Group("/blogs")
	blogGroup.GET("/", blogHandler.List)
	blogGroup.GET("/:slug", blogHandler.Get)
	blogGroup.POST("/", verifiedUser, blogHandler.Create)
	blogGroup.PUT("/:slug", verifiedUser, blogHandler.Update)
	blogGroup.DELETE("/:slug", verifiedUser, blogHandler.Delete)

	return router
}
