package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"authd/internal/cache"
	"authd/internal/config"
	"authd/internal/metrics"
	"authd/internal/middleware"
	"authd/internal/queue"
	"authd/internal/repository"
	"authd/internal/security"
	"authd/internal/service"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	signer      *security.Signer
	authService *service.AuthService
	userService *service.UserService
	metrics     *metrics.Metrics
	db          *pgxpool.Pool
	cache       *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, redisClient *redis.Client, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	signer := security.NewSigner(
		cfg.Security.JWTSecret,
		cfg.Security.AccessTTL,
		cfg.Security.RefreshTTL,
	)

	store := cache.NewStore(redisClient)
	notifier := queue.NewEmailPublisher(redisClient, cfg.Mail.Stream)
	m := metrics.New(prometheus.DefaultRegisterer)

	auth := service.NewAuthService(
		userRepo,
		tokenRepo,
		signer,
		notifier,
		store,
		log,
		cfg.Security.ActivationTTL,
		cfg.Security.ResetTTL,
	)
	users := service.NewUserService(userRepo, store, log)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		signer:      signer,
		authService: auth,
		userService: users,
		metrics:     m,
		db:          db,
		cache:       redisClient,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(h.metrics.Handler())
	{
		auth := v1.Group("/auth")
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/activate", h.Activate)
		auth.POST("/password/forgot", h.RequestPasswordReset)
		auth.POST("/password/reset", h.ResetPassword)

		auth.POST("/refresh", middleware.Auth(h.signer), h.Refresh)

		users := v1.Group("/users")
		users.Use(middleware.Auth(h.signer))
		users.GET("", h.ListUsers)
		users.GET("/:id", middleware.AdminOrSelf(h.signer), h.GetUser)
		users.PUT("/:id", middleware.AdminOrSelf(h.signer), h.UpdateUser)
		users.DELETE("/:id", middleware.AdminOrSelf(h.signer), h.DeleteUser)
	}
}
