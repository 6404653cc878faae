package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pocketideas/api/internal/config"
	"pocketideas/api/internal/metadata"
	"pocketideas/api/internal/middleware"
	"pocketideas/api/internal/ratelimit"
	"pocketideas/api/internal/repository"
	"pocketideas/api/internal/service"
	"pocketideas/api/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	db             *pgxpool.Pool
	cache          *redis.Client
	sessionService *service.SessionService
	authService    *service.AuthService
	itemService    *service.ItemService
	linkService    *service.LinkService
	imageService   *service.ImageService
	exportService  *service.ExportService
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, limiter ratelimit.Limiter, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	itemRepo := repository.NewItemRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	imageRepo := repository.NewImageRepository(db)

	sessions := service.NewSessionService(sessionRepo, userRepo, cfg.Security.SessionTTL, log)
	auth := service.NewAuthService(userRepo, sessions, limiter, log)
	items := service.NewItemService(itemRepo, imageRepo, linkRepo, store, log)
	links := service.NewLinkService(linkRepo, itemRepo, metadata.NewFetcher(), log)
	images := service.NewImageService(imageRepo, itemRepo, store, cfg.Upload.MaxBytes, log)
	export := service.NewExportService(itemRepo, linkRepo, imageRepo)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		db:             db,
		cache:          cache,
		sessionService: sessions,
		authService:    auth,
		itemService:    items,
		linkService:    links,
		imageService:   images,
		exportService:  export,
	}
}

// Sessions exposes the session service so the maintenance scheduler can
// share the instance wired here.
func (h HandlerSet) Sessions() *service.SessionService { return h.sessionService }

// Items exposes the item service for the trash retention sweep.
func (h HandlerSet) Items() *service.ItemService { return h.itemService }

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("")
		protected.Use(middleware.Auth(h.sessionService, h.cfg.Security.SessionCookieName))

		protected.GET("/auth/me", h.Me)

		protected.GET("/items", h.ListItems)
		protected.POST("/items", h.CreateItem)
		protected.GET("/items/:id", h.GetItem)
		protected.PATCH("/items/:id", h.UpdateItem)
		protected.DELETE("/items/:id", h.TrashItem)
		protected.POST("/items/:id/done", h.MarkDone)
		protected.POST("/items/:id/restore", h.RestoreItem)
		protected.POST("/items/:id/archive", h.ArchiveItem)
		protected.POST("/items/:id/pin", h.TogglePinned)

		protected.GET("/trash", h.ListTrash)
		protected.POST("/trash/:id/restore", h.RestoreFromTrash)
		protected.DELETE("/trash/:id", h.PurgeItem)
		protected.DELETE("/trash", h.EmptyTrash)

		protected.GET("/items/:id/links", h.ListLinks)
		protected.POST("/items/:id/links", h.AddLink)
		protected.DELETE("/links/:id", h.RemoveLink)

		protected.GET("/items/:id/images", h.ListImages)
		protected.POST("/items/:id/images", h.UploadImage)
		protected.PUT("/items/:id/images/order", h.ReorderImages)
		protected.DELETE("/images/:id", h.RemoveImage)

		protected.GET("/export", h.ExportAll)
	}
}

// respondError maps service-level conditions to HTTP responses: field-level
// validation to 400, missing entities to 404, rate limiting to 429. Anything
// unrecognized is a storage or infra failure and surfaces as a generic 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation_failed",
			"fields": validation.Fields,
		})
		return
	}

	var rateLimited *service.RateLimitedError
	if errors.As(err, &rateLimited) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":             "too_many_attempts",
			"retryAfterSeconds": rateLimited.RetryAfterSeconds,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}
