package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"anoa.com/housecup/internal/bootstrap"
	"anoa.com/housecup/internal/config"
	"anoa.com/housecup/internal/jobs"
	"anoa.com/housecup/internal/logger"
	"anoa.com/housecup/internal/middleware"
	"anoa.com/housecup/pkg/clock"
	"anoa.com/housecup/pkg/storage"

	adminHttp "anoa.com/housecup/internal/modules/admin/delivery/http"

	badgeHttp "anoa.com/housecup/internal/modules/badge/delivery/http"
	badgeRepo "anoa.com/housecup/internal/modules/badge/repository"
	badgeService "anoa.com/housecup/internal/modules/badge/service"

	leaderboardHttp "anoa.com/housecup/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "anoa.com/housecup/internal/modules/leaderboard/repository"
	leaderboardService "anoa.com/housecup/internal/modules/leaderboard/service"

	notifHttp "anoa.com/housecup/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/housecup/internal/modules/notification/repository"
	notifService "anoa.com/housecup/internal/modules/notification/service"

	pointsHttp "anoa.com/housecup/internal/modules/points/delivery/http"
	pointsRepo "anoa.com/housecup/internal/modules/points/repository"
	pointsService "anoa.com/housecup/internal/modules/points/service"

	postHttp "anoa.com/housecup/internal/modules/post/delivery/http"
	postRepo "anoa.com/housecup/internal/modules/post/repository"
	postService "anoa.com/housecup/internal/modules/post/service"

	profileHttp "anoa.com/housecup/internal/modules/profile/delivery/http"
	profileService "anoa.com/housecup/internal/modules/profile/service"

	progressHttp "anoa.com/housecup/internal/modules/progress/delivery/http"
	progressRepo "anoa.com/housecup/internal/modules/progress/repository"
	progressService "anoa.com/housecup/internal/modules/progress/service"

	searchService "anoa.com/housecup/internal/modules/search/service"

	standingRepo "anoa.com/housecup/internal/modules/standings/repository"
	standingsService "anoa.com/housecup/internal/modules/standings/service"

	userRepo "anoa.com/housecup/internal/modules/user/repository"
	userService "anoa.com/housecup/internal/modules/user/service"

	viewService "anoa.com/housecup/internal/modules/view/service"
)

// Deps are the connected stores the server is built on.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Mongo   *mongo.Database
	Redis   *redis.Client
	Clock   clock.Clock
	Timeout time.Duration // bounds startup migrations and index creation
}

type Server struct {
	http      *http.Server
	scheduler *jobs.Scheduler
}

// New wires every module, prepares the stores and registers background jobs.
func New(ctx context.Context, deps Deps) (*Server, error) {
	cfg := deps.Config

	setupCtx, cancel := context.WithTimeout(ctx, deps.Timeout)
	defer cancel()

	if err := bootstrap.Migrate(deps.DB.WithContext(setupCtx)); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	// Stores
	users := userRepo.NewUserRepository(deps.DB)
	ledger := pointsRepo.NewLedgerRepository(deps.DB)
	standingsStore := standingRepo.NewStandingRepository(deps.DB)
	badges := badgeRepo.NewBadgeRepository(deps.DB)
	notifications := notifRepo.NewNotificationRepository(deps.DB)
	progressLogs := progressRepo.NewProgressRepository(deps.Mongo)
	posts := postRepo.NewPostRepository(deps.Mongo)
	weeklyCache := leaderboardRepo.NewWeeklyCache(deps.Redis, cfg.Leaderboard.CacheTTL)

	var images storage.ImageStorage
	if cfg.Cloudinary.URL != "" {
		img, err := storage.NewCloudinaryStorage(cfg.Cloudinary.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cloudinary storage: %w", err)
		}
		images = img
	} else {
		logger.Warn("cloudinary is not configured, image uploads are disabled")
	}

	var (
		search      postService.SearchIndex
		searchSetup bootstrap.Indexer
	)
	if cfg.MeiliSearch.Host != "" {
		meili := searchService.NewMeiliSearchService(cfg.MeiliSearch.Host, cfg.MeiliSearch.MasterKey)
		search = meili
		searchSetup = bootstrap.IndexerFunc(meili.InitIndexes)
	} else {
		logger.Warn("meilisearch is not configured, post search is disabled")
	}

	// Services
	userSvc := userService.NewUserService(users)
	standingsSvc := standingsService.NewStandingsService(standingsStore, ledger, users, weeklyCache, deps.Clock, cfg.Worker.PoolSize)
	pointsSvc := pointsService.NewPointsService(ledger, standingsSvc, deps.Clock)
	notifSvc := notifService.NewNotificationService(notifications, deps.Redis)
	badgeSvc := badgeService.NewBadgeService(badges, users, pointsSvc, notifSvc, deps.Clock)
	viewSvc := viewService.NewViewService(deps.Redis, posts)
	postSvc := postService.NewPostService(posts, users, pointsSvc, notifSvc, viewSvc, search, images, cfg.Cloudinary.UploadFolder, deps.Clock)
	progressSvc := progressService.NewProgressService(progressLogs, users, pointsSvc, badgeSvc, postSvc, deps.Clock)
	leaderboardSvc := leaderboardService.NewLeaderboardService(standingsStore, ledger, users, weeklyCache, deps.Clock)
	profileSvc := profileService.NewProfileService(userSvc, pointsSvc, progressSvc, badgeSvc)

	if err := bootstrap.Seed(setupCtx, users, badgeSvc); err != nil {
		return nil, err
	}
	optional := map[string]bootstrap.Indexer{}
	if searchSetup != nil {
		optional["search"] = searchSetup
	}
	if err := bootstrap.EnsureIndexes(setupCtx, map[string]bootstrap.Indexer{
		"progress": progressLogs,
		"posts":    posts,
	}, optional); err != nil {
		return nil, err
	}

	// Jobs
	scheduler := jobs.NewScheduler(5 * time.Minute)
	for _, job := range []jobs.Job{
		jobs.NewViewSyncJob(viewSvc, cfg.Jobs.ViewSyncSchedule),
		jobs.NewStandingsRebuildJob(standingsSvc, cfg.Jobs.StandingsRebuildSchedule),
	} {
		if err := scheduler.Register(job); err != nil {
			return nil, err
		}
	}

	// Handlers
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)
	pointsHandler := pointsHttp.NewPointsHandler(pointsSvc)
	progressHandler := progressHttp.NewProgressHandler(progressSvc)
	badgeHandler := badgeHttp.NewBadgeHandler(badgeSvc)
	postHandler := postHttp.NewPostHandler(postSvc)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)
	notificationHandler := notifHttp.NewNotificationHandler(notifSvc, deps.Redis, cfg.Server.AllowedOrigins)
	adminHandler := adminHttp.NewAdminHandler(standingsSvc, scheduler)

	authMiddleware := middleware.NewAuthMiddleware(userSvc, cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	rateLimiter := middleware.NewRateLimiter(redis_rate.NewLimiter(deps.Redis), cfg.RateLimit.WritesPerMinute)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.Server.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health"},
	}))

	router.GET("/health", healthHandler(deps))

	api := router.Group("/api")

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth(), rateLimiter.Writes())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.POST("/standings/rebuild", adminHandler.RebuildStandings)
			adminGroup.GET("/jobs", adminHandler.ListJobs)
			adminGroup.POST("/jobs/:name/run", adminHandler.RunJob)
		}

		// Leaderboards
		protected.GET("/leaderboard/weekly", leaderboardHandler.GetWeekly)
		protected.GET("/leaderboard/all-time", leaderboardHandler.GetAllTime)
		protected.GET("/houses/:house/contributors", leaderboardHandler.GetContributors)

		// Profile
		protected.GET("/profile/me", profileHandler.GetCurrentProfile)

		// Points
		protected.GET("/points/me", pointsHandler.GetMySummary)
		protected.GET("/points/me/transactions", pointsHandler.ListMyTransactions)

		// Progress
		protected.POST("/progress", progressHandler.LogProgress)
		protected.GET("/progress", progressHandler.ListProgress)
		protected.GET("/progress/streak", progressHandler.GetStreak)

		// Badges
		protected.GET("/badges", badgeHandler.ListBadgeTypes)
		protected.GET("/badges/me", badgeHandler.ListMyBadges)

		// Community posts
		protected.GET("/posts", postHandler.ListPosts)
		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts/search", postHandler.SearchPosts)
		protected.GET("/posts/:id", postHandler.GetPost)
		protected.POST("/posts/:id/vote", postHandler.Vote)
		protected.POST("/posts/:id/react", postHandler.React)
		protected.POST("/posts/:id/comments", postHandler.AddComment)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		scheduler: scheduler,
		http: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Run starts the job scheduler and serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.scheduler.Start()
	logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then stops the scheduler.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.scheduler.Stop(ctx)
	return err
}

func healthHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true

		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["postgres"] = "down"
			healthy = false
		} else {
			checks["postgres"] = "up"
		}
		if err := deps.Mongo.Client().Ping(ctx, nil); err != nil {
			checks["mongo"] = "down"
			healthy = false
		} else {
			checks["mongo"] = "up"
		}
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "up"
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
