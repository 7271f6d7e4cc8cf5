package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	apirest "github.com/quailbyte/sociable/api/rest"
	"github.com/quailbyte/sociable/api/sse"
	"github.com/quailbyte/sociable/audit"
	"github.com/quailbyte/sociable/cache"
	"github.com/quailbyte/sociable/config"
	"github.com/quailbyte/sociable/content"
	dbadapter "github.com/quailbyte/sociable/db"
	mw "github.com/quailbyte/sociable/middleware"
	"github.com/quailbyte/sociable/model"
	"github.com/quailbyte/sociable/social"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints are open to everyone.
	if len(cfg.Security.AdminIPs) == 0 {
		logger.Warn("security.admin_ips is empty; admin endpoints accept any client IP")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Social Services ----
	events := social.NewPublisher(pubsub, logger)
	ledger := social.NewLedger(db, events, logger)
	resolver := social.NewResolver(db)
	policy := social.NewPolicy(db)
	profiles := social.NewProfiles(db, events, logger)

	// ---- Content ----
	contentSvc := content.NewService(db, policy, logger)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	profileH := apirest.NewProfileHandler(db, profiles, policy, cfg.Social, logger)
	socialH := apirest.NewSocialHandler(ledger, resolver, profiles, auditSvc, logger)
	postH := apirest.NewPostHandler(contentSvc, profiles, cfg.Social, logger)
	adminH := apirest.NewAdminHandler(db, profiles, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		profileG := api.Group("/profile")
		profileG.Use(mw.Auth(cfg.Security, c))
		profileG.GET("/me", profileH.Me)
		profileG.PUT("/me", profileH.Update)
		profileG.DELETE("/me", profileH.Delete)
		profileG.POST("/privacy", profileH.TogglePrivacy)
		profileG.GET("/:uid", profileH.Get)

		socialG := api.Group("/social")
		socialG.Use(mw.Auth(cfg.Security, c))
		socialG.POST("/follow/:uid", socialH.Follow)
		socialG.POST("/unfollow/:uid", socialH.Unfollow)
		socialG.POST("/undo/:uid", socialH.UndoRequest)
		socialG.POST("/accept/:uid", socialH.Accept)
		socialG.POST("/decline/:uid", socialH.Decline)
		socialG.POST("/block/:uid", socialH.Block)
		socialG.POST("/unblock/:uid", socialH.Unblock)
		socialG.GET("/followers", socialH.Followers)
		socialG.GET("/followings", socialH.Followings)
		socialG.GET("/requests", socialH.PendingRequests)
		socialG.GET("/blocked", socialH.BlockedList)

		postsG := api.Group("/posts")
		postsG.Use(mw.Auth(cfg.Security, c))
		postsG.POST("", postH.Create)
		postsG.GET("/:id", postH.Get)
		postsG.GET("/by/:uid", postH.ListByAuthor)
		postsG.DELETE("/:id", postH.Delete)
		postsG.POST("/:id/comments", postH.AddComment)
		postsG.GET("/:id/comments", postH.ListComments)
		postsG.POST("/:id/vote", postH.Vote)

		commentsG := api.Group("/comments")
		commentsG.Use(mw.Auth(cfg.Security, c))
		commentsG.DELETE("/:id", postH.DeleteComment)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs))
		adminG.POST("/ban/:id", adminH.BanUser)
		adminG.POST("/unban/:id", adminH.UnbanUser)
		adminG.DELETE("/profiles/:uid", adminH.RemoveProfile)
		adminG.GET("/audit", adminH.AuditTrail)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, profiles, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
