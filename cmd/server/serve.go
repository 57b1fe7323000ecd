package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topicslog/auth"
	"topicslog/internal/acl"
	"topicslog/internal/assets"
	"topicslog/internal/config"
	"topicslog/internal/db"
	"topicslog/internal/docstore"
	"topicslog/internal/docstore/gormstore"
	"topicslog/internal/docstore/memstore"
	"topicslog/internal/identity"
	"topicslog/internal/live"
	"topicslog/internal/livesync"
	"topicslog/internal/logger"
	"topicslog/internal/middleware"
	"topicslog/internal/topic"
	"topicslog/internal/worker"
	"topicslog/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var inMemory bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and live sync server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&inMemory, "memory", false, "keep all data in memory instead of Postgres")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zl, err := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zl.Sync()
	sugar := zl.Sugar()

	if err := identity.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Document store
	var store docstore.Store
	if inMemory {
		sugar.Warnw("Running with the in-memory store. Data is lost on exit.")
		store = memstore.New()
	} else {
		conn, err := db.Open(cfg, sugar)
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer db.Close(conn)

		if err := db.Migrate(conn, sugar); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store = gormstore.New(conn)
	}

	// Redis carries notifications between instances; without it everything
	// stays in process.
	var (
		broker     docstore.Broker
		guard      topic.Guard
		assetStore assets.Store
	)
	if client, err := redis.NewClient(ctx, cfg.RedisAddress, sugar); err == nil {
		defer client.Close()
		broker = redis.NewBroker(client)
		guard = redis.NewGuard(client, cfg.InFlightTTL)
		assetStore = redis.NewCache(client)
	} else {
		broker = docstore.NewLocalBroker()
		guard = topic.NewLocalGuard()
	}

	notifying := docstore.NewNotifying(store, broker, sugar)

	pool := worker.NewWorkerPool(cfg.WorkerPoolSize, 10*time.Second, sugar)

	// Initialize service
	identityService := identity.NewService(identity.NewPasswordAuthenticator(notifying, bcrypt.DefaultCost), notifying, sugar)
	aclService := acl.NewService(notifying, notifying, identityService, sugar)
	topicService := topic.NewService(notifying, guard, pool, cfg.RowLimit, sugar)

	assetCache := assets.NewCache(assetStore, cfg.AssetDir, assets.Manifest{
		Generation: cfg.AssetGeneration,
		Files:      assets.DefaultManifest().Files,
	}, sugar)
	if err := assetCache.Activate(ctx); err != nil {
		sugar.Warnw("asset cache activation failed", "generation", cfg.AssetGeneration, "error", err)
	}

	// Initialize handler
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	identityHandler := identity.NewHandler(identityService, issuer, sugar)
	aclHandler := acl.NewHandler(aclService)
	topicHandler := topic.NewHandler(topicService)
	assetHandler := assets.NewHandler(assetCache)

	var origins []string
	if cfg.IsProduction() {
		origins = []string{cfg.FrontendAddress}
	}
	liveHandler := live.NewHandler(topicService, func() *livesync.Syncer {
		return livesync.NewSyncer(notifying, broker, cfg.RowLimit, sugar)
	}, origins, live.DefaultSettings(), sugar)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.ErrorHandler(sugar))

	authed := auth.AuthMiddleWare(issuer, identityService)

	// Account routes
	router.POST("/signup", identityHandler.Register)
	router.POST("/login", identityHandler.Login)
	router.DELETE("/logout", authed, identityHandler.Logout)
	router.GET("/profile", authed, identityHandler.GetProfile)

	// Topic routes
	topics := router.Group("/topics", authed)
	topics.POST("", topicHandler.Create)
	topics.GET("", topicHandler.List)
	topics.GET("/:id", topicHandler.Show)
	topics.GET("/:id/rows", topicHandler.ListRows)
	topics.POST("/:id/rows", topicHandler.CreateRow)
	topics.PUT("/:id/rows/:rowId", topicHandler.UpdateRow)
	topics.DELETE("/:id/rows/:rowId", topicHandler.DeleteRow)
	topics.GET("/:id/export.csv", topicHandler.Export)
	topics.GET("/:id/shares", aclHandler.ListShares)
	topics.POST("/:id/shares", aclHandler.AddShare)
	topics.DELETE("/:id/shares/:handle", aclHandler.RemoveShare)

	router.GET("/live", authed, liveHandler.Serve)
	router.GET("/app/*path", assetHandler.Serve)

	return serve(router, cfg, pool, sugar)
}

func corsConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
	}

	if cfg.IsProduction() {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{cfg.FrontendAddress}
	} else {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	}
	return corsConfig
}

func serve(router *gin.Engine, cfg *config.Config, pool *worker.WorkerPool, sugar *zap.SugaredLogger) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.Handler(),
	}

	failed := make(chan error, 1)
	go func() {
		sugar.Infow("Server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-failed:
		pool.Shutdown()
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}
	sugar.Infow("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		sugar.Errorw("Server shutdown error", "error", err)
	}
	pool.Shutdown()

	sugar.Infow("Server shutdown complete")
	return nil
}
