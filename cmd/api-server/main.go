package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"platehub/internal/activity"
	"platehub/internal/auth"
	"platehub/internal/catalog"
	"platehub/internal/collection"
	"platehub/internal/imagecache"
	"platehub/internal/metrics"
	synchub "platehub/internal/sync"
	"platehub/pkg/database"
	"platehub/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("PLATEHUB_CONFIG"), "path to platehub.yaml")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.Logging, os.Stderr)

	if err := run(cfg, logger); err != nil {
		logger.Error("api server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg utils.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenMigrated(database.Config{Path: cfg.Database.Path})
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := metrics.New()
	if err != nil {
		return err
	}

	store, report, err := catalog.LoadSources(ctx, logger.With("component", "catalog"), catalog.SourcesFromConfig(cfg.Catalog)...)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	m.Collection.SetCatalogPlates(store.Len())
	logger.Info("catalog ready", "plates", store.Len(), "skipped_rows", report.Skipped(), "failed_sources", len(report.Failed))

	images, err := imagecache.New(cfg.Images.Dir, cfg.Images.CacheSize, cfg.Images.MissTTL, logger.With("component", "imagecache"))
	if err != nil {
		return err
	}
	monitor := imagecache.NewMonitor(cfg.Images.PressurePercent, cfg.Images.PollInterval, func() {
		m.Collection.ImagesEvicted(images.HandleMemoryPressure())
	}, logger.With("component", "memory"))

	hub := synchub.NewHub(logger.With("component", "sync"))
	hub.OnBroadcast = m.Collection.EventBroadcast
	tcpSrv := synchub.NewServer(cfg.Server.SyncAddr, hub, logger.With("component", "sync"))

	_ = m.GaugeFunc("platehub_sync_clients", "Connected sync subscribers.", func() float64 {
		return float64(hub.Count())
	})
	_ = m.GaugeFunc("platehub_image_cache_entries", "Images held in the cache.", func() float64 {
		return float64(images.Len())
	})

	trackers := collection.NewRegistry(collection.SQLiteOpener(db, collection.ConfigFrom(cfg.Collection),
		collection.WithLogger(logger.With("component", "collection")),
		collection.WithRecorder(m.Collection),
	))
	_ = m.GaugeFunc("platehub_open_trackers", "Player trackers held in memory.", func() float64 {
		return float64(trackers.Len())
	})

	router := buildRouter(cfg, routerDeps{
		db:       db,
		metrics:  m,
		catalog:  store,
		images:   images,
		hub:      hub,
		trackers: trackers,
		log:      logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(ctx); err != nil {
			errCh <- fmt.Errorf("tcp sync: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("http api listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("servers stopped")
	return runErr
}

type routerDeps struct {
	db       *sql.DB
	metrics  *metrics.Metrics
	catalog  *catalog.Store
	images   *imagecache.Cache
	hub      *synchub.Hub
	trackers *collection.Registry
	log      *slog.Logger
}

func buildRouter(cfg utils.Config, d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), d.metrics.HTTP.Middleware())
	_ = router.SetTrustedProxies(cfg.Server.TrustedProxies)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "plates": d.catalog.Len()})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := d.hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := d.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"db":       cfg.Database.Path,
			"sync":     d.hub.Stats(),
			"images":   d.images.Stats(),
			"trackers": d.trackers.Len(),
		})
	})

	router.GET("/metrics", gin.WrapH(d.metrics.Handler()))
	router.GET("/ws", synchub.WSHandler(d.hub))

	catalog.NewHandler(d.catalog).RegisterRoutes(router.Group("/plates"))
	imagecache.NewHandler(d.images).RegisterRoutes(router.Group("/images"))

	tokens := auth.NewTokenService(cfg.Auth)
	authRepo := auth.NewRepo(d.db)
	authHandler := auth.NewHandler(authRepo, tokens)
	authHandler.RegisterRoutes(router.Group("/auth"))

	players := router.Group("/players")
	players.Use(auth.AuthMiddleware(tokens, authRepo))
	authHandler.RegisterPlayerRoutes(players)

	activityRepo := activity.NewRepo(d.db)
	collection.NewHandler(d.trackers, d.catalog, activityRepo, d.hub, d.log.With("component", "api")).RegisterRoutes(players)
	activity.NewHandler(activityRepo).RegisterRoutes(players)

	return router
}
