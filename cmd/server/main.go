// Notebook server - WebSocket gateway, durable notebook storage, and the
// supervisor that runs each session's kernel as its own OS process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/cache"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/config"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/coordinator"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/gateway"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/kernelproc"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/logger"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/sqlrun"
	"github.com/carter293/Carter-Querio-notebook-sub004/internal/storage"
	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Logging)
	appLogger.Info("starting notebook server", "port", cfg.Server.Port)

	db, err := sqlrun.Open(cfg.Database.URL)
	if err != nil {
		appLogger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	repo := storage.NewNotebookRepository(db)
	appLogger.Info("database connected")

	var notebookCache *cache.NotebookCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis)
		if err != nil {
			appLogger.Warn("redis cache disabled: connection failed", "error", err)
		} else {
			notebookCache = cache.NewNotebookCache(redisCache, cfg.Redis.TTL)
			appLogger.Info("redis cache connected")
		}
	}

	sessions := newSessionRegistry(cfg, repo, notebookCache, appLogger)
	auth := gateway.NewNoAuth()
	handler := gateway.NewHandler(auth, sessions.open, appLogger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))
	router.GET("/ws", gin.WrapH(handler))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("http server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server error", "error", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		appLogger.Info("server shutdown initiated", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		sessions.closeAll()

		if err := server.Shutdown(ctx); err != nil {
			appLogger.Error("graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				appLogger.Error("server close failed", "error", err)
			}
		}

		appLogger.Info("server stopped")
	}
}

// sessionRegistry tracks the one active Coordinator per notebook so a
// reconnect attaches to the same kernel instead of spawning a duplicate,
// and so a server shutdown can cleanly stop every running kernel process.
type sessionRegistry struct {
	cfg   *config.Config
	repo  *storage.NotebookRepository
	cache *cache.NotebookCache
	log   *logger.Logger

	mu       sync.Mutex
	sessions map[string]*trackedSession
}

type trackedSession struct {
	coordinator *coordinator.Coordinator
	cleanup     func()
	refs        int
}

func newSessionRegistry(cfg *config.Config, repo *storage.NotebookRepository, nbCache *cache.NotebookCache, log *logger.Logger) *sessionRegistry {
	return &sessionRegistry{
		cfg:      cfg,
		repo:     repo,
		cache:    nbCache,
		log:      log,
		sessions: make(map[string]*trackedSession),
	}
}

// open returns the notebookID's Coordinator, starting its kernel process
// and hydrating its cell mirror from durable storage on first open. The
// returned cleanup decrements the session's reference count and tears
// down the kernel once the last connection to it closes.
func (r *sessionRegistry) open(ctx context.Context, notebookID string) (*coordinator.Coordinator, func(), error) {
	r.mu.Lock()
	if ts, ok := r.sessions[notebookID]; ok {
		ts.refs++
		r.mu.Unlock()
		return ts.coordinator, func() { r.release(notebookID) }, nil
	}
	r.mu.Unlock()

	sup := kernelproc.New(r.cfg.Kernel.BinaryPath)
	if err := sup.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start kernel for notebook %s: %w", notebookID, err)
	}

	coord := coordinator.New(notebookID, sup, r.repo, r.log)
	if nb := r.loadNotebook(ctx, notebookID); nb != nil {
		coord.LoadNotebook(ctx, nb)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	go coord.Run(runCtx)

	ts := &trackedSession{
		coordinator: coord,
		refs:        1,
		cleanup: func() {
			cancel()
			_ = sup.Shutdown()
		},
	}

	r.mu.Lock()
	r.sessions[notebookID] = ts
	r.mu.Unlock()

	return coord, func() { r.release(notebookID) }, nil
}

// loadNotebook reads through the cache before falling back to durable
// storage; a cache miss or Redis outage is never fatal (spec.md §5.7).
func (r *sessionRegistry) loadNotebook(ctx context.Context, notebookID string) *models.Notebook {
	if r.cache != nil {
		if nb, err := r.cache.Get(ctx, notebookID); err == nil && nb != nil {
			return nb
		}
	}

	nb, err := r.repo.Get(ctx, notebookID)
	if err != nil {
		if !errors.Is(err, models.ErrNotebookNotFound) {
			r.log.Warn("load notebook failed", "notebook_id", notebookID, "error", err)
		}
		return nil
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, nb); err != nil {
			r.log.Warn("cache notebook failed", "notebook_id", notebookID, "error", err)
		}
	}
	return nb
}

func (r *sessionRegistry) release(notebookID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts, ok := r.sessions[notebookID]
	if !ok {
		return
	}
	ts.refs--
	if ts.refs > 0 {
		return
	}

	delete(r.sessions, notebookID)
	ts.cleanup()
}

func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for notebookID, ts := range r.sessions {
		ts.cleanup()
		delete(r.sessions, notebookID)
	}
}
