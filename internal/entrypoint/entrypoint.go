package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/ponmiso/tsundoku-server/internal/config"
	"github.com/ponmiso/tsundoku-server/internal/covers"
	"github.com/ponmiso/tsundoku-server/internal/database"
	"github.com/ponmiso/tsundoku-server/internal/database/books"
	"github.com/ponmiso/tsundoku-server/internal/database/settings"
	http_controllers "github.com/ponmiso/tsundoku-server/internal/http"
	"github.com/ponmiso/tsundoku-server/internal/images"
	"github.com/ponmiso/tsundoku-server/internal/metadata"
	"github.com/ponmiso/tsundoku-server/internal/scheduler"
	"github.com/ponmiso/tsundoku-server/internal/services"
	"github.com/ponmiso/tsundoku-server/internal/snapshot"
	"github.com/ponmiso/tsundoku-server/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM. SIGKILL cannot be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// taskPrefetcher adapts the task client into the service's prefetch hook.
type taskPrefetcher struct {
	client *tasks.Client
}

func (p *taskPrefetcher) PrefetchCover(bookID uint, coverURL string) {
	_, err := p.client.Add(tasks.PrefetchCoverTask{BookID: bookID, CoverURL: coverURL}).Save()
	if err != nil {
		log.Printf("Failed to enqueue cover prefetch for book %d: %v", bookID, err)
	}
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Tsundoku server v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	settingsRepo := settings.NewRepository(db.DB)

	// Image storage for captured cover photos
	imageManager, err := images.NewManager(cfg.Storage.ImagesDir, cfg.Storage.TempDir)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	// Cover cache for locally caching remote covers
	coverCache, err := covers.NewCache(cfg.Storage.CoversDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
		coverCache = nil
	} else {
		log.Printf("Cover cache initialized at %s", cfg.Storage.CoversDir)
	}

	// Snapshot slot shared with widget consumers
	publisher := snapshot.NewPublisher(settingsRepo)
	reader := snapshot.NewReader(settingsRepo)

	openBDClient := metadata.NewOpenBDClient(cfg.OpenBD.BaseURL)

	bookService := services.NewBookService(bookRepo, openBDClient, imageManager, publisher)
	if coverCache != nil {
		bookService.SetCoverInvalidator(coverCache)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		queues := []backlite.Queue{}
		if coverCache != nil {
			queues = append(queues, tasks.NewPrefetchCoverQueue(coverCache))
			bookService.SetCoverPrefetcher(&taskPrefetcher{client: taskClient})
		}
		taskClient.Register(queues...)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic snapshot republish covers writes that bypass the workflow
	snapshotScheduler := scheduler.NewSnapshotScheduler(bookService, cfg.Snapshot.Schedule)
	if err := snapshotScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start snapshot scheduler: %v", err)
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		BookWorkflow:   bookService,
		BookLookup:     bookService,
		Database:       db,
		ImageResolver:  imageManager,
		ImageStager:    imageManager,
		SnapshotReader: reader,
		Version:        version,
	}
	if coverCache != nil {
		routerCfg.CoverCache = coverCache
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		snapshotScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
