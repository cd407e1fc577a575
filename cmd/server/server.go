package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dobprotocol/doblink/cmd"
	"github.com/dobprotocol/doblink/internal/api"
	"github.com/dobprotocol/doblink/internal/config"
	"github.com/dobprotocol/doblink/internal/hashgen"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/monitor"
	"github.com/dobprotocol/doblink/internal/repository"
	"github.com/dobprotocol/doblink/internal/services"
	"github.com/dobprotocol/doblink/internal/workers"
	"github.com/dobprotocol/doblink/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RunServerCmd is the 'run-server' command: it wires storage, services,
// the async event workers, the embed domain monitor and the HTTP server.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Starts the DOB Link API server and its background processes.",
	Long: `This command initializes storage (SQLite or in-memory depending on
configuration), starts the analytics event workers and the embed domain
monitor, then serves the widget and analytics HTTP API.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		widgetRepo, eventRepo, poolRepo, err := buildRepositories(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		log.Printf("Repositories initialized (driver: %s).", cfg.Database.Driver)

		widgetService := services.NewWidgetService(widgetRepo, hashgen.New(), cfg.Server.BaseURL, cfg.Server.ScriptURL)
		analyticsService := services.NewAnalyticsService(widgetRepo, eventRepo)
		poolService := services.NewPoolService(poolRepo)
		log.Println("Services initialized.")

		// Analytics events queued by the embed path are drained by the
		// worker pool; each processed event refreshes the live dashboard
		// feed.
		broadcaster := ws.NewBroadcaster()
		eventsChan := make(chan models.EventMessage, cfg.Analytics.BufferSize)
		api.EventsChannel = eventsChan
		workers.StartEventWorkers(cfg.Analytics.WorkerCount, eventsChan, analyticsService, broadcaster)
		log.Printf("Event channel initialized with a buffer of %d. %d worker(s) started.",
			cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)

		if cfg.Monitor.Enabled {
			interval := time.Duration(cfg.Monitor.IntervalMinutes) * time.Minute
			lookback := time.Duration(cfg.Monitor.LookbackHours) * time.Hour
			domainMonitor := monitor.NewDomainMonitor(eventRepo, interval, lookback)
			go domainMonitor.Start()
			log.Printf("Embed domain monitor started with an interval of %v.", interval)
		}

		router := gin.Default()
		api.SetupRoutes(router, widgetService, analyticsService, poolService, cfg.Analytics.BufferSize)
		router.GET("/ws/dashboard", gin.WrapH(broadcaster.Handler()))
		log.Println("API routes configured.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		go func() {
			log.Printf("Starting server on %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutdown signal received. Stopping server...")

		stopServer(srv, eventsChan)
		log.Println("Shutting down... Giving workers time to finish.")
		time.Sleep(5 * time.Second)

		log.Println("Server stopped cleanly.")
	},
}

// stopServer drains the service in two steps: stop the HTTP server (which
// waits for in-flight handlers), then close the events channel so the
// workers finish and exit. The embed path sends on the channel, so it must
// be closed only once no handler can still be running.
func stopServer(srv *http.Server, eventsChan chan models.EventMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	close(eventsChan)
}

// buildRepositories opens the configured storage backend and returns the
// three repositories over it.
func buildRepositories(cfg *config.Config) (repository.WidgetRepository, repository.EventRepository, repository.PoolRepository, error) {
	switch cfg.Database.Driver {
	case "memory":
		store := repository.NewMemoryStore()
		return store, store, repository.NewMemoryPoolRepository(), nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.AutoMigrate(&models.LiquidityPool{}, &models.TokenMetric{}, &models.Widget{}, &models.AnalyticsEvent{}); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repository.NewWidgetRepository(db), repository.NewEventRepository(db), repository.NewPoolRepository(db), nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
