package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"planner/core/database"
	"planner/core/loader"
	"planner/core/logger"
	"planner/core/middleware/auth"
	"planner/core/middleware/rayid"
	"planner/core/storage"

	"planner/feature/calsync"
	"planner/feature/integrity"
	"planner/feature/planner"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "planner/docs/swagger"
)

// @title Planner API
// @version 1.0
// @description API for recurring tasks, scoped edits and calendar sync.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the planner server",
	Long:  `Starts the HTTP server, initializes all enabled features and runs the calendar sync schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := loadRuntime()
		if err != nil {
			log.Fatalf("%v", err)
		}
		cfg, logg := rt.cfg, rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		if err := cfg.Server.Validate(); err != nil {
			logg.Fatal("Invalid server configuration", zap.Error(err))
		}
		ctx := context.Background()

		// Database (optional): without it only integrity checks of storage run.
		var db *gorm.DB
		if conn, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Database connection failed, planner disabled", zap.Error(err))
		} else {
			db = conn
			logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		}

		// Storage (optional): without it exports answer 503.
		var store storage.Client
		if client, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Storage client unavailable, exports disabled", zap.Error(err))
		} else if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			logg.Warn("Storage bucket unavailable, exports disabled", zap.Error(err))
		} else {
			store = client
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimit(),
			JSONEncoder:           json.Marshal,
			JSONDecoder:           json.Unmarshal,
		})

		plannerFeature := planner.NewFeature(db, cfg.Recurrence, logg)
		if plannerFeature.IsEnabled() {
			if err := plannerFeature.Store().Migrate(ctx); err != nil {
				logg.Fatal("Failed to migrate planner tables", zap.Error(err))
			}
		}

		calOpts, err := rt.calendarOptions(plannerFeature.Service())
		if err != nil {
			logg.Fatal("Invalid sync configuration", zap.Error(err))
		}
		calOpts.Storage = store
		if cfg.Sync.Enabled {
			google, err := rt.googleCalendar(ctx)
			if err != nil {
				logg.Fatal("Failed to create Google Calendar client", zap.Error(err))
			}
			calOpts.Calendar = google
		}
		calFeature := calsync.NewFeature(calOpts, logg)

		mgr := loader.NewManager()
		mgr.Register(plannerFeature)
		mgr.Register(calFeature)
		mgr.Register(integrity.NewFeature(store, cfg.Storage.Bucket, db, logg))

		// RayID first so every log line below carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Public endpoints.
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/metrics"}}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		var scheduler *calsync.Scheduler
		if syncer := calFeature.Syncer(); syncer != nil {
			scheduler, err = calsync.NewScheduler(syncer, cfg.Sync.Schedule, calOpts.Location, calsync.DefaultRunTimeout, logg)
			if err != nil {
				logg.Fatal("Failed to create sync scheduler", zap.Error(err))
			}
			scheduler.Start()
		}

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
		defer cancel()
		if scheduler != nil {
			if err := scheduler.Stop(shutdownCtx); err != nil {
				logg.Warn("Sync job did not finish before shutdown", zap.Error(err))
			}
		}
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logg.Error("Server shutdown failed", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
