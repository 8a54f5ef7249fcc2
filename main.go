package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/brewtrail/brewtrail-engine/pkg/config"
	"github.com/brewtrail/brewtrail-engine/pkg/crypto"
	"github.com/brewtrail/brewtrail-engine/pkg/database"
	"github.com/brewtrail/brewtrail-engine/pkg/handlers"
	"github.com/brewtrail/brewtrail-engine/pkg/logging"
	"github.com/brewtrail/brewtrail-engine/pkg/middleware"
	"github.com/brewtrail/brewtrail-engine/pkg/repositories"
	"github.com/brewtrail/brewtrail-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())))

	// Migrations run over database/sql; the pgx stdlib driver shares the
	// connection settings with the pool below.
	migrationDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	stateRepo := repositories.NewStateRepository(db)
	countyRepo := repositories.NewCountyRepository(db)
	cityRepo := repositories.NewCityRepository(db)
	userRepo := repositories.NewUserRepository(db)
	breweryRepo := repositories.NewBreweryRepository(db)

	hasher := crypto.NewPasswordHasher(bcrypt.DefaultCost)
	geoImport := services.NewGeoImportService(stateRepo, countyRepo, cityRepo, logger)
	breweryImport := services.NewBreweryImportService(stateRepo, cityRepo, breweryRepo, userRepo,
		hasher, cfg.Import.DefaultStaffPassword, logger)
	importJobs := services.NewImportJobService(geoImport, breweryImport, cfg.Import.SkipLogDir, logger)
	defer importJobs.Shutdown()

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewGeoHandler(stateRepo, countyRepo, cityRepo, logger).RegisterRoutes(mux)
	handlers.NewBreweriesHandler(breweryRepo, logger).RegisterRoutes(mux)
	handlers.NewImportsHandler(importJobs, &cfg.Import, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: middleware.RequestLogger(logger)(mux),
	}

	go func() {
		logger.Info("Starting brewtrail-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
