package main

import (
	"context"
	"io"
	"os"

	"cnpjsaneador/cmd/internal/config"
	"cnpjsaneador/cmd/internal/domain/sqlite"
	"cnpjsaneador/cmd/internal/domain/sqlite/repository"
	handler2 "cnpjsaneador/cmd/internal/http/handler"
	"cnpjsaneador/cmd/internal/infrastructure/lookupcache"
	"cnpjsaneador/cmd/internal/infrastructure/receitaws"
	"cnpjsaneador/cmd/internal/pipeline"
	"cnpjsaneador/cmd/internal/service"
	"cnpjsaneador/cmd/internal/service/jobs"
	"cnpjsaneador/cmd/internal/utils/uid"
	"cnpjsaneador/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const configPathEnv = "CONFIG_FILE"

func main() {
	validate := validator.New()
	registerValidators(validate)

	// Loads env vars from .env when present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logFile.Close()

	uid.Init(1)

	if err := os.MkdirAll(cfg.Server.UploadsDir, 0755); err != nil {
		panic(err)
	}

	// Init SQLite
	db, err := sqlite.Init(cfg.Server.DBFile)
	if err != nil {
		panic(err)
	}

	// Gettings repos
	datasetRepo := repository.NewDatasetRepository(db)
	runRepo := repository.NewRunRepository(db)

	// Lookup stack: JSON snapshot cache + remote client + pipeline
	cache := lookupcache.New(cfg.Lookup.CacheFile, cfg.Freshness(), logger)
	client := receitaws.NewClient(cfg.Lookup.BaseURL)
	pl := pipeline.New(cache, client, logger)

	// Getting services
	datasetService := service.NewDatasetService(datasetRepo, cfg.Server.UploadsDir, logger)
	runService := service.NewRunService(runRepo, datasetRepo, pl, validate, logger)

	// Gettings handler
	datasetRoutes := handler2.NewDatasetRoute(datasetService)
	runRoutes := handler2.NewRunRoute(runService)

	// Run history retention sweeper
	cleaner := jobs.NewRunHistoryCleaner(runRepo, cfg.Retention(), cfg.SweepInterval(), logger)
	go cleaner.Start(context.Background())

	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("30M"))

	// Datasets
	e.GET("/api/datasets", datasetRoutes.GetDatasets)
	e.GET("/api/datasets/:id", datasetRoutes.GetDataset)
	e.POST("/api/datasets", datasetRoutes.UploadDataset)

	// Runs
	e.GET("/api/runs", runRoutes.GetRuns)
	e.GET("/api/runs/:id", runRoutes.GetRun)
	e.GET("/api/runs/:id/events", runRoutes.GetRunEvents)
	e.POST("/api/runs", runRoutes.StartRun)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	if err := e.Start(cfg.Server.ListenAddr); err != nil {
		panic(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("nodupes", validators.NoDupes)
}

// newLogger builds the injected logger instance writing to stdout and
// the append-only log file.
func newLogger(cfg *config.Config) (*log.Logger, *os.File, error) {
	f, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	logger := log.New("cnpjsaneador")
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	logger.SetLevel(parseLevel(cfg.Logging.Level))
	return logger, f, nil
}

func parseLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
