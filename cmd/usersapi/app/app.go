package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-console/cmd/usersapi/di"
	"users-console/internal/adapter/gin/router"
	"users-console/internal/config"
	"users-console/pkg/httpserver"
	"users-console/pkg/logger"
)

// App represents the users API process
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Server    *http.Server
	Container *di.Container
}

// New creates a new application instance
func New() (*App, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container, err := di.NewContainer(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	if getEnvironment() == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.SetupRouter(container.GinHandler, container.RouterOptions(), l)

	return &App{
		Config:    cfg,
		Logger:    l,
		Server:    httpserver.New(":"+cfg.App.HTTPPort, engine),
		Container: container,
	}, nil
}

// Run serves the API until ctx is canceled, then releases every resource.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting users API",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", getEnvironment()),
		zap.String("swagger", "http://localhost:"+a.Config.App.HTTPPort+"/swagger/index.html"),
	)

	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	serveErr := httpserver.Run(ctx, a.Server, timeout, a.Logger)
	if serveErr != nil {
		a.Logger.Error("HTTP server stopped", zap.Error(serveErr))
	}

	var errs []error
	if serveErr != nil {
		errs = append(errs, fmt.Errorf("server: %w", serveErr))
	}

	if a.Container != nil {
		a.Logger.Info("closing container resources...")
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	a.Logger.Info("application shutdown complete")
	_ = a.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewWithConfig(logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      getEnvironment(),
	})
}

// getConfigPath returns the configuration path
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}

// getEnvironment returns the application environment
func getEnvironment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
