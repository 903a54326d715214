package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-console/internal/client/users"
	"users-console/internal/config"
	"users-console/internal/console"
	"users-console/internal/console/web"
	"users-console/pkg/httpserver"
	"users-console/pkg/logger"
)

// App represents the console process
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Server   *http.Server
	Sessions *console.Registry
}

// New creates a new console instance
func New() (*App, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	l, err := logger.NewWithConfig(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		OutputPath:     cfg.Logger.OutputPath,
		EnableSampling: cfg.Logger.EnableSampling,
		ServiceName:    cfg.Logger.ServiceName + "-console",
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    env,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := users.New(cfg.Console.APIBaseURL,
		users.WithTimeout(cfg.Console.ClientTimeout),
		users.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create users client: %w", err)
	}

	sessions := console.NewRegistry(cfg.Console.SessionTTL, func() *console.Controller {
		return console.NewController(client, l)
	}, l)

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := web.NewRouter(web.NewHandler(sessions, cfg.Console.SessionTTL, l), l)

	return &App{
		Config:   cfg,
		Logger:   l,
		Server:   httpserver.New(":"+cfg.Console.HTTPPort, engine),
		Sessions: sessions,
	}, nil
}

// Run serves the console until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting users console",
		zap.String("api", a.Config.Console.APIBaseURL),
		zap.String("address", a.Server.Addr),
	)

	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.Sessions.Run(sweepCtx, a.Config.Console.SessionTTL/2)

	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	err := httpserver.Run(ctx, a.Server, timeout, a.Logger)
	if err != nil {
		a.Logger.Error("HTTP server stopped", zap.Error(err))
	}

	a.Logger.Info("console shutdown complete")
	_ = a.Logger.Sync()
	return err
}
