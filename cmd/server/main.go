package main

import (
	"context"
	"ctchen222/todo-backend/internal/api/controller"
	"ctchen222/todo-backend/internal/api/repository"
	"ctchen222/todo-backend/internal/api/service"
	"ctchen222/todo-backend/internal/auth"
	"ctchen222/todo-backend/internal/config"
	"ctchen222/todo-backend/internal/db"
	"ctchen222/todo-backend/internal/events"
	"ctchen222/todo-backend/internal/logger"
	"ctchen222/todo-backend/internal/server"
	"ctchen222/todo-backend/internal/store"
	"ctchen222/todo-backend/internal/telemetry"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "todo-backend",
		Usage: "Todo, contact form and account API",
		Commands: []*cli.Command{
			serveCmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on, overrides PORT",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Store driver (mongo, redis, sqlite, memory), overrides STORE_DRIVER",
			},
			&cli.StringFlag{
				Name:  "sqlite-path",
				Usage: "SQLite database file, overrides SQLITE_PATH",
			},
		},
		Action: func(appCtx *cli.Context) error {
			cfg, err := config.Load(flagOverrides(appCtx))
			if err != nil {
				return err
			}
			return run(appCtx.Context, cfg)
		},
	}
}

// flagOverrides lets command line flags win over the environment.
func flagOverrides(appCtx *cli.Context) config.Override {
	return func(cfg *config.Config) {
		if port := appCtx.String("port"); port != "" {
			cfg.Server.Port = port
		}
		if driver := appCtx.String("store"); driver != "" {
			cfg.Store.Driver = strings.ToLower(driver)
		}
		if path := appCtx.String("sqlite-path"); path != "" {
			cfg.SQLite.Path = path
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()
	logger.Init(cfg.Log, cfg.Telemetry.Enabled)

	// Open the document store
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			slog.Error("Error closing store", "error", err)
		}
	}()

	repos, err := repository.Open(ctx, st)
	if err != nil {
		return err
	}

	// Create the change feed hub
	var relay *redis.Client
	if cfg.Events.UseRedis {
		relay, err = db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize event relay: %w", err)
		}
		defer relay.Close()
	}
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := events.NewHub(relay)
	go hub.Run(hubCtx)

	// Create services
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	userService := service.NewUserService(repos.Users, hasher, tokens)
	todoService := service.NewTodoService(repos.Todos, hub)
	contactService := service.NewContactService(repos.Contacts, hub)

	// Create the Gin-based server
	srv := server.NewServer(cfg.Auth, tokens, server.Controllers{
		Users:    controller.NewUserController(userService),
		Todos:    controller.NewTodoController(todoService),
		Contacts: controller.NewContactController(contactService),
		Events:   controller.NewEventsController(hub),
		System:   controller.NewSystemController(st),
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "http.addr", httpServer.Addr, "store.driver", cfg.Store.Driver, "auth.required", cfg.Auth.Required)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("ListenAndServe: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	// Stop the hub first so websocket subscribers are released.
	stopHub()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server exiting")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, err := db.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mongo: %w", err)
		}
		return store.NewMongoStore(client, cfg.Mongo.Database), nil

	case config.DriverRedis:
		rdb, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		return store.NewRedisStore(rdb), nil

	case config.DriverSQLite:
		DB, err := db.SQLiteConnect(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite db connection: %w", err)
		}
		if err := db.InitializeSchema(ctx, DB); err != nil {
			DB.Close()
			return nil, fmt.Errorf("failed to initialize sqlite db: %w", err)
		}
		return store.NewSQLiteStore(DB), nil

	case config.DriverMemory:
		slog.Warn("Using the in-memory store, data is lost on exit")
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
