package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "hubspace_bridge/docs" // swagger docs registration

	"hubspace_bridge/internal/handlers"
	"hubspace_bridge/internal/hubspace"
	"hubspace_bridge/internal/logger"
	"hubspace_bridge/internal/repository"
	"hubspace_bridge/internal/server"
	"hubspace_bridge/internal/service"

	"github.com/spf13/viper"
)

// @title        Hubspace Bridge API
// @version      1.0
// @description  Synchronous HTTP control surface over Hubspace cloud lights.

// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization

func main() {
	// load config.yml first so the log level is configurable
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(viper.GetString("log_level"))

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the device bridge; blocks until auth + discovery settle
	bridge := hubspace.New(bridgeConfig(), log)
	bridge.Start(ctx)

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos, bridge, viper.GetString("auth.signing_key"), log)
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, bridge, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	// credentials usually arrive via environment, not the config file
	_ = viper.BindEnv("hubspace.email", "HUBSPACE_EMAIL")
	_ = viper.BindEnv("hubspace.password", "HUBSPACE_PASSWORD")

	return viper.ReadInConfig()
}

// bridgeConfig maps the hubspace.* config block onto the bridge config.
func bridgeConfig() hubspace.Config {
	return hubspace.Config{
		Email:    viper.GetString("hubspace.email"),
		Password: viper.GetString("hubspace.password"),
		BaseURL:  viper.GetString("hubspace.base_url"),
		AuthURL:  viper.GetString("hubspace.auth_url"),

		InitTimeout:    viper.GetDuration("hubspace.init_timeout"),
		StartupWait:    viper.GetDuration("hubspace.startup_wait"),
		CommandTimeout: viper.GetDuration("hubspace.command_timeout"),
		CloseTimeout:   viper.GetDuration("hubspace.close_timeout"),
		CacheTTL:       viper.GetDuration("hubspace.cache_ttl"),
	}
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "hubspace_bridge.db")
		dbPath = "hubspace_bridge.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, bridge *hubspace.Bridge, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines and close the cloud session
	cancel()
	bridge.Stop()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
