package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"sqlgate/pkg/api"
	"sqlgate/pkg/config"
	"sqlgate/pkg/driver"
	"sqlgate/pkg/health"
	"sqlgate/pkg/logger"
	"sqlgate/pkg/pool"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "Config file path (optional)")
	addr := flag.String("addr", "", "Server address (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Address = *addr
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	logger.Init(logger.LogLevel(cfg.Logging.Level), cfg.Logging.Format)
	log := logger.Get()
	log.InfoWith("starting sqlgate", "config", cfg.String())

	registry := pool.NewRegistry()
	monitor := health.NewMonitor()
	for _, pc := range cfg.Pools {
		connector, err := driver.New(pc.Driver)
		if err != nil {
			log.ErrorWithErr("unusable pool configuration", err, "pool", pc.Name)
			os.Exit(1)
		}
		if _, err := registry.GetOrCreate(pc.Name, pc.Pool(), connector); err != nil {
			log.ErrorWithErr("pool registration failed", err, "pool", pc.Name)
			os.Exit(1)
		}
		monitor.SetComponentStatus(pc.Name, health.StatusHealthy, "pool registered")
		log.InfoWith("pool registered", "pool", pc.Name, "driver", pc.Driver)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(), api.CORSMiddleware())
	api.NewHandler(registry, monitor).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: router,
	}
	go func() {
		log.InfoWith("listening", "addr", cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorWithErr("server failed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWithErr("server shutdown", err)
	}
	registry.CloseAll()
	log.Info("stopped")
}
