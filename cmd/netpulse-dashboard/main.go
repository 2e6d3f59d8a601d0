package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"netpulse/internal/config"
	"netpulse/internal/logging"
	"netpulse/internal/server"
	"netpulse/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to configuration file (YAML); defaults to $"+config.EnvPath+" or "+config.DefaultPath)
		addr       = flag.String("addr", "", "address for the web server (overrides dashboard.addr)")
	)
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Dashboard.Addr = *addr
	}
	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	var source storage.Source = storage.NewLogStore(cfg.LogFile)
	if cfg.Dashboard.Source == config.SourceSQLite {
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("open sqlite: %v", err)
		}
		defer db.Close()
		source = db
	}
	if _, err := os.Stat(cfg.LogFile); cfg.Dashboard.Source == config.SourceLog && errors.Is(err, os.ErrNotExist) {
		log.WithField("log_file", cfg.LogFile).Warn("log file not found; run netpulse first")
	}

	srv := server.New(cfg.Dashboard, source, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":    cfg.Dashboard.Addr,
		"source":  cfg.Dashboard.Source,
		"refresh": cfg.Dashboard.Refresh().String(),
	}).Info("NetPulse dashboard listening")
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
