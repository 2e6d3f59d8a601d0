package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"netpulse/internal/config"
	"netpulse/internal/logging"
	"netpulse/internal/monitor"
	"netpulse/internal/probe"
	"netpulse/internal/storage"
	"netpulse/internal/targets"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (YAML); defaults to $"+config.EnvPath+" or "+config.DefaultPath)
	flag.Parse()

	path := config.ResolvePath(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	devices, err := targets.Load(cfg.DevicesFile)
	switch {
	case errors.Is(err, targets.ErrNotFound):
		log.WithField("file", cfg.DevicesFile).Warn("target list not found; continuing with no targets")
	case err != nil:
		log.WithError(err).Warn("target list unreadable; continuing with no targets")
	}
	log.WithFields(logrus.Fields{
		"targets":  len(devices),
		"file":     cfg.DevicesFile,
		"method":   cfg.Probe.Method,
		"interval": cfg.Interval().String(),
	}).Info("loaded targets")

	checker, err := probe.New(cfg.Probe)
	if err != nil {
		log.Fatalf("probe: %v", err)
	}

	recorders := storage.Multi{storage.NewLogStore(cfg.LogFile)}
	if cfg.Storage.SQLitePath != "" {
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			log.WithError(err).Error("sqlite mirror disabled")
		} else {
			defer db.Close()
			recorders = append(recorders, db)
		}
	}

	mon := monitor.New(cfg.Interval(), cfg.Probe.Timeout(), devices, checker, recorders, monitor.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("log_file", cfg.LogFile).Info("NetPulse monitor started")
	_ = mon.Run(ctx)
	log.Info("NetPulse monitor stopped")
}
