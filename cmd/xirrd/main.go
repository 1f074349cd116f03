package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/jmtruffa/xirr/internal/api"
	"github.com/jmtruffa/xirr/internal/config"
	"github.com/jmtruffa/xirr/internal/logging"
	"github.com/jmtruffa/xirr/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Configuration file path (YAML)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create logger")
	}

	ctx := context.Background()
	repo, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open portfolio store")
	}

	server := api.NewServer(cfg, log, repo)
	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("received signal")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
		os.Exit(1)
	}
}

// openStore returns nil when no driver is configured.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *logrus.Logger) (*store.PortfolioRepository, error) {
	if cfg.Driver == "" {
		log.Warn("no database driver configured, portfolio endpoints disabled")
		return nil, nil
	}

	repo, err := store.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	log.WithField("driver", cfg.Driver).Info("portfolio store ready")

	if cfg.Seed != "" {
		n, err := repo.SeedFromJSON(ctx, cfg.Seed)
		if err != nil {
			repo.Close()
			return nil, err
		}
		log.WithFields(logrus.Fields{"file": cfg.Seed, "portfolios": n}).Info("seeded portfolios")
	}
	return repo, nil
}
