package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/intervaldb/intervaldb/internal/adminapi"
	"github.com/intervaldb/intervaldb/internal/adminapi/authtoken"
	"github.com/intervaldb/intervaldb/internal/authsecret"
	"github.com/intervaldb/intervaldb/internal/config"
	"github.com/intervaldb/intervaldb/internal/metrics"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/reaperdrv"
	"github.com/intervaldb/intervaldb/internal/tenant"
)

func newServeCmd(configPath *string) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tenant engines and the admin control plane",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath, v)
		},
	}
	cmd.Flags().String("data-dir", "", "override data_dir")
	cmd.Flags().String("admin-listen-addr", "", "override admin_listen_addr")
	v.BindPFlag("data_dir", cmd.Flags().Lookup("data-dir"))
	v.BindPFlag("admin_listen_addr", cmd.Flags().Lookup("admin-listen-addr"))
	return cmd
}

func runServe(configPath string, v *viper.Viper) error {
	cfg, err := config.Load(configPath, v)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogFormat)

	var reg *metrics.Registry
	if cfg.MetricsPort != 0 {
		reg = metrics.New()
	}

	mgr, err := tenant.New(cfg.DataDir, cfg.Limits, logger, reg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	var tokens *authtoken.Service
	if cfg.AdminJWTSecret != "" {
		tokens, err = authtoken.NewService(cfg.AdminJWTSecret, "intervaldb-admin", time.Hour)
		if err != nil {
			return err
		}
	}
	var passwordHash string
	if cfg.Password != "" {
		passwordHash, err = authsecret.Hash(cfg.Password)
		if err != nil {
			return err
		}
	}
	admin := adminapi.NewServer(cfg.AdminListenAddr, mgr, tokens, passwordHash, reg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := admin.Start(); err != nil {
			logger.Error("admin api exited", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		superviseReapers(ctx, mgr, cfg, logger)
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := admin.Stop(shutdownCtx); err != nil {
		logger.Warn("admin api shutdown error", "error", err)
	}

	wg.Wait()
	return nil
}

// superviseReapers starts one reaperdrv.Run goroutine per tenant engine as
// it's lazily created by inbound traffic, polling the tenant manager since
// the core itself exposes no "tenant created" event.
func superviseReapers(ctx context.Context, mgr *tenant.Manager, cfg *config.Config, logger *slog.Logger) {
	started := map[string]struct{}{}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range mgr.Tenants() {
				if _, ok := started[name]; ok {
					continue
				}
				started[name] = struct{}{}
				eng, err := mgr.Get(name)
				if err != nil {
					continue
				}
				reaperCfg := reaperdrv.DefaultConfig(model.Time(cfg.GCRetentionMs), cfg.CompactionThresh)
				go reaperdrv.Run(ctx, eng, reaperCfg, logger.With("tenant", name))
			}
		}
	}
}

func newLogger(format string) *slog.Logger {
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}
