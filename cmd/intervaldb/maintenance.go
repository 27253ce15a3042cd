package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/intervaldb/intervaldb/internal/config"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/tenant"
)

func newCompactCmd(configPath *string) *cobra.Command {
	var tenantName string
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Rewrite a tenant's WAL to its minimal surviving event sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTenantEngine(*configPath, tenantName, func(mgr *tenant.Manager, name string) error {
				eng, err := mgr.Get(name)
				if err != nil {
					return err
				}
				before := eng.WalAppendsSinceCompact()
				if err := eng.CompactWal(); err != nil {
					return err
				}
				fmt.Printf("compacted tenant %q (%d appends since last compaction)\n", name, before)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantName, "tenant", "", "tenant name to compact (required)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

func newGCCmd(configPath *string) *cobra.Command {
	var tenantName string
	var retentionMs int64
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove confirmed bookings and expired holds past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTenantEngine(*configPath, tenantName, func(mgr *tenant.Manager, name string) error {
				eng, err := mgr.Get(name)
				if err != nil {
					return err
				}
				now := model.Time(time.Now().UnixMilli())
				retention := model.Time(retentionMs)
				if retentionMs == 0 {
					cfg, err := config.Load(*configPath, viper.New())
					if err != nil {
						return err
					}
					retention = model.Time(cfg.GCRetentionMs)
				}
				removed := eng.GCPastIntervals(now, retention)
				fmt.Printf("gc: removed %d expired interval(s) for tenant %q\n", removed, name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&tenantName, "tenant", "", "tenant name to garbage-collect (required)")
	cmd.Flags().Int64Var(&retentionMs, "retention-ms", 0, "override gc_retention_ms (0 = use the loaded config's value)")
	cmd.MarkFlagRequired("tenant")
	return cmd
}

// withTenantEngine loads the config, opens a tenant manager rooted at its
// data_dir, runs fn against it, and always closes the manager afterward —
// these are one-shot maintenance commands, not the long-running server.
func withTenantEngine(configPath, tenantName string, fn func(mgr *tenant.Manager, name string) error) error {
	cfg, err := config.Load(configPath, viper.New())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogFormat)
	mgr, err := tenant.New(cfg.DataDir, cfg.Limits, logger, nil)
	if err != nil {
		return err
	}
	defer mgr.Close()
	return fn(mgr, tenantName)
}
