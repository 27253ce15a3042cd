package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/intervaldb/intervaldb/internal/config"
)

// newConfigDumpCmd prints the fully-layered configuration (defaults, file,
// env, flags) as YAML, so an operator can see exactly what serve/compact/gc
// would resolve to without starting anything.
func newConfigDumpCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config-dump",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath, viper.New())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(os.Stdout)
			defer enc.Close()
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("config-dump: encoding: %w", err)
			}
			return nil
		},
	}
}
