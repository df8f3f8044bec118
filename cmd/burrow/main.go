package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/burrowcms/burrow/cmd/burrow/commands"
	"github.com/burrowcms/burrow/config"
	"github.com/burrowcms/burrow/logger"
)

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Burrow - Multi-tenant storage core for creator sites",
	Long: `Burrow - Multi-tenant storage with cross-tenant query federation.

Each creator site is a tenant with its own isolated store. Burrow manages
per-tenant connections and can answer one aggregate query across several
tenant stores by attaching them for the duration of the call.

Available commands:
  config - Manage Burrow configuration
  tenant - Register and list tenants
  db     - Tenant store operations
  query  - Run a federated query

Examples:
  burrow config init                  # Write a default burrow.toml
  burrow tenant register my-blog      # Register a new tenant store
  burrow tenant ls                    # List registered store files
  burrow query --primary a -s b -s c \
    "SELECT COUNT(*) FROM {{primary}}.posts UNION ALL SELECT COUNT(*) FROM {{s1}}.posts UNION ALL SELECT COUNT(*) FROM {{s2}}.posts"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logger.Initialize(cfg.Log.JSON); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.TenantCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
