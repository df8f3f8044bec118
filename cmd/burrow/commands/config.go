package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burrowcms/burrow/config"
)

// ConfigCmd manages Burrow configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Burrow configuration",
	Long: `config — Manage Burrow configuration

Examples:
  burrow config show   # Show effective configuration
  burrow config init   # Write a default burrow.toml in the current directory`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default burrow.toml",
	RunE:  runConfigInit,
}

var configInitPathFlag string

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringVar(&configInitPathFlag, "path", "burrow.toml", "Where to write the config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("Storage:\n")
	fmt.Printf("  base_dir:         %s\n", cfg.Storage.BaseDir)
	fmt.Printf("  discovery:        %v\n", cfg.Storage.Discovery)
	fmt.Printf("Network:\n")
	fmt.Printf("  endpoint:         %s:%d\n", cfg.Network.Host, cfg.Network.Port)
	fmt.Printf("  user:             %s\n", cfg.Network.User)
	fmt.Printf("Pool:\n")
	fmt.Printf("  opens_per_second: %g\n", cfg.Pool.OpensPerSecond)
	fmt.Printf("  open_burst:       %d\n", cfg.OpenBurst())
	fmt.Printf("Federation:\n")
	fmt.Printf("  max_secondaries:  %d\n", cfg.MaxSecondaries())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(configInitPathFlag); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", configInitPathFlag)
	return nil
}
