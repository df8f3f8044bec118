package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/burrowcms/burrow"
	"github.com/burrowcms/burrow/config"
	"github.com/burrowcms/burrow/logger"
	"github.com/burrowcms/burrow/tenant"
)

// TenantCmd registers and lists tenants
var TenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Register and list tenants",
	Long: `tenant — Register and list tenants

Each tenant is one creator site with its own store file under the
configured base directory.

Examples:
  burrow tenant register my-blog   # Create the store for a new tenant
  burrow tenant ls                 # List tenants found in the base directory`,
}

var tenantRegisterCmd = &cobra.Command{
	Use:   "register <id>",
	Short: "Register a tenant and initialize its store",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantRegister,
}

var tenantLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List tenants found in the base directory",
	RunE:  runTenantLs,
}

func init() {
	TenantCmd.AddCommand(tenantRegisterCmd)
	TenantCmd.AddCommand(tenantLsCmd)
}

// newCore builds a Core over the loaded configuration with existing store
// files discovered, so one-shot commands see tenants from previous runs.
func newCore() (*burrow.Core, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Storage.BaseDir, 0o755); err != nil {
		return nil, err
	}

	core := burrow.New(cfg, logger.Logger)
	if _, err := tenant.Discover(core.Registry()); err != nil {
		return nil, err
	}
	return core, nil
}

func runTenantRegister(cmd *cobra.Command, args []string) error {
	id := args[0]

	core, err := newCore()
	if err != nil {
		return err
	}
	defer core.Shutdown()

	desc, err := core.RegisterTenant(id)
	if err != nil {
		return err
	}

	// Opening once creates the store file and applies the schema.
	if _, err := core.GetConnection(context.Background(), id); err != nil {
		return err
	}

	fmt.Printf("Registered tenant %q (%s)\n", desc.ID, desc.Locator)
	return nil
}

func runTenantLs(cmd *cobra.Command, args []string) error {
	core, err := newCore()
	if err != nil {
		return err
	}
	defer core.Shutdown()

	ids := core.Registry().List()
	if len(ids) == 0 {
		fmt.Println("No tenants found")
		return nil
	}
	for _, id := range ids {
		desc, err := core.Registry().Resolve(id)
		if err != nil {
			return err
		}
		fmt.Printf("%-24s %s\n", id, desc.Locator)
	}
	return nil
}
