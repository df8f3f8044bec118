package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

// DbCmd groups tenant store operations
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Tenant store operations",
	Long: `db — Tenant store operations

Examples:
  burrow db stats   # Post counts per tenant store`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-tenant store statistics",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("%-24s %8s %10s\n", "TENANT", "POSTS", "PUBLISHED")
	for _, id := range ids {
		handle, err := core.GetConnection(context.Background(), id)
		if err != nil {
			fmt.Printf("%-24s %8s %10s  (%v)\n", id, "-", "-", err)
			continue
		}

		var posts, published int
		err = handle.QueryRow(
			"SELECT COUNT(*), COALESCE(SUM(published), 0) FROM posts",
		).Scan(&posts, &published)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		fmt.Printf("%-24s %8d %10d\n", id, posts, published)
	}
	return nil
}
