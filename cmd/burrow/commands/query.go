package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// QueryCmd runs a federated query from the shell
var QueryCmd = &cobra.Command{
	Use:   "query <template>",
	Short: "Run a federated query across tenant stores",
	Long: `query — Run one query across a primary tenant store and any number of
secondary stores.

Templates reference stores through placeholders, never raw tenant ids:
  {{primary}}     the primary tenant's store
  {{s1}}..{{sN}}  the Nth --secondary, in flag order

Examples:
  burrow query --primary a \
    "SELECT slug FROM {{primary}}.posts"

  burrow query --primary a -s b -s c \
    "SELECT 'a', COUNT(*) FROM {{primary}}.posts
     UNION ALL SELECT 'b', COUNT(*) FROM {{s1}}.posts
     UNION ALL SELECT 'c', COUNT(*) FROM {{s2}}.posts"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var (
	queryPrimaryFlag     string
	querySecondariesFlag []string
)

func init() {
	QueryCmd.Flags().StringVar(&queryPrimaryFlag, "primary", "", "Primary tenant id (required)")
	QueryCmd.Flags().StringArrayVarP(&querySecondariesFlag, "secondary", "s", nil, "Secondary tenant id (repeatable)")
	QueryCmd.MarkFlagRequired("primary")
}

func runQuery(cmd *cobra.Command, args []string) error {
	core, err := newCore()
	if err != nil {
		return err
	}
	defer core.Shutdown()

	result, err := core.Federate(context.Background(), queryPrimaryFlag, querySecondariesFlag, args[0])
	if err != nil {
		return err
	}

	fmt.Println(strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}

	for _, warning := range result.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	return nil
}
