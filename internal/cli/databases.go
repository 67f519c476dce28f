package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ontology-mapper/internal/services"
)

var databasesConfigFile string

// databasesCmd represents the databases command
var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List every database present on the configured servers",
	Long: "Connect to each configured host's system catalog and list all databases found there, " +
		"marking the ones configured for extraction. System schemas are excluded. This runs " +
		"independently of the extraction pipeline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := loadServers(databasesConfigFile)
		if err != nil {
			return err
		}

		svc := services.NewDiscoveryService(logger)
		results := svc.ListServerDatabases(cmd.Context(), configs)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERVER\tDATABASE\tCONFIGURED")
		listed := 0
		for _, result := range results {
			endpoint := fmt.Sprintf("%s:%d", result.Host, result.Port)
			if result.Err != nil {
				logger.Warn("could not list databases for server",
					zap.String("server", endpoint),
					zap.Error(result.Err),
				)
				continue
			}
			for _, db := range result.Databases {
				mark := ""
				if db.Configured {
					mark = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", endpoint, db.Name, mark)
				listed++
			}
		}
		w.Flush()

		fmt.Printf("\n%d database(s) on %d server(s)\n", listed, len(results))
		return nil
	},
}

func init() {
	databasesCmd.Flags().StringVar(&databasesConfigFile, "config", "", "YAML server list (default: DB_{N}_* environment variables)")
	rootCmd.AddCommand(databasesCmd)
}
