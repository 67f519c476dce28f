package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/storage"
)

var statsInput string

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate statistics for an extracted ontology",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := statsInput
		if input == "" {
			appCfg, err := config.LoadAppConfig()
			if err != nil {
				return err
			}
			input = appCfg.DocumentPath()
		}

		ontology, err := storage.Load(input)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no ontology document at %s, run 'ontology-mapper extract' first", input)
			}
			return err
		}

		fmt.Printf("Extraction date:    %s\n", ontology.Metadata.ExtractionDate)
		fmt.Printf("Configured servers: %d\n", ontology.Metadata.DatabaseCount)
		fmt.Printf("Databases:          %d\n", len(ontology.Databases))
		fmt.Printf("Relationships:      %d\n\n", len(ontology.Relationships))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATABASE\tSERVER\tTABLES\tCOLUMNS\tFOREIGN KEYS")
		totalTables, totalColumns, totalFKs := 0, 0, 0
		for _, db := range ontology.Databases {
			columns, fks := 0, 0
			for _, table := range db.Tables {
				columns += len(table.Columns)
				fks += len(table.ForeignKeys)
			}
			fmt.Fprintf(w, "%s\t%s:%d\t%d\t%d\t%d\n",
				db.Name, db.Host, db.Port, len(db.Tables), columns, fks)
			totalTables += len(db.Tables)
			totalColumns += columns
			totalFKs += fks
		}
		fmt.Fprintf(w, "TOTAL\t\t%d\t%d\t%d\n", totalTables, totalColumns, totalFKs)
		w.Flush()
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsInput, "input", "i", "", "document path (default: <OUTPUT_DIR>/ontology.json)")
	rootCmd.AddCommand(statsCmd)
}
