package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/services"
	"ontology-mapper/internal/storage"
)

var (
	extractConfigFile string
	extractOutput     string
	extractSchedule   string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract schema metadata from the configured servers",
	Long: "Connect to every configured MySQL/MariaDB server, read its catalog metadata, and " +
		"write the assembled ontology document as JSON. Servers that cannot be reached or " +
		"fail mid-extraction are skipped; the run continues with the rest.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs, err := loadServers(extractConfigFile)
		if err != nil {
			return err
		}

		output := extractOutput
		if output == "" {
			appCfg, err := config.LoadAppConfig()
			if err != nil {
				return err
			}
			output = appCfg.DocumentPath()
		}

		fmt.Printf("Extracting %d server(s):\n", len(configs))
		for _, cfg := range configs {
			fmt.Printf("  - %s\n", cfg.DisplayName())
		}

		if extractSchedule != "" {
			return runScheduled(cmd.Context(), configs, output)
		}
		return runExtraction(cmd.Context(), configs, output)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractConfigFile, "config", "", "YAML server list (default: DB_{N}_* environment variables)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "document path (default: <OUTPUT_DIR>/ontology.json)")
	extractCmd.Flags().StringVar(&extractSchedule, "schedule", "", "cron spec to re-run extraction periodically")
	rootCmd.AddCommand(extractCmd)
}

func runExtraction(ctx context.Context, configs []config.ServerConfig, output string) error {
	svc := services.NewOntologyService(logger)
	ontology, outcomes := svc.BuildOntology(ctx, configs)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATABASE\tSERVER\tSTATUS\tTABLES")
	succeeded := 0
	for _, outcome := range outcomes {
		tables := "-"
		if outcome.Status == services.StatusSuccess {
			succeeded++
			tables = strconv.Itoa(len(outcome.Database.Tables))
		}
		fmt.Fprintf(w, "%s\t%s:%d\t%s\t%s\n",
			outcome.Config.Name, outcome.Config.Host, outcome.Config.Port, outcome.Status, tables)
	}
	w.Flush()

	if err := storage.Save(ontology, output); err != nil {
		return err
	}
	fmt.Printf("\nWrote %s: %d database(s), %d relationship(s)\n",
		output, len(ontology.Databases), len(ontology.Relationships))

	if succeeded == 0 {
		return errors.New("no configured server could be extracted")
	}
	return nil
}

func runScheduled(ctx context.Context, configs []config.ServerConfig, output string) error {
	run := func() {
		if err := runExtraction(ctx, configs, output); err != nil {
			logger.Error("scheduled extraction failed", zap.Error(err))
		}
	}
	// First run happens immediately; the schedule covers the ones after.
	run()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(extractSchedule, run); err != nil {
		return fmt.Errorf("invalid --schedule spec: %w", err)
	}
	scheduler.Start()
	logger.Info("extraction scheduled", zap.String("spec", extractSchedule), zap.String("output", output))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped")
	return nil
}
