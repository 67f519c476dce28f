package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ontology-mapper/internal/config"
)

var (
	verbose bool
	logger  *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ontology-mapper",
	Short: "Extract and serve relational schema ontologies",
	Long: "Discovers schema metadata (tables, columns, indexes, foreign keys) from configured " +
		"MySQL/MariaDB servers, assembles it into a single ontology document with derived " +
		"relationships, and serves it over a read-only HTTP API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine; the environment may be set directly.
		_ = godotenv.Load()

		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadServers reads the server list from the YAML file when one is given,
// otherwise from DB_{N}_* environment variables. Unusable entries are logged
// and skipped; an empty result is an error.
func loadServers(configFile string) ([]config.ServerConfig, error) {
	var (
		configs []config.ServerConfig
		skipped []error
		err     error
	)
	if configFile != "" {
		configs, skipped, err = config.LoadServersFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		configs, skipped = config.LoadServersFromEnv()
	}

	for _, skip := range skipped {
		logger.Warn("skipping unusable server config", zap.Error(skip))
	}
	for _, name := range config.DuplicateNames(configs) {
		logger.Warn("database name configured on more than one server, name-only lookups resolve to the first",
			zap.String("name", name),
		)
	}

	if len(configs) == 0 {
		return nil, errors.New("no usable server configs found, set DB_{N}_HOST/NAME/USER/PASSWORD variables or pass --config")
	}
	return configs, nil
}
