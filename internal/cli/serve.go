package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/server"
	"ontology-mapper/internal/storage"
)

var (
	serveHost     string
	servePort     int
	serveDocument string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extracted ontology over HTTP",
	Long: "Start the read-only API over a previously extracted ontology document. The document " +
		"is loaded lazily on first request and can be refreshed with POST /api/reload.",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := config.LoadAppConfig()
		if err != nil {
			return err
		}
		if serveHost != "" {
			appCfg.APIHost = serveHost
		}
		if servePort != 0 {
			appCfg.APIPort = servePort
		}

		document := serveDocument
		if document == "" {
			document = appCfg.DocumentPath()
		}

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		store := storage.NewStore(document, logger)
		srv := server.NewServer(appCfg, store, logger)

		go func() {
			logger.Info("api server listening",
				zap.String("addr", srv.Addr),
				zap.String("document", document),
			)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("http server error", zap.Error(err))
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		logger.Info("server exiting")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind address (default: API_HOST)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bind port (default: API_PORT)")
	serveCmd.Flags().StringVarP(&serveDocument, "input", "i", "", "document path (default: <OUTPUT_DIR>/ontology.json)")
	rootCmd.AddCommand(serveCmd)
}
