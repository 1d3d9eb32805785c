package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quantmind-br/repofetch-go/internal/app"
	"github.com/quantmind-br/repofetch-go/internal/config"
	"github.com/quantmind-br/repofetch-go/internal/domain"
	"github.com/quantmind-br/repofetch-go/internal/utils"
	"github.com/quantmind-br/repofetch-go/pkg/version"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", errorKind(err), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "repofetch <url>",
	Short: "Download a single folder from a GitHub repository",
	Long: `repofetch downloads one subdirectory of a GitHub repository without
cloning the whole repository. It fetches the snapshot archive for the
ref in the URL, extracts only the requested folder, and writes it to a
local directory with the original relative paths preserved.

Example:
  repofetch https://github.com/geekan/MetaGPT/tree/main/metagpt`,
	Version:       version.Short(),
	Args:          cobra.ExactArgs(1),
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.repofetch/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output directory (default: folder name)")
	rootCmd.PersistentFlags().IntP("timeout", "t", 60, "Per-attempt network timeout in seconds")
	rootCmd.PersistentFlags().IntP("retries", "r", config.DefaultRetries, "Max download attempts")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Overwrite an existing output directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("download.retries", rootCmd.PersistentFlags().Lookup("retries"))
	_ = viper.BindPFlag("output.overwrite", rootCmd.PersistentFlags().Lookup("force"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logLevel := "info"
	if verbose {
		logLevel = "debug"
	}
	log = utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  "pretty",
		Verbose: verbose,
	})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The timeout flag is seconds on the CLI but a duration in config,
	// so it is applied here instead of through a viper binding
	if cmd.Flags().Changed("timeout") {
		seconds, _ := cmd.Flags().GetInt("timeout")
		cfg.Download.Timeout = time.Duration(seconds) * time.Second
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Directory, _ = cmd.Flags().GetString("output")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info().Msg("Shutting down gracefully...")
		cancel()
	}()

	orchestrator := app.NewOrchestrator(app.OrchestratorOptions{
		Config:   cfg,
		Logger:   log,
		Progress: utils.NewTerminalProgress(),
	})

	summary, err := orchestrator.Run(ctx, args[0])
	if err != nil {
		return err
	}

	abs, absErr := filepath.Abs(summary.OutputDir)
	if absErr != nil {
		abs = summary.OutputDir
	}
	fmt.Printf("Downloaded %d file(s), %d byte(s) to %s\n",
		summary.Result.FilesWritten, summary.Result.BytesWritten, abs)
	return nil
}

// errorKind maps an error to its user-facing category for the final
// stderr line
func errorKind(err error) string {
	var downloadErr *domain.DownloadError
	var extractionErr *domain.ExtractionError

	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		return "invalid URL"
	case errors.Is(err, domain.ErrOutputExists):
		return "output exists"
	case errors.As(err, &downloadErr):
		return "download failed"
	case errors.As(err, &extractionErr):
		return "extraction failed"
	default:
		return "error"
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
