package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/config"
	"github.com/hejijunhao/candidates/internal/logging"
	"github.com/hejijunhao/candidates/internal/pipeline"

	// Register source implementations.
	_ "github.com/hejijunhao/candidates/internal/connector/proteins"
)

// needsRunner marks commands that load configuration and build a logger.
const needsRunner = "runner"

// Exit codes.
const (
	exitFailure      = 1
	exitMissingInput = 2
)

var (
	configPath string
	logLevel   string
	logJSON    bool
	tee        bool
	workerCap  int

	// Set by setup for commands annotated with needsRunner.
	cfg     config.Config
	logger  *zap.Logger
	started time.Time
)

var rootCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Find InterPro families that are candidates for new annotation rules",
	Long: `candidates extracts leaf InterPro families not yet covered by UniRule,
keeps those with enough reviewed and unreviewed UniProt entries, and reports
the annotations shared by at least 90% of reviewed entries per taxonomic group.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&logJSON, "log-json", false, "emit JSON log entries")
	pf.BoolVar(&tee, "tee", false, "also write stage output to stdout")
	pf.IntVar(&workerCap, "workers", 0, "maximum number of concurrent workers")
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if _, ok := cmd.Annotations[needsRunner]; !ok {
		return nil
	}
	started = time.Now()

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = logJSON
	}
	if flags.Changed("workers") {
		cfg.Collect.WorkerCap = workerCap
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err = logging.New(logging.Options{
		Level: cfg.Log.Level,
		JSON:  cfg.Log.JSON,
		File:  pipeline.LogPath(cfg.Log.Dir, started.Format(pipeline.StampLayout)),
	})
	return err
}

func newRunner() (*pipeline.Runner, error) {
	return pipeline.New(cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pipeline.ErrMissingInput):
		return exitMissingInput
	}
	return exitFailure
}
