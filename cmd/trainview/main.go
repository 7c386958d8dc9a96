package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trainview/internal/app"
	"trainview/internal/logger"
)

var (
	cacheDir  string
	configDir string
	outputDir string
	batchMode bool
	training  bool
	poll      time.Duration
	dpi       float64
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "trainview",
	Short: "Live preview window for extract, convert and training runs",
	Long: `trainview follows the preview images a worker process writes and shows
them as they arrive.

Examples:
  trainview --output ./faces
  trainview --output ./batch --batch
  trainview --training`,
	Version:       app.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "GUI cache folder (default is the user cache dir)")
	rootCmd.Flags().StringVar(&configDir, "config-dir", "", "folder holding trainview.yaml (default is the user config dir)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output folder of an extract or convert task")
	rootCmd.Flags().BoolVar(&batchMode, "batch", false, "output folder holds one sub-folder per batch job")
	rootCmd.Flags().BoolVar(&training, "training", false, "follow training previews instead of task output")
	rootCmd.Flags().DurationVar(&poll, "poll", app.DefaultPollInterval, "preview poll interval")
	rootCmd.Flags().Float64Var(&dpi, "dpi", 96, "display DPI used for scaling")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("training", "batch")
}

func run(cmd *cobra.Command, _ []string) error {
	opts := logger.OptionsFromEnv()
	if verbose {
		opts.Level = zerolog.DebugLevel
	}
	log := logger.New(opts)

	cache, err := resolveDir(cacheDir, os.UserCacheDir)
	if err != nil {
		return fmt.Errorf("cache folder: %w", err)
	}
	conf, err := resolveDir(configDir, os.UserConfigDir)
	if err != nil {
		return fmt.Errorf("config folder: %w", err)
	}

	application, err := app.NewApplication(app.Options{
		CacheDir:     cache,
		ConfigDir:    conf,
		OutputDir:    outputDir,
		BatchMode:    batchMode,
		Training:     training,
		PollInterval: poll,
		DPI:          dpi,
	}, log)
	if err != nil {
		return fmt.Errorf("application initialization failed: %w", err)
	}
	return application.Run()
}

func resolveDir(flag string, base func() (string, error)) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	dir, err := base()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "trainview"), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
