// Command augment generates randomized variants of images for dataset
// augmentation.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	augmentor "github.com/Skryldev/image-augmentor"
	"github.com/Skryldev/image-augmentor/adapters/vips"
	"github.com/Skryldev/image-augmentor/config"
	"github.com/Skryldev/image-augmentor/hooks"
	"github.com/Skryldev/image-augmentor/logging"
)

// app carries the state shared by every subcommand once the root command's
// pre-run has loaded configuration.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	log    *zap.Logger
	engine *augmentor.Augmentor
}

func main() {
	a := &app{}
	root := a.rootCommand()
	err := root.Execute()
	a.shutdown()
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "augment",
		Short:         "Randomized image augmentation for datasets",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(a.convertCommand(), a.previewCommand(), a.presetCommand())
	return root
}

func (a *app) setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.log = logger

	engine, err := augmentor.New(cfg, augmentor.WithLogger(hooks.NewZapLogger(logger)))
	if err != nil {
		return err
	}
	a.engine = engine
	a.log.Debug("ready", zap.Any("formats", engine.Formats()), zap.String("output_root", cfg.OutputRoot))
	return nil
}

func (a *app) shutdown() {
	if a.engine != nil {
		if err := a.engine.Close(); err != nil && a.log != nil {
			a.log.Warn("close", zap.Error(err))
		}
	}
	if a.cfg.Vips.Enabled && a.engine != nil {
		vips.Shutdown()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
