package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/imagedb"
)

// app holds the state shared by every subcommand.
type app struct {
	logLevel   string
	logJSON    bool
	configPath string

	log zerolog.Logger
	cfg imagedb.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "imagesearch",
		Short:         "Find similar grey-scale images by perceptual hash",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Always log JSON, even on a terminal")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML file with hash and image settings")

	root.AddCommand(newHashCmd(a))
	root.AddCommand(newSearchCmd(a))

	return root
}

func (a *app) setup(w io.Writer) error {
	log, err := newLogger(w, a.logLevel, a.logJSON)
	if err != nil {
		return err
	}

	a.log = log
	a.cfg = imagedb.DefaultConfig()

	if a.configPath != "" {
		if a.cfg, err = imagedb.LoadConfig(a.configPath); err != nil {
			return err
		}
	}

	a.log.Debug().
		Int("hash_bits", a.cfg.HashBits).
		Int("image_width", a.cfg.ImageWidth).
		Int("workers", a.cfg.Workers).
		Msg("configuration loaded")

	return nil
}

// newLogger logs to w, in colour when w is a terminal and as JSON otherwise.
func newLogger(w io.Writer, level string, asJSON bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), errors.Wrap(err, "log level")
	}

	if f, ok := w.(*os.File); ok && !asJSON && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
