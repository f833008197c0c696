package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/imagedb"
)

const (
	insertionTimingFile = "InsertionTiming.csv"
	searchTimingFile    = "SearchTiming.csv"
)

type searchOptions struct {
	dbDir     string
	tolerance int
	timings   string
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search --db DIR PATH...",
		Short: "Index a directory of images and list the images similar to each query",
		Long: "Index every image of the --db directory, then match each query file, or every image\n" +
			"of each query directory, within --tolerance percent of the hash length.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.search(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.dbDir, "db", "", "Directory of images to index")
	cmd.Flags().IntVar(&opts.tolerance, "tolerance", 10, "Tolerance in percent of the hash length")
	cmd.Flags().StringVar(&opts.timings, "timings", "", "Directory receiving "+insertionTimingFile+" and "+searchTimingFile)
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func (a *app) search(cmd *cobra.Command, opts *searchOptions, args []string) error {
	if opts.tolerance < 0 || opts.tolerance > 100 {
		return errors.Wrapf(imagedb.ErrTolerance, "got %d", opts.tolerance)
	}

	dbOpts := []imagedb.Option{imagedb.WithLogger(a.log)}

	if opts.timings != "" {
		paths, err := a.cfg.Images(opts.dbDir)
		if err != nil {
			return err
		}

		f, err := createTimingFile(opts.timings, insertionTimingFile)
		if err != nil {
			return err
		}
		defer f.Close()

		tl, err := imagedb.NewInsertionLog(f, a.cfg, len(paths))
		if err != nil {
			return errors.Wrap(err, "insertion timings")
		}

		dbOpts = append(dbOpts, imagedb.WithInsertionLog(tl))
	}

	db, err := imagedb.New(a.cfg, dbOpts...)
	if err != nil {
		return err
	}

	if _, err := db.Build(cmd.Context(), opts.dbDir); err != nil {
		return err
	}

	var searchLog *imagedb.TimingLog

	if opts.timings != "" {
		f, err := createTimingFile(opts.timings, searchTimingFile)
		if err != nil {
			return err
		}
		defer f.Close()

		if searchLog, err = imagedb.NewSearchLog(f, a.cfg, db.Len()); err != nil {
			return errors.Wrap(err, "search timings")
		}
	}

	queries, failed := a.queries(db, args)
	total := len(queries) + failed

	for _, path := range queries {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		m, err := db.Match(path, opts.tolerance)
		if err != nil {
			a.log.Error().Err(err).Str("path", path).Msg("cannot match image")
			failed++

			continue
		}

		if searchLog != nil {
			if err := searchLog.Search(m); err != nil {
				a.log.Warn().Err(err).Msg("cannot record search time")
			}
		}

		printMatch(cmd.OutOrStdout(), m)
	}

	if failed > 0 {
		return errors.Errorf("%d of %d queries could not be matched", failed, total)
	}

	return nil
}

// queries expands directories into the images they hold. Arguments that
// cannot be read are logged and counted as failed.
func (a *app) queries(db *imagedb.DB, args []string) ([]string, int) {
	var (
		out    []string
		failed int
	)

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			a.log.Error().Err(err).Str("path", arg).Msg("cannot read query")
			failed++

			continue
		}

		if !info.IsDir() {
			out = append(out, arg)
			continue
		}

		paths, err := db.Images(arg)
		if err != nil {
			a.log.Error().Err(err).Str("path", arg).Msg("cannot list query directory")
			failed++

			continue
		}

		out = append(out, paths...)
	}

	return out, failed
}

func createTimingFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "timings directory")
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errors.Wrap(err, "timings file")
	}

	return f, nil
}

func printMatch(w io.Writer, m *imagedb.Match) {
	fmt.Fprintf(w, "%s\t%s\t%d match(es) within %d%%\n", m.Path, m.Key, len(m.Matches), m.Tolerance)

	for _, path := range m.Matches {
		fmt.Fprintf(w, "\t%s\n", path)
	}
}
