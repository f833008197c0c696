package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ThierrySt-Arnaud/ImageHashSearch/imagedb"
)

func newHashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash FILE...",
		Short: "Print the perceptual hash of each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := imagedb.New(a.cfg, imagedb.WithLogger(a.log))
			if err != nil {
				return err
			}

			failed := 0

			for _, path := range args {
				key, err := db.HashFile(path)
				if err != nil {
					a.log.Error().Err(err).Str("path", path).Msg("cannot hash image")
					failed++

					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, path)
			}

			if failed > 0 {
				return errors.Errorf("%d of %d images could not be hashed", failed, len(args))
			}

			return nil
		},
	}
}
