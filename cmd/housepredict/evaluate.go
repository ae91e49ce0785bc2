package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/housepredict/housing"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <labelled.csv|->",
		Short: "Compare predictions with a labelled CSV",
		Long: "Reads a CSV with the feature columns plus price and, optionally, category\n" +
			"and reports price error metrics and per-classifier accuracy.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			in, closeIn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeIn()

			table, err := housing.ReadCSV(in)
			if err != nil {
				return err
			}
			ev, err := svc.Evaluate(cmd.Context(), table)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ev)
		},
	}
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}
