package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/housepredict/housing"
	"github.com/YuminosukeSato/housepredict/pkg/errors"
)

func newPredictCmd(a *app) *cobra.Command {
	var size, rooms, location, age string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict price and category for one house",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			svc, err := a.service(housing.WithCacheSize(0))
			if err != nil {
				return err
			}
			raw := make(map[string]any, housing.NumFeatures)
			for field, v := range map[string]string{
				housing.FieldSize:     size,
				housing.FieldRooms:    rooms,
				housing.FieldLocation: location,
				housing.FieldAge:      age,
			} {
				if cmd.Flags().Changed(field) {
					raw[field] = v
				}
			}
			pred, err := svc.Predict(cmd.Context(), raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), pred)
		},
	}
	cmd.Flags().StringVar(&size, housing.FieldSize, "", "living area")
	cmd.Flags().StringVar(&rooms, housing.FieldRooms, "", "number of rooms")
	cmd.Flags().StringVar(&location, housing.FieldLocation, "", "location rating, 1-10")
	cmd.Flags().StringVar(&age, housing.FieldAge, "", "age in years")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file.csv|->",
		Short: "Predict every row of a CSV file",
		Long: "Reads a CSV with the columns size, rooms, location and age and prints\n" +
			"one result per row. Rows that fail carry an error instead of predictions.",
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

			res, err := svc.PredictCSV(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report whether all model artifacts load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			health := svc.Health()
			if err := writeJSON(cmd.OutOrStdout(), health); err != nil {
				return err
			}
			if strict && !health.ModelsLoaded {
				return errors.New("models not loaded")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any artifact is missing")
	return cmd
}
