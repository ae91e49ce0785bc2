package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/housepredict/housing"
	"github.com/YuminosukeSato/housepredict/internal/config"
	"github.com/YuminosukeSato/housepredict/pkg/log"
)

// app carries state shared by the subcommands.
type app struct {
	configPath string

	cfg    *config.Config
	logger log.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "housepredict",
		Short:        "House price and category predictions from pre-trained models",
		SilenceUsage: true,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (default $CONFIG_FILE)")

	root.AddCommand(
		newServeCmd(a),
		newPredictCmd(a),
		newBatchCmd(a),
		newEvaluateCmd(a),
		newHealthCmd(a),
	)
	return root
}

// setup loads the configuration and installs the process logger. Log
// records go to logOut unless a log file is configured.
func (a *app) setup(logOut io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logCfg := cfg.Logging.Log()
	logCfg.Output = logOut
	closer, err := log.Setup(logCfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = log.GetLogger()
	a.closer = closer
	return nil
}

// service loads the artifacts and builds the prediction service. Missing
// artifacts are logged; the returned service then reports not ready.
func (a *app) service(opts ...housing.Option) (*housing.Service, error) {
	artifacts, err := housing.LoadArtifacts(a.cfg.Models, a.logger)
	if err != nil {
		a.logger.Warn("continuing without all artifacts",
			log.PhaseKey, log.PhaseStartup,
			"error", err,
		)
	}
	opts = append([]housing.Option{
		housing.WithCacheSize(a.cfg.Cache.Size),
		housing.WithWorkers(a.cfg.Batch.Workers),
		housing.WithLogger(a.logger),
	}, opts...)
	return housing.NewService(artifacts, opts...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
