package cli

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layergen/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	flags      app.Config
}

func newGlobalOptions() *globalOptions {
	return &globalOptions{flags: app.DefaultConfig()}
}

// addFlags binds the persistent flags. Their defaults mirror
// app.DefaultConfig; only flags set explicitly override the config file.
func (o *globalOptions) addFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "Path of the TOML configuration file")
	f.StringVar(&o.flags.LogLevel, "log-level", o.flags.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	f.StringVar(&o.flags.LogFormat, "log-format", o.flags.LogFormat, "Log output format. Options: 'text' or 'json'.")
	f.StringVar(&o.flags.WorkflowDir, "workflow-dir", "", "Directory of .hcl workflow files. Empty uses the built-in workflows.")
	f.StringVar(&o.flags.MySQLDSN, "mysql-dsn", "", "DSN of the database holding published layers")
	f.StringVar(&o.flags.LayerTable, "layer-table", o.flags.LayerTable, "Table of published layers")
	f.StringSliceVar(&o.flags.KafkaBrokers, "kafka-brokers", nil, "Kafka brokers, comma separated")
	f.StringVar(&o.flags.DispatchTopic, "dispatch-topic", o.flags.DispatchTopic, "Topic carrying run requests")
	f.StringVar(&o.flags.ResultTopic, "result-topic", o.flags.ResultTopic, "Topic receiving run summaries. Empty logs summaries instead.")
	f.StringVar(&o.flags.ComputeURL, "compute-url", o.flags.ComputeURL, "Base URL of the compute service")
	f.StringVar(&o.flags.ProgressURL, "progress-url", "", "socket.io URL receiving progress events")
}

// apply copies every explicitly set persistent flag onto cfg.
func (o *globalOptions) apply(fs *pflag.FlagSet, cfg *app.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = o.flags.LogLevel
		case "log-format":
			cfg.LogFormat = o.flags.LogFormat
		case "workflow-dir":
			cfg.WorkflowDir = o.flags.WorkflowDir
		case "mysql-dsn":
			cfg.MySQLDSN = o.flags.MySQLDSN
		case "layer-table":
			cfg.LayerTable = o.flags.LayerTable
		case "kafka-brokers":
			cfg.KafkaBrokers = o.flags.KafkaBrokers
		case "dispatch-topic":
			cfg.DispatchTopic = o.flags.DispatchTopic
		case "result-topic":
			cfg.ResultTopic = o.flags.ResultTopic
		case "compute-url":
			cfg.ComputeURL = o.flags.ComputeURL
		case "progress-url":
			cfg.ProgressURL = o.flags.ProgressURL
		}
	})
}

// loadConfig layers defaults, the config file and explicit flags, in that
// order, then mutate, and validates the result.
func (o *globalOptions) loadConfig(cmd *cobra.Command, mutate ...func(*app.Config)) (*app.Config, error) {
	cfg := app.DefaultConfig()
	if o.configPath != "" {
		if err := app.LoadConfigFile(o.configPath, &cfg); err != nil {
			return nil, usageError(err)
		}
	}
	o.apply(cmd.Flags(), &cfg)
	for _, fn := range mutate {
		fn(&cfg)
	}

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return validated, nil
}

// newApp loads the configuration and builds the application.
func (o *globalOptions) newApp(ctx context.Context, cmd *cobra.Command, mutate ...func(*app.Config)) (*app.App, error) {
	cfg, err := o.loadConfig(cmd, mutate...)
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(ctx, cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return a, nil
}
