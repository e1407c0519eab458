package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/modkit/config"
	"github.com/kbukum/modkit/logger"
)

type rootOptions struct {
	name       string
	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "modkit",
		Short:         "Inspect modkit pipeline configuration and metadata histories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.name, "name", "n", "modkit", "pipeline name, used to locate config files")
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (default: search for modkit.yml)")
	flags.StringVar(&opts.envFile, "env-file", "", ".env file (default: search for .env)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newHistoryCmd(opts),
	)
	return cmd
}

// loadConfig loads, defaults and validates the configuration.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var lopts []config.LoaderOption
	if o.configFile != "" {
		lopts = append(lopts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		lopts = append(lopts, config.WithEnvFile(o.envFile))
	}

	cfg := &config.Config{}
	if err := config.Load(o.name, cfg, lopts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = o.name
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg *config.Config) *logger.Logger {
	if !o.verbose {
		return logger.Nop()
	}
	lc := cfg.Logging
	lc.Output = "stderr"
	return logger.New(&lc, cfg.Name)
}
