package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/modkit/config"
	"github.com/kbukum/modkit/storage"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate the configuration and print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), describeConfig(cfg))
			return err
		},
	}
}

func describeConfig(cfg *config.Config) string {
	var b strings.Builder
	line := func(key string, value any) {
		fmt.Fprintf(&b, "%-18s %v\n", key+":", value)
	}

	line("name", cfg.Name)
	line("environment", cfg.Environment)
	line("storage", cfg.Storage.Provider)
	switch cfg.Storage.Provider {
	case storage.ProviderS3:
		line("s3.bucket", cfg.S3.Bucket)
		line("s3.prefix", cfg.S3.Prefix)
	default:
		line("storage.base_path", cfg.Storage.BasePath)
	}
	line("output_dir", cfg.Paths.OutputDir)
	line("history.backend", cfg.History.Backend)
	if cfg.History.Backend == config.HistoryBackendRedis {
		line("history.redis", cfg.History.Redis.Addr)
	} else {
		line("history_dir", cfg.Paths.HistoryDir)
	}
	if cfg.History.MaxSize > 0 {
		line("history.max_size", cfg.History.MaxSize)
	}
	line("retry", fmt.Sprintf("%d attempts, %s initial backoff", cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoff))
	if cfg.Tracing.Enabled {
		line("tracing", cfg.Tracing.Endpoint)
	} else {
		line("tracing", "disabled")
	}
	return b.String()
}
