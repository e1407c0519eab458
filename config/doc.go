// Package config loads modkit configuration from YAML, .env files and
// environment variables.
//
// Load searches for modkit.yml (or config.yml) in the standard locations,
// then a .env file, then the process environment. Environment variables
// map onto nested keys by underscores, so MODKIT_PATHS_OUTPUT_DIR sets
// paths.output_dir:
//
//	var cfg config.Config
//	if err := config.Load("nightly", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
