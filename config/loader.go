package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/modkit/logger"
)

// EnvPrefix marks environment variables that configure modkit.
const EnvPrefix = "MODKIT_"

// FileSystem abstracts the file operations of the loader for tests.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem on the OS.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolvedFiles are the config and env files Load will read.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when given and otherwise the first
// existing candidate for name.
func ResolveFiles(name string, lc LoaderConfig) ResolvedFiles {
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}
	files := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(lc.FileSystem, configCandidates(name))
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(lc.FileSystem, envCandidates(name))
	}
	return files
}

func configCandidates(name string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/modkit.yml", name),
		fmt.Sprintf("./pipelines/%s/modkit.yml", name),
		"./config/modkit.yml",
		"./modkit.yml",
		"./config.yml",
		"../modkit.yml",
	}
}

func envCandidates(name string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/.env", name),
		fmt.Sprintf("./pipelines/%s/.env", name),
		"./config/.env",
		"./.env",
		"../.env",
	}
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// Load reads configuration for the pipeline called name into cfg.
// Later sources override earlier ones: config file, .env, environment.
// Missing files are not an error.
func Load(name string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}
	files := ResolveFiles(name, lc)
	log := logger.WithComponent("config")

	v := viper.New()
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", files.ConfigFile, err)
		}
		log.Debug("config file loaded", logger.Fields(logger.FieldPath, files.ConfigFile))
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load .env file", logger.Fields(logger.FieldPath, files.EnvFile, logger.FieldError, err.Error()))
		}
	}
	bindEnv(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for %s: %w", name, err)
	}
	return nil
}

// bindEnv sets every MODKIT_ variable under each nested key it could mean.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		rest, ok := strings.CutPrefix(key, EnvPrefix)
		if !ok || rest == "" {
			continue
		}
		for _, variant := range keyVariants(rest) {
			v.Set(variant, value)
		}
	}
}

// keyVariants lists the dotted keys an underscore-separated name can mean,
// since config keys themselves contain underscores:
//
//	PATHS_OUTPUT_DIR -> paths_output_dir, paths.output_dir, paths.output.dir, ...
func keyVariants(envKey string) []string {
	parts := strings.Split(strings.ToLower(envKey), "_")
	seen := make(map[string]bool)
	var out []string
	var walk func(i int, prefix string)
	walk = func(i int, prefix string) {
		if i == len(parts) {
			if !seen[prefix] {
				seen[prefix] = true
				out = append(out, prefix)
			}
			return
		}
		walk(i+1, prefix+"_"+parts[i])
		walk(i+1, prefix+"."+parts[i])
	}
	if len(parts) > 6 {
		// Bound the fan-out; long names only get the flat and fully dotted forms.
		flat := strings.Join(parts, "_")
		return []string{flat, strings.Join(parts, ".")}
	}
	walk(1, parts[0])
	return out
}
