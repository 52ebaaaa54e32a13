package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/gartstein/vestledger/internal/vesting/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Globals struct {
	Debug   bool
	Version string
}

// ConfigFlags are shared by every command that reads the service config.
// Every YAML key can be overridden by a flag or by the environment variable
// of the same name.
type ConfigFlags struct {
	Config           string `help:"path to YAML config" default:"config/config.yaml" env:"VESTLEDGER_CONFIG" type:"path"`
	config.Overrides `embed:""`
}

// LoadDotenv copies a dotenv file into the process environment without
// replacing variables that are already set. Call it before parsing flags.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// load reads the YAML config and lays the flag and environment overrides
// over it.
func (f ConfigFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, err
	}
	cfg.Apply(f.Overrides)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(globals *Globals) (*zap.Logger, error) {
	if globals.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func syncLogger(logger *zap.Logger) {
	// stderr sync fails on some terminals; nothing to do about it
	_ = logger.Sync()
}
