package workspacefinder

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/deshima-dev/desim/internal/domain"
)

// ConfigFile is the workspace marker and configuration file.
const ConfigFile = "desim.yaml"

// EnvPrefix prefixes environment overrides, e.g. DESIM_RUN_WORKERS=8.
const EnvPrefix = "DESIM"

var outputFormats = []string{"pretty", "json", "csv"}

// LoadConfig loads desim.yaml from the workspace root. Built-in defaults
// apply first, then the file, then DESIM_* environment variables.
func LoadConfig(root string) (domain.Config, error) {
	path := filepath.Join(root, ConfigFile)

	v := viper.New()
	setDefaults(v, domain.DefaultConfig())
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		kind := domain.KindInvalidConfig
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return domain.DefaultConfig(), &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: kind,
			Path: path,
			Err:  err,
		}
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.DefaultConfig(), &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if err := check(cfg); err != nil {
		return domain.DefaultConfig(), &domain.OpError{
			Op:   "workspacefinder.loadconfig",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d domain.Config) {
	v.SetDefault("defaults.instrument", d.Defaults.Instrument)
	v.SetDefault("defaults.conditions", d.Defaults.Conditions)
	v.SetDefault("paths.instruments_dir", d.Paths.InstrumentsDir)
	v.SetDefault("paths.conditions_dir", d.Paths.ConditionsDir)
	v.SetDefault("paths.runs_dir", d.Paths.RunsDir)
	v.SetDefault("paths.atmosphere", d.Paths.Atmosphere)
	v.SetDefault("run.workers", d.Run.Workers)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("serve.rate_limit", d.Serve.RateLimit)
	v.SetDefault("atmosphere.channel_airmass", d.Atmosphere.ChannelAirmass)
}

func check(cfg domain.Config) error {
	if cfg.Serve.RateLimit < 0 {
		return fmt.Errorf("serve.rate_limit must be >= 0, got %d: %w", cfg.Serve.RateLimit, domain.ErrInvalidConfig)
	}
	if cfg.Run.Workers < 1 {
		return fmt.Errorf("run.workers must be >= 1, got %d: %w", cfg.Run.Workers, domain.ErrInvalidConfig)
	}
	for _, f := range outputFormats {
		if cfg.Output.Format == f {
			return nil
		}
	}
	return fmt.Errorf("output.format must be one of %s, got %q: %w", strings.Join(outputFormats, "|"), cfg.Output.Format, domain.ErrInvalidConfig)
}
