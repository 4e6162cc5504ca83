package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/RichardKnop/rowstore/internal/core/rowstore"
	"github.com/RichardKnop/rowstore/internal/pkg/logging"
)

const (
	EnvPrefix = "ROWSTORE"

	KeyLogLevel             = "log_level"
	KeyMaxPages             = "max_pages"
	KeyInternalNodeMaxCells = "internal_node_max_cells"

	FlagLogLevel = "log-level"
	FlagMaxPages = "max-pages"

	DefaultLogLevel = "info"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	MaxPages int    `mapstructure:"max_pages"`
	// Zero keeps the widest fan-out that fits a page
	InternalNodeMaxCells int `mapstructure:"internal_node_max_cells"`
}

// New returns a viper instance with defaults and environment bindings.
// ROWSTORE_LOG_LEVEL takes precedence over the bare LOG_LEVEL.
func New() (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyMaxPages, rowstore.MaxPages)
	v.SetDefault(KeyInternalNodeMaxCells, 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyLogLevel, EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return nil, err
	}

	return v, nil
}

// BindFlags makes command line flags override every other source.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	if f := flags.Lookup(FlagLogLevel); f != nil {
		err = multierr.Append(err, v.BindPFlag(KeyLogLevel, f))
	}
	if f := flags.Lookup(FlagMaxPages); f != nil {
		err = multierr.Append(err, v.BindPFlag(KeyMaxPages, f))
	}
	return err
}

// Load reads the optional config file and decodes the merged settings.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		path, err := homedir.Expand(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("expand config path: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var aConfig Config
	if err := v.Unmarshal(&aConfig); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := aConfig.Validate(); err != nil {
		return Config{}, err
	}

	return aConfig, nil
}

func (c Config) Validate() error {
	var err error
	if c.MaxPages < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: max pages must be at least 1, got %d", ErrInvalidConfig, c.MaxPages))
	}
	if c.InternalNodeMaxCells != 0 &&
		(c.InternalNodeMaxCells < rowstore.InternalNodeMinMaxCells || c.InternalNodeMaxCells > rowstore.InternalNodeMaxCells) {
		err = multierr.Append(err, fmt.Errorf(
			"%w: internal node max cells must be between %d and %d, got %d",
			ErrInvalidConfig,
			rowstore.InternalNodeMinMaxCells,
			rowstore.InternalNodeMaxCells,
			c.InternalNodeMaxCells,
		))
	}
	if _, levelErr := logging.ParseLevel(c.LogLevel); levelErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel))
	}
	return err
}

func (c Config) StoreOptions() rowstore.Options {
	return rowstore.Options{
		MaxPages:             c.MaxPages,
		InternalNodeMaxCells: c.InternalNodeMaxCells,
	}
}
