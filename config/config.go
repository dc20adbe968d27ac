// Package config loads logging settings from .env files, an optional
// logger.yaml and LOGGER_* environment variables, and applies them to a
// logger.Registry.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mordilloSan/simplelogger/logger"
	"github.com/mordilloSan/simplelogger/logger/zapsink"
)

// Backends selectable with LOGGER_BACKEND.
const (
	BackendText = "text"
	BackendZap  = "zap"
)

// ConfigName is the file name (without extension) looked up in the config paths.
const ConfigName = "logger"

// ConfigPaths defines the paths to look for logger.yaml when Load gets none.
var ConfigPaths = []string{
	".",
	"./configs",
	"../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"./configs/.env",
	"../configs/.env",
}

// Config holds the logging settings.
type Config struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"filepath"`
	Colorize bool   `mapstructure:"colorize"`
	Backend  string `mapstructure:"backend"`
	Encoding string `mapstructure:"encoding"`
}

// Load reads the configuration. paths override ConfigPaths; a missing
// logger.yaml or .env file is not an error.
func Load(paths ...string) (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Fprintln(os.Stderr, "logger config: could not load .env file:", err)
	}

	if len(paths) == 0 {
		paths = ConfigPaths
	}

	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	v.SetEnvPrefix("LOGGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unable to decode config into struct")
	}
	return &config, nil
}

// loadDotEnvFile loads the first .env file found in DotEnvPaths. Variables
// already set in the environment win.
func loadDotEnvFile() error {
	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "load %s", path)
		}
		return nil
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("level", "info")
	v.SetDefault("format", logger.DefaultFormat)
	v.SetDefault("output", "stderr")
	v.SetDefault("filepath", "")
	v.SetDefault("colorize", false)
	v.SetDefault("backend", BackendText)
	v.SetDefault("encoding", zapsink.EncodingConsole)
}

// Apply sets the registry's default level and handler factory.
func (c *Config) Apply(r *logger.Registry) error {
	level, err := logger.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrap(err, "logger config: level")
	}
	factory, err := c.HandlerFactory()
	if err != nil {
		return err
	}
	r.SetDefaultLevel(level)
	r.SetHandlerFactory(factory)
	return nil
}

// HandlerFactory builds the factory for the configured backend.
func (c *Config) HandlerFactory() (logger.HandlerFactory, error) {
	switch strings.ToLower(c.Backend) {
	case "", BackendText:
		return logger.Config{
			Format:   c.Format,
			Colorize: c.Colorize,
			Output:   c.Output,
			FilePath: c.FilePath,
		}.HandlerFactory(), nil
	case BackendZap:
		opts := zapsink.Options{Encoding: c.Encoding, OutputPaths: []string{c.output()}}
		if c.FilePath != "" {
			opts.OutputPaths = append(opts.OutputPaths, c.FilePath)
		}
		return zapsink.Factory(opts), nil
	}
	return nil, errors.Wrapf(logger.ErrInvalidArgument, "logger config: unknown backend %q", c.Backend)
}

func (c *Config) output() string {
	if strings.EqualFold(c.Output, "stdout") {
		return "stdout"
	}
	return "stderr"
}
