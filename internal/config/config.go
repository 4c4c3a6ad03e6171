package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/emrgen/docseed/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	configFileName = "docseed"
	envPrefix      = "DOCSEED"
)

type Config struct {
	WorksDir    string
	DistDir     string
	Concurrency int
	Compression string
	Store       store.Config
	Log         LogConfig
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("works.dir", "works")
	v.SetDefault("dist.dir", "dist")
	v.SetDefault("store.driver", store.DriverSqlite)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.journal_size_limit", 64<<20)
	v.SetDefault("seed.concurrency", 4)
	v.SetDefault("artifact.compression", "none")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads docseed.yml from the given directories, or the working directory when
// none are given. DOCSEED_* environment variables, also read from .env, override the file.
func LoadConfig(dirs ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType("yml")
	if len(dirs) == 0 {
		dirs = []string{".", "./.config"}
	}
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		logrus.Debugf("using config file %s", v.ConfigFileUsed())
	}

	cfg := &Config{
		WorksDir:    os.ExpandEnv(v.GetString("works.dir")),
		DistDir:     os.ExpandEnv(v.GetString("dist.dir")),
		Concurrency: v.GetInt("seed.concurrency"),
		Compression: v.GetString("artifact.compression"),
		Store: store.Config{
			Driver:           strings.ToLower(v.GetString("store.driver")),
			DSN:              v.GetString("store.dsn"),
			JournalSizeLimit: v.GetInt64("store.journal_size_limit"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case store.DriverSqlite:
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("config: store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("config: seed.concurrency must be positive, got %d", c.Concurrency)
	}

	return nil
}

// SetupLogging applies the log level and format to the standard logrus logger.
func SetupLogging(cfg LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("config: unknown log.format %q", cfg.Format)
	}

	return nil
}
