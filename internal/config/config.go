package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full previewd configuration. Values come from defaults, an
// optional previewd.yaml, and PREVIEWD_* environment variables, in that
// order of precedence (lowest first).
type Config struct {
	Addr   string `mapstructure:"addr"`
	APIKey string `mapstructure:"api_key"`
	Debug  bool   `mapstructure:"debug"`

	BatchSize  int           `mapstructure:"batch_size"`
	BatchDelay time.Duration `mapstructure:"batch_delay"`

	WebhookURL string `mapstructure:"webhook_url"`

	Store StoreConfig `mapstructure:"store"`
}

type StoreConfig struct {
	Backend     string `mapstructure:"backend"`
	Dir         string `mapstructure:"dir"`
	SqlitePath  string `mapstructure:"sqlite_path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8000")
	v.SetDefault("batch_size", 3)
	v.SetDefault("batch_delay", 100*time.Millisecond)
	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", "state")
	v.SetDefault("store.sqlite_path", "previewd.db")
	v.SetDefault("store.redis_addr", "localhost:6379")

	v.SetConfigName("previewd")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PREVIEWD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, env and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
