package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"household-planner/internal/recurrence"
)

// Config keeps runtime settings for the planner.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Log        LogConfig        `mapstructure:"log"`
	Timezone   string           `mapstructure:"timezone"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	Horizon    HorizonConfig    `mapstructure:"horizon"`
	Recurrence RecurrenceConfig `mapstructure:"recurrence"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	HTTP       HTTPConfig       `mapstructure:"http"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// JobsConfig drives the periodic sweeps.
type JobsConfig struct {
	OverdueInterval time.Duration `mapstructure:"overdue_interval"`
	DueSoonInterval time.Duration `mapstructure:"due_soon_interval"`
	GenerateAt      string        `mapstructure:"generate_at"` // HH:MM
	Timeout         time.Duration `mapstructure:"timeout"`
}

type HorizonConfig struct {
	Generation     time.Duration `mapstructure:"generation"`
	NextOccurrence time.Duration `mapstructure:"next_occurrence"`
	DueSoon        time.Duration `mapstructure:"due_soon"`
}

type RecurrenceConfig struct {
	MonthOverflow string `mapstructure:"month_overflow"` // clamp or skip
}

type NotifyConfig struct {
	DedupeDueSoon bool `mapstructure:"dedupe_due_soon"`
}

type TelegramConfig struct {
	Token      string  `mapstructure:"token"`
	RatePerSec float64 `mapstructure:"rate_per_sec"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from an optional file and HP_* environment
// variables, on top of sane defaults. An empty path searches ./ and
// ./config for planner.yaml and ignores a missing file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("planner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("HP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Overflow(); err != nil {
		return err
	}
	if c.Jobs.OverdueInterval <= 0 || c.Jobs.DueSoonInterval <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	if c.Horizon.Generation <= 0 || c.Horizon.NextOccurrence <= 0 || c.Horizon.DueSoon <= 0 {
		return fmt.Errorf("horizons must be positive")
	}
	return nil
}

// Location resolves the configured default timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Overflow() (recurrence.Overflow, error) {
	return recurrence.ParseOverflow(c.Recurrence.MonthOverflow)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "household_planner.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("timezone", "Local")

	v.SetDefault("jobs.overdue_interval", time.Hour)
	v.SetDefault("jobs.due_soon_interval", 6*time.Hour)
	v.SetDefault("jobs.generate_at", "03:00")
	v.SetDefault("jobs.timeout", 30*time.Second)

	v.SetDefault("horizon.generation", 30*24*time.Hour)
	v.SetDefault("horizon.next_occurrence", 90*24*time.Hour)
	v.SetDefault("horizon.due_soon", 24*time.Hour)

	v.SetDefault("recurrence.month_overflow", "clamp")
	v.SetDefault("notify.dedupe_due_soon", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.rate_per_sec", 20.0)

	v.SetDefault("http.addr", ":8080")
}
