package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/qa-tools/zentao-report/pkg/models/domain"
)

// DB holds the ZenTao MySQL connection settings.
type DB struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Charset  string `mapstructure:"charset"`
}

// Group is one roster group: a named, ordered list of ZenTao accounts.
// Group order and account order determine render order.
type Group struct {
	Name     string   `mapstructure:"name"`
	Accounts []string `mapstructure:"accounts"`
}

// Titles holds the per-kind report title format strings. Each receives the
// resolved date(s) as %s arguments.
type Titles struct {
	Custom  string `mapstructure:"custom"`
	Daily   string `mapstructure:"daily"`
	Weekly  string `mapstructure:"weekly"`
	Monthly string `mapstructure:"monthly"`
}

// Config is the full reporting configuration.
type Config struct {
	DB              DB      `mapstructure:"db"`
	Roster          []Group `mapstructure:"roster"`
	ShortPeriodDays int     `mapstructure:"short_period_days"`
	ReportsPath     string  `mapstructure:"reports_path"`
	Titles          Titles  `mapstructure:"titles"`
}

// Load reads and validates the reporting configuration file. The database
// password may also come from the ZENTAO_DB_PASSWORD environment variable.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.charset", "utf8mb4")
	v.SetDefault("short_period_days", 3)
	v.SetDefault("reports_path", "reports")
	v.SetDefault("titles.custom", "ZenTao report %s to %s")
	v.SetDefault("titles.daily", "ZenTao daily report %s")
	v.SetDefault("titles.weekly", "ZenTao weekly report %s to %s")
	v.SetDefault("titles.monthly", "ZenTao monthly report %s to %s")
	_ = v.BindEnv("db.password", "ZENTAO_DB_PASSWORD")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Roster) == 0 {
		return fmt.Errorf("%w: roster is empty", domain.ErrConfiguration)
	}
	for i, g := range c.Roster {
		if g.Name == "" {
			return fmt.Errorf("%w: roster group %d has no name", domain.ErrConfiguration, i)
		}
		if len(g.Accounts) == 0 {
			return fmt.Errorf("%w: roster group %q has no accounts", domain.ErrConfiguration, g.Name)
		}
	}
	if c.ShortPeriodDays < 0 {
		return fmt.Errorf("%w: short_period_days must be >= 0", domain.ErrConfiguration)
	}
	return nil
}
