// Package config provides Viper-based configuration loading for the dungeon server.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File redirects log output to a file; empty logs to stderr. Interactive
	// play usually sets it so log lines do not interleave with narration.
	File string `mapstructure:"file"`
}

// StoreConfig selects the session store backend.
type StoreConfig struct {
	// Driver is one of "memory", "postgres", "sqlite".
	Driver string `mapstructure:"driver"`
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// NarratorConfig selects and tunes the narrator backend.
type NarratorConfig struct {
	// Provider is one of "static", "anthropic", "gemini".
	Provider  string        `mapstructure:"provider"`
	Model     string        `mapstructure:"model"`
	APIKey    string        `mapstructure:"api_key"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// Retries is the number of additional attempts after a failed call.
	Retries int `mapstructure:"retries"`
	// RetryBase is the first exponential backoff interval.
	RetryBase time.Duration `mapstructure:"retry_base"`
}

// RulesConfig holds the tunable game rules.
type RulesConfig struct {
	FleeDifficulty    int  `mapstructure:"flee_difficulty"`
	DefendACBonus     int  `mapstructure:"defend_ac_bonus"`
	StartingGold      int  `mapstructure:"starting_gold"`
	NaturalTwentyCrit bool `mapstructure:"natural_twenty_crit"`
	// ConfirmNonHostile holds attacks on non-hostile targets for confirmation.
	ConfirmNonHostile bool `mapstructure:"confirm_non_hostile"`
}

// ContentConfig names optional override locations; empty means embedded defaults.
type ContentConfig struct {
	BestiaryDir     string `mapstructure:"bestiary_dir"`
	ItemsDir        string `mapstructure:"items_dir"`
	LootDir         string `mapstructure:"loot_dir"`
	HostilityScript string `mapstructure:"hostility_script"`
	// InstructionLimit caps Lua opcodes per script call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `mapstructure:"addr"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Narrator NarratorConfig `mapstructure:"narrator"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Content  ContentConfig  `mapstructure:"content"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStore(c.Store); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Store.Driver == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateNarrator(c.Narrator); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.instruction_limit must be >= 0, got %d", c.Content.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateStore(s StoreConfig) error {
	if !slices.Contains([]string{"memory", "postgres", "sqlite"}, s.Driver) {
		return fmt.Errorf("store.driver must be one of [memory, postgres, sqlite], got %q", s.Driver)
	}
	if s.Driver == "sqlite" && s.SQLitePath == "" {
		return fmt.Errorf("store.sqlite_path must not be empty for the sqlite driver")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateNarrator(n NarratorConfig) error {
	var errs []string
	switch n.Provider {
	case "static":
	case "anthropic", "gemini":
		if n.APIKey == "" {
			errs = append(errs, fmt.Sprintf("narrator.api_key must not be empty for provider %q", n.Provider))
		}
		if n.Model == "" {
			errs = append(errs, "narrator.model must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("narrator.provider must be one of [static, anthropic, gemini], got %q", n.Provider))
	}
	if n.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("narrator.max_tokens must be >= 1, got %d", n.MaxTokens))
	}
	if n.Timeout <= 0 {
		errs = append(errs, "narrator.timeout must be positive")
	}
	if n.Retries < 0 {
		errs = append(errs, fmt.Sprintf("narrator.retries must be >= 0, got %d", n.Retries))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	if r.FleeDifficulty < 1 || r.FleeDifficulty > 30 {
		errs = append(errs, fmt.Sprintf("rules.flee_difficulty must be 1-30, got %d", r.FleeDifficulty))
	}
	if r.DefendACBonus < 0 {
		errs = append(errs, fmt.Sprintf("rules.defend_ac_bonus must be >= 0, got %d", r.DefendACBonus))
	}
	if r.StartingGold < 0 {
		errs = append(errs, fmt.Sprintf("rules.starting_gold must be >= 0, got %d", r.StartingGold))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with CHAOS_ prefix
	v.SetEnvPrefix("CHAOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance carrying every default, for callers that
// layer flags on top before LoadFromViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CHAOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.sqlite_path", "chaos-dungeon.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "chaos")
	v.SetDefault("database.password", "chaos")
	v.SetDefault("database.name", "chaos")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("narrator.provider", "static")
	v.SetDefault("narrator.model", "")
	v.SetDefault("narrator.api_key", "")
	v.SetDefault("narrator.max_tokens", 600)
	v.SetDefault("narrator.timeout", "20s")
	v.SetDefault("narrator.retries", 2)
	v.SetDefault("narrator.retry_base", "250ms")

	v.SetDefault("rules.flee_difficulty", 10)
	v.SetDefault("rules.defend_ac_bonus", 2)
	v.SetDefault("rules.starting_gold", 0)
	v.SetDefault("rules.natural_twenty_crit", false)
	v.SetDefault("rules.confirm_non_hostile", true)

	v.SetDefault("content.bestiary_dir", "")
	v.SetDefault("content.items_dir", "")
	v.SetDefault("content.loot_dir", "")
	v.SetDefault("content.hostility_script", "")
	v.SetDefault("content.instruction_limit", 0)

	v.SetDefault("metrics.addr", "")
}
