// Package config loads cyberdetect settings from flags, environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/archive"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/custom"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/llm"
)

// EnvPrefix prefixes every environment variable, e.g. CYBERDETECT_SERVER_PORT.
const EnvPrefix = "CYBERDETECT"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Custom   CustomConfig   `mapstructure:"custom"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Analyses AnalysesConfig `mapstructure:"analyses"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Port      int `mapstructure:"port"`
	PageLimit int `mapstructure:"page_limit"`
}

type ScanConfig struct {
	TopAttackers int `mapstructure:"top_attackers"`
}

type ArchiveConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type CustomConfig struct {
	StorePath string        `mapstructure:"store_path"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Model    string `mapstructure:"model"`
}

type AnalysesConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type WatchConfig struct {
	Checkpoint string `mapstructure:"checkpoint"`
	FromStart  bool   `mapstructure:"from_start"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("server.port", 6969)
	v.SetDefault("server.page_limit", 500)
	v.SetDefault("scan.top_attackers", 20)
	v.SetDefault("archive.max_bytes", archive.DefaultMaxBytes)
	v.SetDefault("custom.store_path", "./.cyberdetect-detectors.json")
	v.SetDefault("custom.timeout", custom.DefaultTimeout)
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("analyses.capacity", 10)
	v.SetDefault("watch.checkpoint", "./.cyberdetect-state.json")
	v.SetDefault("watch.from_start", false)
}

// BindEnv makes v read CYBERDETECT_SECTION_KEY variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q", c.Log.Format))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d", c.Server.Port))
	}
	if c.Server.PageLimit < 1 {
		errs = append(errs, fmt.Errorf("server.page_limit %d", c.Server.PageLimit))
	}
	if c.Scan.TopAttackers < 0 {
		errs = append(errs, fmt.Errorf("scan.top_attackers %d", c.Scan.TopAttackers))
	}
	if c.Archive.MaxBytes < 1 {
		errs = append(errs, fmt.Errorf("archive.max_bytes %d", c.Archive.MaxBytes))
	}
	if c.Custom.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("custom.timeout %s", c.Custom.Timeout))
	}
	if c.Analyses.Capacity < 1 {
		errs = append(errs, fmt.Errorf("analyses.capacity %d", c.Analyses.Capacity))
	}
	if c.LLM.Provider != "" && !knownProvider(c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider %q", c.LLM.Provider))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func knownProvider(name string) bool {
	for _, p := range llm.Providers {
		if p.ID == name {
			return true
		}
	}
	return false
}

// LLMClient builds the configured model client.
func (c Config) LLMClient() (llm.Client, error) {
	return llm.New(llm.Config{
		Provider: c.LLM.Provider,
		APIKey:   c.LLM.APIKey,
		Endpoint: c.LLM.Endpoint,
		Model:    c.LLM.Model,
	})
}
