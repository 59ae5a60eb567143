// Package config loads runtime settings from defaults, an optional config
// file, .env files and CHANNEL_ASSISTANT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/brewgator/lightning-channel-assistant/internal/analytics"
	"github.com/brewgator/lightning-channel-assistant/internal/enrich"
	"github.com/brewgator/lightning-channel-assistant/internal/logging"
	"github.com/brewgator/lightning-channel-assistant/pkg/lnd"
)

const (
	envPrefix      = "CHANNEL_ASSISTANT"
	configName     = "channel-assistant"
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the full application configuration
type Config struct {
	LND     LNDConfig                `mapstructure:"lnd"`
	Health  analytics.HealthCriteria `mapstructure:"health"`
	Enrich  EnrichConfig             `mapstructure:"enrich"`
	History HistoryConfig            `mapstructure:"history"`
	HTTP    HTTPConfig               `mapstructure:"http"`
	MCP     MCPConfig                `mapstructure:"mcp"`
	Log     logging.Config           `mapstructure:"log"`
}

// LNDConfig holds the lncli connection flags
type LNDConfig struct {
	LncliPath    string        `mapstructure:"lncli_path"`
	RPCServer    string        `mapstructure:"rpcserver"`
	TLSCertPath  string        `mapstructure:"tlscertpath"`
	MacaroonPath string        `mapstructure:"macaroonpath"`
	Network      string        `mapstructure:"network"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Client converts the settings into lnd client flags
func (c LNDConfig) Client() lnd.Config {
	return lnd.Config{
		LncliPath:    c.LncliPath,
		RPCServer:    c.RPCServer,
		TLSCertPath:  c.TLSCertPath,
		MacaroonPath: c.MacaroonPath,
		Network:      c.Network,
	}
}

// EnrichConfig bounds alias lookups. Zero or less means unbounded.
type EnrichConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// HistoryConfig controls the query history database
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// HTTPConfig configures the JSON API
type HTTPConfig struct {
	Host           string   `mapstructure:"host"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns host:port
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// MCPConfig selects the MCP transport
type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LND: LNDConfig{
			LncliPath: "lncli",
			Timeout:   30 * time.Second,
		},
		Health: analytics.DefaultHealthCriteria(),
		Enrich: EnrichConfig{Concurrency: enrich.DefaultConcurrency},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "data/history.db",
		},
		HTTP: HTTPConfig{
			Host:           "127.0.0.1",
			Port:           "8090",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		MCP: MCPConfig{
			Transport: TransportStdio,
			Addr:      "127.0.0.1:8483",
		},
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("lnd.lncli_path", d.LND.LncliPath)
	v.SetDefault("lnd.rpcserver", d.LND.RPCServer)
	v.SetDefault("lnd.tlscertpath", d.LND.TLSCertPath)
	v.SetDefault("lnd.macaroonpath", d.LND.MacaroonPath)
	v.SetDefault("lnd.network", d.LND.Network)
	v.SetDefault("lnd.timeout", d.LND.Timeout)
	v.SetDefault("health.min_local_ratio", d.Health.MinLocalRatio)
	v.SetDefault("health.max_local_ratio", d.Health.MaxLocalRatio)
	v.SetDefault("enrich.concurrency", d.Enrich.Concurrency)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.db_path", d.History.DBPath)
	v.SetDefault("http.host", d.HTTP.Host)
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.allowed_origins", d.HTTP.AllowedOrigins)
	v.SetDefault("mcp.transport", d.MCP.Transport)
	v.SetDefault("mcp.addr", d.MCP.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// bindLNDEnv also accepts the LND_* names commonly used in node deployments
func bindLNDEnv(v *viper.Viper) error {
	for key, env := range map[string]string{
		"lnd.rpcserver":    "LND_RPCSERVER",
		"lnd.tlscertpath":  "LND_TLSCERTPATH",
		"lnd.macaroonpath": "LND_MACAROONPATH",
		"lnd.network":      "LND_NETWORK",
	} {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return err
		}
	}
	return nil
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are skipped; variables already set are not overridden.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration. configFile may be empty, in which case
// channel-assistant.{yaml,json,toml} is looked up in the working directory
// and is optional.
func Load(configFile string, envFiles ...string) (*Config, error) {
	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLNDEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if err := c.Health.Validate(); err != nil {
		return err
	}
	if c.LND.LncliPath == "" {
		return errors.New("lnd.lncli_path must not be empty")
	}
	if c.LND.Timeout < 0 {
		return fmt.Errorf("lnd.timeout must not be negative, got %s", c.LND.Timeout)
	}
	switch c.MCP.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("mcp.transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.MCP.Transport)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return errors.New("history.db_path is required when history is enabled")
	}
	return nil
}
