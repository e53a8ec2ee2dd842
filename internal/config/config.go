// Package config loads the confgen settings from an optional YAML file,
// .env files and CONFGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CONFGEN_GENERATOR_BASE_URL.
const EnvPrefix = "CONFGEN"

// Config is the root configuration.
type Config struct {
	Generator GeneratorConfig `json:"generator" mapstructure:"generator"`
	Download  DownloadConfig  `json:"download"  mapstructure:"download"`
	Server    ServerConfig    `json:"server"    mapstructure:"server"`
	Log       LogConfig       `json:"log"       mapstructure:"log"`
}

// GeneratorConfig points at the remote configuration generator.
type GeneratorConfig struct {
	BaseURL       string        `json:"base_url"       mapstructure:"base_url"`
	Timeout       time.Duration `json:"timeout"        mapstructure:"timeout"`
	ContractCheck bool          `json:"contract_check" mapstructure:"contract_check"`
}

// DownloadConfig controls where artifacts are written.
type DownloadConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// ServerConfig configures the browser UI.
type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
	// SubmitWait is how long a submit request waits for the outcome before
	// answering with the busy page.
	SubmitWait  time.Duration `json:"submit_wait"  mapstructure:"submit_wait"`
	InstanceTTL time.Duration `json:"instance_ttl" mapstructure:"instance_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Debug bool `json:"debug" mapstructure:"debug"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Generator: GeneratorConfig{
			BaseURL:       "http://localhost:8000",
			Timeout:       30 * time.Second,
			ContractCheck: true,
		},
		Download: DownloadConfig{Dir: "."},
		Server: ServerConfig{
			Addr:        ":8080",
			SubmitWait:  2 * time.Second,
			InstanceTTL: 30 * time.Minute,
		},
	}
}

// Load reads path (YAML, optional when empty), then any existing envFiles,
// then CONFGEN_* variables, and validates the result. Variables already set
// in the environment win over .env entries.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("generator.base_url", cfg.Generator.BaseURL)
	v.SetDefault("generator.timeout", cfg.Generator.Timeout)
	v.SetDefault("generator.contract_check", cfg.Generator.ContractCheck)
	v.SetDefault("download.dir", cfg.Download.Dir)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.submit_wait", cfg.Server.SubmitWait)
	v.SetDefault("server.instance_ttl", cfg.Server.InstanceTTL)
	v.SetDefault("log.debug", cfg.Log.Debug)
}

func loadEnvFiles(files []string) error {
	for _, file := range files {
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return nil
}
