// Package config provides unified TOML-based configuration loading with
// viper, fsnotify-driven hot reload, and struct validation.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/wyfcoding/filterkit/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for a filterkit service: the
// structures' own sizing parameters plus the ambient server/log/metrics
// stack every service in this family carries.
type Config struct {
	Version string       `mapstructure:"version" toml:"version"`
	Log     LogConfig    `mapstructure:"log"     toml:"log"`
	Server  ServerConfig `mapstructure:"server"  toml:"server"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics"`
	Filters FiltersConfig `mapstructure:"filters" toml:"filters"`
}

// ServerConfig defines the HTTP listener's network and environment
// parameters.
type ServerConfig struct {
	Name        string `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string `mapstructure:"environment" toml:"environment" validate:"oneof=dev test prod"`
	HTTP        struct {
		Addr              string        `mapstructure:"addr"                toml:"addr"`
		Timeout           time.Duration `mapstructure:"timeout"             toml:"timeout"`
		ReadTimeout       time.Duration `mapstructure:"read_timeout"        toml:"read_timeout"`
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" toml:"read_header_timeout"`
		WriteTimeout      time.Duration `mapstructure:"write_timeout"       toml:"write_timeout"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"        toml:"idle_timeout"`
		MaxHeaderBytes    int           `mapstructure:"max_header_bytes"    toml:"max_header_bytes"`
		MaxBodyBytes      int64         `mapstructure:"max_body_bytes"      toml:"max_body_bytes"`
		TrustedProxies    []string      `mapstructure:"trusted_proxies"     toml:"trusted_proxies"`
		Port              int           `mapstructure:"port"                toml:"port" validate:"required,min=1,max=65535"`
	} `mapstructure:"http" toml:"http"`
}

// LogConfig configures the slog-based logger.
type LogConfig struct {
	Level      string          `mapstructure:"level"       toml:"level"`       // debug|info|warn|error
	Format     string          `mapstructure:"format"      toml:"format"`      // json (only format currently wired)
	File       string          `mapstructure:"file"        toml:"file"`        // log file path; empty means stdout only
	MaxSize    int             `mapstructure:"max_size"    toml:"max_size"`    // max size per log file (MB)
	MaxBackups int             `mapstructure:"max_backups" toml:"max_backups"` // max retained rotated files
	MaxAge     int             `mapstructure:"max_age"     toml:"max_age"`     // max retained age (days)
	Compress   bool            `mapstructure:"compress"    toml:"compress"`    // compress rotated files
	Remote     RemoteLogConfig `mapstructure:"remote"      toml:"remote"`      // optional remote log shipping
}

// RemoteLogConfig configures batched NDJSON-over-HTTP log shipping.
type RemoteLogConfig struct {
	Enabled       bool          `mapstructure:"enabled"        toml:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"       toml:"endpoint"`
	AuthToken     string        `mapstructure:"auth_token"     toml:"auth_token"`
	Timeout       time.Duration `mapstructure:"timeout"        toml:"timeout"`
	BatchSize     int           `mapstructure:"batch_size"     toml:"batch_size"`
	BufferSize    int           `mapstructure:"buffer_size"    toml:"buffer_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval" toml:"flush_interval"`
	DropOnFull    bool          `mapstructure:"drop_on_full"   toml:"drop_on_full"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// FiltersConfig sizes the three structures this library builds. Values
// here seed the defaults a service starts each structure with; callers may
// still construct structures directly with different parameters.
type FiltersConfig struct {
	Bloom    BloomConfig    `mapstructure:"bloom"    toml:"bloom"`
	Cuckoo   CuckooConfig   `mapstructure:"cuckoo"   toml:"cuckoo"`
	SkipList SkipListConfig `mapstructure:"skiplist" toml:"skiplist"`
}

// BloomConfig sizes a Bloom filter per the standard (n, p) parameterization.
type BloomConfig struct {
	ExpectedItems     uint    `mapstructure:"expected_items"      toml:"expected_items"      validate:"min=1"`
	FalsePositiveRate float64 `mapstructure:"false_positive_rate" toml:"false_positive_rate" validate:"gt=0,lt=1"`
}

// CuckooConfig sizes a Cuckoo filter.
type CuckooConfig struct {
	Capacity        uint `mapstructure:"capacity"         toml:"capacity"         validate:"min=1"`
	FingerprintSize int  `mapstructure:"fingerprint_size" toml:"fingerprint_size" validate:"min=1,max=4"`
}

// SkipListConfig sizes a concurrent skip list.
type SkipListConfig struct {
	MaxElements int `mapstructure:"max_elements" toml:"max_elements" validate:"min=1"`
}

var vInstance = viper.New()
var onReload []func(*Config)

// RegisterReloadHook registers a callback invoked after a successful
// hot-reload.
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	onReload = append(onReload, hook)
}

// Load reads path into conf, validates it, and arms fsnotify-driven hot
// reload: subsequent edits to the file re-unmarshal, re-apply the log
// level, re-validate, and invoke any registered reload hooks.
func Load(path string, conf any) error {
	vInstance.SetConfigFile(path)
	vInstance.SetConfigType("toml")

	vInstance.SetEnvPrefix("APP")
	vInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vInstance.AutomaticEnv()

	if err := vInstance.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}

	if err := vInstance.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	vInstance.WatchConfig()
	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		if unmarshalErr := vInstance.Unmarshal(conf); unmarshalErr != nil {
			slog.Error("reload config unmarshal failed", "error", unmarshalErr)

			return
		}

		if c, ok := conf.(*Config); ok {
			logging.SetLevel(c.Log.Level)
		} else {
			val := reflect.ValueOf(conf)
			if val.Kind() == reflect.Ptr {
				val = val.Elem()
			}
			logField := val.FieldByName("Log")
			if logField.IsValid() {
				levelField := logField.FieldByName("Level")
				if levelField.IsValid() && levelField.Kind() == reflect.String {
					logging.SetLevel(levelField.String())
				}
			}
		}

		if validateErr := validate.Struct(conf); validateErr != nil {
			slog.Error("reload config validation failed", "error", validateErr)

			return
		} else {
			slog.Info("config hot-reloaded and validated successfully")
		}

		if cfg, ok := conf.(*Config); ok {
			for _, hook := range onReload {
				hook(cfg)
			}
		}
	})

	return nil
}

// PrintWithMask logs the effective configuration with sensitive fields
// redacted.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)

		return
	}

	var configMap map[string]any
	if unmarshalErr := json.Unmarshal(data, &configMap); unmarshalErr != nil {
		slog.Error("failed to unmarshal config for masking", "error", unmarshalErr)

		return
	}

	mask(configMap)

	maskedJSON, marshalErr := json.MarshalIndent(configMap, "  ", "  ")
	if marshalErr != nil {
		slog.Error("failed to marshal masked config", "error", marshalErr)

		return
	}

	slog.Info("Current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)

			continue
		}

		if slice, ok := val.([]any); ok {
			for _, item := range slice {
				if itemMap, ok := item.(map[string]any); ok {
					mask(itemMap)
				}
			}

			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"

				break
			}
		}
	}
}

// GetViper returns the underlying Viper instance.
func GetViper() *viper.Viper {
	return vInstance
}
