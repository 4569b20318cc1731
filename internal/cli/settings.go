package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings configure the batch commands.
type Settings struct {
	DatabaseURL      string        `mapstructure:"database_url"`
	LoadTimeout      time.Duration `mapstructure:"load_timeout"`
	FallbackEncoding string        `mapstructure:"fallback_encoding"`
	MaxFileSize      int64         `mapstructure:"max_file_size"`
	ChartWidth       int           `mapstructure:"chart_width"`
	ChartHeight      int           `mapstructure:"chart_height"`
	ChartMaxBars     int           `mapstructure:"chart_max_bars"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFormat        string        `mapstructure:"log_format"`
}

// LoadSettings reads settings from defaults, an optional config file and
// CLEANLYTICS_* environment variables, in increasing precedence. An empty
// cfgFile looks for ~/.cleanlytics/config.yaml and ignores it when absent.
func LoadSettings(cfgFile string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("CLEANLYTICS")
	v.AutomaticEnv()

	v.SetDefault("database_url", "")
	v.SetDefault("load_timeout", 5*time.Minute)
	v.SetDefault("fallback_encoding", "windows-1252")
	v.SetDefault("max_file_size", int64(0))
	v.SetDefault("chart_width", 720)
	v.SetDefault("chart_height", 360)
	v.SetDefault("chart_max_bars", 40)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".cleanlytics"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &s, nil
}
