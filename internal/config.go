package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	ImageExt         []string `mapstructure:"image_extensions"`
	VideoExt         []string `mapstructure:"video_extensions"`
	Workers          int      `mapstructure:"workers"`
	IOWorkers        int      `mapstructure:"io_workers"`
	ProbeTimeoutSec  int      `mapstructure:"probe_timeout_seconds"`
	CacheSize        int      `mapstructure:"date_cache_size"`
	DeleteDuplicates bool     `mapstructure:"delete_duplicates"`
	UseExifTool      bool     `mapstructure:"use_exiftool"`
	WriteManifest    bool     `mapstructure:"write_manifest"`
}

func LoadConfig() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find user config dir: %w", err)
	}

	viper.SetConfigName("mediasort")
	viper.SetConfigType("toml")
	viper.AddConfigPath(filepath.Join(configDir, "mediasort"))

	// Set defaults:
	viper.SetDefault("image_extensions", []string{".jpg", ".jpeg", ".png", ".heic", ".tiff", ".nef", ".cr2", ".arw", ".dng"})
	viper.SetDefault("video_extensions", []string{".mp4", ".mov", ".avi", ".mkv", ".flv", ".wmv", ".3gp", ".m4v", ".mts", ".mpg", ".mpeg"})
	viper.SetDefault("workers", 0) // 0 = size the pool from the file count
	viper.SetDefault("io_workers", 0)
	viper.SetDefault("probe_timeout_seconds", 5)
	viper.SetDefault("date_cache_size", 4096)
	viper.SetDefault("delete_duplicates", false)
	viper.SetDefault("use_exiftool", false)
	viper.SetDefault("write_manifest", true)

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; that's OK, just use defaults
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
