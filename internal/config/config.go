// Package config provides functionality for loading, saving, and managing
// application configuration settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"mindm/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. MINDM_TARGET.
const EnvPrefix = "MINDM"

// Global variables to store the current configuration and its file path.
var (
	currentConfig *model.Config
	configPath    = "./data/config.json"
)

// Defaults returns the built-in configuration.
func Defaults() *model.Config {
	return &model.Config{
		Target:               "local",
		DatabaseDir:          "./data",
		DatabaseFile:         "mindm.db",
		LogFolder:            "./logs",
		CommandLog:           "commands.log",
		ErrorLog:             "errors.log",
		InfoLog:              "info.log",
		LogLevel:             "info",
		DocsDir:              "./docs",
		ChartType:            "auto",
		DuplicateLinkCeiling: 11,
		IgnoreRTF:            true,
		PreviewAddr:          "127.0.0.1:8765",
		HistoryFile:          "./data/history",
	}
}

// SetPath changes the config file used by ConfigLoad and ConfigSave.
func SetPath(path string) {
	if path != "" {
		configPath = path
	}
}

// Path returns the config file path.
func Path() string {
	return configPath
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("target", d.Target)
	v.SetDefault("database_dir", d.DatabaseDir)
	v.SetDefault("database_file", d.DatabaseFile)
	v.SetDefault("log_folder", d.LogFolder)
	v.SetDefault("command_log", d.CommandLog)
	v.SetDefault("error_log", d.ErrorLog)
	v.SetDefault("info_log", d.InfoLog)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_to_stderr", d.LogToStderr)
	v.SetDefault("docs_dir", d.DocsDir)
	v.SetDefault("charttype", d.ChartType)
	v.SetDefault("turbo_mode", d.TurboMode)
	v.SetDefault("duplicate_link_ceiling", d.DuplicateLinkCeiling)
	v.SetDefault("ignore_rtf", d.IgnoreRTF)
	v.SetDefault("preview_addr", d.PreviewAddr)
	v.SetDefault("history_file", d.HistoryFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ConfigLoad loads the configuration from the config file, environment and
// an optional .env file. If the file doesn't exist, the defaults are written
// to it.
func ConfigLoad() error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	v := newViper()
	v.SetConfigFile(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &model.Config{}
		if err := v.Unmarshal(cfg); err != nil {
			return fmt.Errorf("error decoding default config: %w", err)
		}
		if err := ConfigSave(Defaults()); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
		currentConfig = cfg
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if cfg.DuplicateLinkCeiling <= 0 {
		cfg.DuplicateLinkCeiling = Defaults().DuplicateLinkCeiling
	}
	currentConfig = cfg
	return nil
}

// ConfigSave saves the provided configuration to the config file.
func ConfigSave(cfg *model.Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("target", cfg.Target)
	v.Set("database_dir", cfg.DatabaseDir)
	v.Set("database_file", cfg.DatabaseFile)
	v.Set("log_folder", cfg.LogFolder)
	v.Set("command_log", cfg.CommandLog)
	v.Set("error_log", cfg.ErrorLog)
	v.Set("info_log", cfg.InfoLog)
	v.Set("log_level", cfg.LogLevel)
	v.Set("log_to_stderr", cfg.LogToStderr)
	v.Set("docs_dir", cfg.DocsDir)
	v.Set("charttype", cfg.ChartType)
	v.Set("turbo_mode", cfg.TurboMode)
	v.Set("duplicate_link_ceiling", cfg.DuplicateLinkCeiling)
	v.Set("ignore_rtf", cfg.IgnoreRTF)
	v.Set("preview_addr", cfg.PreviewAddr)
	v.Set("history_file", cfg.HistoryFile)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// ConfigGet returns the current configuration, falling back to the defaults
// when nothing has been loaded.
func ConfigGet() *model.Config {
	if currentConfig == nil {
		return Defaults()
	}
	return currentConfig
}

// DatabasePath returns the sqlite file of the local target.
func DatabasePath(cfg *model.Config) string {
	return filepath.Join(cfg.DatabaseDir, cfg.DatabaseFile)
}
