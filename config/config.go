package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/icodeforyou/spothub-go/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfigApi struct {
	Address string
	Port    int16
	// If not assigned, the server will serve embedded files.
	// If assigned, the server will serve files from the directory,
	// that must contain a "static" and "templates" directory.
	// This is useful for development.
	WwwDir *string `mapstructure:"www_dir"`
}

type AppConfigDatabase struct {
	Path string
	// How many days archived prices should be stored before they get purged
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files should be stored before they get deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
	// Directory for the compressed backups, default: "backups" next to the database file
	BackupDir *string `mapstructure:"backup_dir"`
}

func (d AppConfigDatabase) GetBackupDir() string {
	if d.BackupDir == nil || *d.BackupDir == "" {
		return filepath.Join(filepath.Dir(d.Path), "backups")
	}
	return *d.BackupDir
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 90
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 30
	}
	return *d.BackupRetentionDays
}

type AppConfigEnergyPrice struct {
	// Providers in priority order: "spothinta", "porssisahko", default: both
	Providers       []string `mapstructure:"providers"`
	SpotHintaUrl    string   `mapstructure:"spothinta_url"`
	PorssisahkoUrl  string   `mapstructure:"porssisahko_url"`
	IntervalMinutes *int     `mapstructure:"interval_minutes"`      // Duration of one feed record, default: 15
	FetchTimeout    *int     `mapstructure:"fetch_timeout_seconds"` // default: 10
	RunAt           string   `mapstructure:"run_at"`                // Cron spec for scheduled refresh
}

func (e AppConfigEnergyPrice) GetProviders() []string {
	if len(e.Providers) == 0 {
		return []string{"spothinta", "porssisahko"}
	}
	return e.Providers
}

func (e AppConfigEnergyPrice) GetIntervalDuration() time.Duration {
	if e.IntervalMinutes == nil || *e.IntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(*e.IntervalMinutes) * time.Minute
}

func (e AppConfigEnergyPrice) GetFetchTimeout() time.Duration {
	if e.FetchTimeout == nil || *e.FetchTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(*e.FetchTimeout) * time.Second
}

type AppConfigGui struct {
	// Timezone of the viewer, decides where "today" ends, default: Local
	Timezone *string `mapstructure:"timezone"`
}

func (g AppConfigGui) GetTimezone() string {
	if g.Timezone == nil || *g.Timezone == "" {
		return "Local"
	}
	return *g.Timezone
}

type AppConfigMqtt struct {
	Enabled     bool
	Host        string
	Port        int16
	Username    string
	Password    string
	TopicPrefix *string `mapstructure:"topic_prefix"` // default: "spothub"
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil || *m.TopicPrefix == "" {
		return "spothub"
	}
	return strings.TrimSuffix(*m.TopicPrefix, "/")
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.ParseLevel(l.DbLevel, slog.LevelInfo)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.ParseLevel(l.ConsoleLevel, slog.LevelInfo)
}

type AppConfig struct {
	Api         AppConfigApi
	Database    AppConfigDatabase
	EnergyPrice AppConfigEnergyPrice `mapstructure:"energy_price"`
	Gui         AppConfigGui         `mapstructure:"gui"`
	Mqtt        AppConfigMqtt        `mapstructure:"mqtt"`
	Logging     AppConfigLogging     `mapstructure:"logging"`
}

func Load(path string) (*AppConfig, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*AppConfig, error) {
	// A missing .env file is fine, the environment may be set elsewhere
	_ = godotenv.Load()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c AppConfig

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	return &c, nil
}
