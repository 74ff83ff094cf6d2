package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ReminderConfig controls the reminder daemon.
type ReminderConfig struct {
	// IntervalSec is the scheduler tick period in seconds.
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`

	// Users lists the usernames the daemon evaluates. Empty means every
	// user in the directory.
	Users []string `mapstructure:"users" yaml:"users"`
}

// ConflictConfig selects the conflict rule.
type ConflictConfig struct {
	// Mode is "day" (same date) or "interval" (same date and overlapping times).
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// NotificationsConfig controls how reminders are delivered.
type NotificationsConfig struct {
	// Permission is "granted", "denied" or "prompt".
	Permission string `mapstructure:"permission" yaml:"permission"`

	// Channels names the dispatchers to fan out to: "terminal", "store",
	// "log" or "email".
	Channels []string `mapstructure:"channels" yaml:"channels"`

	Mail MailConfig `mapstructure:"mail" yaml:"mail"`
}

// MailConfig locates the IMAP account the "email" channel appends
// reminders to. The password lives in the keyring.
type MailConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	From     string `mapstructure:"from" yaml:"from"`

	// Domain turns usernames into recipient addresses.
	Domain string `mapstructure:"domain" yaml:"domain"`
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Reminder      ReminderConfig      `mapstructure:"reminder" yaml:"reminder"`
	Conflict      ConflictConfig      `mapstructure:"conflict" yaml:"conflict"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	API           APIConfig           `mapstructure:"api" yaml:"api"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
	Users         []User              `mapstructure:"users" yaml:"users"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskplanner/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskplanner", "config.yaml")
}

// DefaultDatabasePath returns ~/.local/share/taskplanner/tasks.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tasks.db"
	}
	return filepath.Join(home, ".local", "share", "taskplanner", "tasks.db")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{Path: DefaultDatabasePath()},
		Reminder: ReminderConfig{IntervalSec: 60},
		Conflict: ConflictConfig{Mode: "day"},
		Notifications: NotificationsConfig{
			Permission: "prompt",
			Channels:   []string{"terminal", "store"},
			Mail:       MailConfig{Port: "993", TLS: true, Mailbox: "INBOX"},
		},
		API:     APIConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Display: DisplayConfig{Theme: "default"},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("reminder.interval_sec", d.Reminder.IntervalSec)
	v.SetDefault("reminder.users", d.Reminder.Users)
	v.SetDefault("conflict.mode", d.Conflict.Mode)
	v.SetDefault("notifications.permission", d.Notifications.Permission)
	v.SetDefault("notifications.channels", d.Notifications.Channels)
	v.SetDefault("notifications.mail.host", d.Notifications.Mail.Host)
	v.SetDefault("notifications.mail.port", d.Notifications.Mail.Port)
	v.SetDefault("notifications.mail.username", d.Notifications.Mail.Username)
	v.SetDefault("notifications.mail.tls", d.Notifications.Mail.TLS)
	v.SetDefault("notifications.mail.mailbox", d.Notifications.Mail.Mailbox)
	v.SetDefault("notifications.mail.from", d.Notifications.Mail.From)
	v.SetDefault("notifications.mail.domain", d.Notifications.Mail.Domain)
	v.SetDefault("api.addr", d.API.Addr)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("display.theme", d.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults are used. TASKPLANNER_* environment
// variables override both (e.g. TASKPLANNER_API_ADDR).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskplanner")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Reminder.IntervalSec <= 0 {
		cfg.Reminder.IntervalSec = 60
	}
	for i := range cfg.Users {
		cfg.Users[i].Username = strings.ToLower(cfg.Users[i].Username)
		if cfg.Users[i].Role == "" {
			cfg.Users[i].Role = RoleUser
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("reminder", cfg.Reminder)
	v.Set("conflict", cfg.Conflict)
	v.Set("notifications", cfg.Notifications)
	v.Set("api", cfg.API)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)
	if len(cfg.Users) > 0 {
		v.Set("users", cfg.Users)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
