package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/takutakahashi/camnotify/pkg/logger"
	"github.com/takutakahashi/camnotify/pkg/schedule"
	"github.com/takutakahashi/camnotify/pkg/storage"
)

// EnvPrefix is prepended to every environment override, for example
// CAMNOTIFY_STORAGE_TYPE or CAMNOTIFY_NOTIFICATIONS_LIMIT
const EnvPrefix = "CAMNOTIFY"

// NotificationsConfig controls how notifications are built and retained
type NotificationsConfig struct {
	// Limit is the retention bound of the notifications collection
	Limit        int    `json:"limit" mapstructure:"limit"`
	DefaultRoom  string `json:"default_room" mapstructure:"default_room"`
	DefaultLabel string `json:"default_label" mapstructure:"default_label"`
	// Timezone renders the time field; empty means the host's local zone
	Timezone string `json:"timezone" mapstructure:"timezone"`
}

// TimerConfig controls notification expiry
type TimerConfig struct {
	// TTL is how long a notification lives after its timestamp; 0 disables expiry
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`
	// RetentionSweep is a cron expression for the periodic retention pass
	RetentionSweep string `json:"retention_sweep" mapstructure:"retention_sweep"`
	// Sync is a cron expression for picking up notifications other
	// processes created or removed; empty disables it
	Sync string `json:"sync" mapstructure:"sync"`
}

// WebPushConfig holds VAPID credentials and the subscriptions to notify
type WebPushConfig struct {
	Enabled         bool                  `json:"enabled" mapstructure:"enabled"`
	VAPIDPublicKey  string                `json:"vapid_public_key" mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string                `json:"vapid_private_key" mapstructure:"vapid_private_key"`
	ContactEmail    string                `json:"contact_email" mapstructure:"contact_email"`
	TTL             int                   `json:"ttl" mapstructure:"ttl"`
	Urgency         string                `json:"urgency" mapstructure:"urgency"`
	Subscriptions   []WebPushSubscription `json:"subscriptions" mapstructure:"subscriptions"`
}

// WebPushSubscription is a browser push subscription
type WebPushSubscription struct {
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	P256dh   string `json:"p256dh" mapstructure:"p256dh"`
	Auth     string `json:"auth" mapstructure:"auth"`
}

// SlackConfig holds the incoming webhook used for alerts
type SlackConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	WebhookURL string `json:"webhook_url" mapstructure:"webhook_url"`
	Channel    string `json:"channel" mapstructure:"channel"`
	Username   string `json:"username" mapstructure:"username"`
}

// RedisConfig holds the pub/sub channel alerts are published to
type RedisConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
	Channel  string `json:"channel" mapstructure:"channel"`
}

// AlertsConfig selects alert sinks
type AlertsConfig struct {
	Log       bool          `json:"log" mapstructure:"log"`
	QueueSize int           `json:"queue_size" mapstructure:"queue_size"`
	WebPush   WebPushConfig `json:"webpush" mapstructure:"webpush"`
	Slack     SlackConfig   `json:"slack" mapstructure:"slack"`
	Redis     RedisConfig   `json:"redis" mapstructure:"redis"`
}

// Config represents the service configuration
type Config struct {
	Storage       storage.StorageConfig `json:"storage" mapstructure:"storage"`
	Notifications NotificationsConfig   `json:"notifications" mapstructure:"notifications"`
	Timer         TimerConfig           `json:"timer" mapstructure:"timer"`
	Alerts        AlertsConfig          `json:"alerts" mapstructure:"alerts"`
	Log           logger.Config         `json:"log" mapstructure:"log"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.file_path", "./data/db.json")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.key", "camnotify/db.json")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.sqlite.dsn", "./data/camnotify.db")
	v.SetDefault("storage.mongo.uri", "")
	v.SetDefault("storage.mongo.database", "camnotify")
	v.SetDefault("storage.mongo.collection", "documents")
	v.SetDefault("storage.mongo.connect_timeout_seconds", 10)

	v.SetDefault("notifications.limit", 100)
	v.SetDefault("notifications.default_room", "Standard")
	v.SetDefault("notifications.default_label", "no label")
	v.SetDefault("notifications.timezone", "")

	v.SetDefault("timer.ttl", "0s")
	v.SetDefault("timer.retention_sweep", "@hourly")
	v.SetDefault("timer.sync", "@every 30s")

	v.SetDefault("alerts.log", true)
	v.SetDefault("alerts.queue_size", 64)
	v.SetDefault("alerts.webpush.enabled", false)
	v.SetDefault("alerts.webpush.vapid_public_key", "")
	v.SetDefault("alerts.webpush.vapid_private_key", "")
	v.SetDefault("alerts.webpush.contact_email", "")
	v.SetDefault("alerts.webpush.ttl", 86400)
	v.SetDefault("alerts.webpush.urgency", "normal")
	v.SetDefault("alerts.slack.enabled", false)
	v.SetDefault("alerts.slack.webhook_url", "")
	v.SetDefault("alerts.slack.channel", "")
	v.SetDefault("alerts.slack.username", "camnotify")
	v.SetDefault("alerts.redis.enabled", false)
	v.SetDefault("alerts.redis.addr", "localhost:6379")
	v.SetDefault("alerts.redis.password", "")
	v.SetDefault("alerts.redis.db", 0)
	v.SetDefault("alerts.redis.channel", "camnotify:alerts")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_age_days", 0)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
}

// LoadConfig reads configuration from filename (any format viper
// understands), applies environment overrides and defaults. An empty
// filename loads only defaults and environment.
func LoadConfig(v *viper.Viper, filename string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
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

// DefaultConfig returns the configuration with nothing but defaults applied
func DefaultConfig() *Config {
	cfg, err := LoadConfig(viper.New(), "")
	if err != nil {
		// Defaults always validate
		panic(err)
	}
	return cfg
}

// Validate checks values that cannot be fixed up silently
func (c *Config) Validate() error {
	var errs []error

	if c.Notifications.Limit <= 0 {
		errs = append(errs, fmt.Errorf("notifications.limit must be positive, got %d", c.Notifications.Limit))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Timer.TTL < 0 {
		errs = append(errs, fmt.Errorf("timer.ttl must not be negative, got %s", c.Timer.TTL))
	}
	if c.Timer.RetentionSweep != "" {
		if err := schedule.NewCronParser().Validate(c.Timer.RetentionSweep); err != nil {
			errs = append(errs, fmt.Errorf("timer.retention_sweep: %w", err))
		}
	}
	if c.Timer.Sync != "" {
		if err := schedule.NewCronParser().Validate(c.Timer.Sync); err != nil {
			errs = append(errs, fmt.Errorf("timer.sync: %w", err))
		}
	}

	switch c.Storage.Type {
	case "", "memory", "file", "s3", "sqlite", "mongo":
	default:
		errs = append(errs, fmt.Errorf("unknown storage type: %s", c.Storage.Type))
	}

	if c.Alerts.WebPush.Enabled && (c.Alerts.WebPush.VAPIDPublicKey == "" || c.Alerts.WebPush.VAPIDPrivateKey == "" || c.Alerts.WebPush.ContactEmail == "") {
		errs = append(errs, errors.New("alerts.webpush requires vapid_public_key, vapid_private_key and contact_email"))
	}
	if c.Alerts.Slack.Enabled && c.Alerts.Slack.WebhookURL == "" {
		errs = append(errs, errors.New("alerts.slack requires webhook_url"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Notifications.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Notifications.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	return loc, nil
}
