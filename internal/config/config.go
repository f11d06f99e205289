package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hadithconsole/internal/jobs"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultAdminPassword = "admin123"
	DefaultJWTSecret     = "fallback-secret"
)

type Config struct {
	App struct {
		Env string `mapstructure:"env" validate:"required"`
	} `mapstructure:"app"`
	Log struct {
		Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	} `mapstructure:"log"`
	Server struct {
		Port int `mapstructure:"port" validate:"min=1,max=65535"`
	} `mapstructure:"server"`
	Storage struct {
		Driver  string `mapstructure:"driver" validate:"oneof=json sqlite"`
		DataDir string `mapstructure:"data_dir" validate:"required"`
	} `mapstructure:"storage"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Cron struct {
		Timezone       string        `mapstructure:"timezone"`
		HadithSendTime string        `mapstructure:"hadith_send_time"`
		HadithTitle    string        `mapstructure:"hadith_title"`
		Secret         string        `mapstructure:"secret"`
		Interval       time.Duration `mapstructure:"interval"`
		BootDelay      time.Duration `mapstructure:"boot_delay" validate:"min=0"`
		Cooldown       time.Duration `mapstructure:"cooldown" validate:"gt=0"`
		ScheduledGrace time.Duration `mapstructure:"scheduled_grace" validate:"min=0"`
	} `mapstructure:"cron"`
	Auth struct {
		AdminPassword string `mapstructure:"admin_password" validate:"required"`
		JWTSecret     string `mapstructure:"jwt_secret" validate:"required"`
	} `mapstructure:"auth"`
	Delivery struct {
		Driver   string `mapstructure:"driver" validate:"oneof=fcm slack log"`
		Topic    string `mapstructure:"topic" validate:"required"`
		Firebase struct {
			CredentialsJSON string `mapstructure:"credentials_json"`
			CredentialsPath string `mapstructure:"credentials_path"`
		} `mapstructure:"firebase"`
		Slack struct {
			Token   string `mapstructure:"token"`
			Channel string `mapstructure:"channel"`
		} `mapstructure:"slack"`
	} `mapstructure:"delivery"`
	Alert struct {
		Email struct {
			SMTPHost    string   `mapstructure:"smtp_host"`
			SMTPPort    int      `mapstructure:"smtp_port"`
			From        string   `mapstructure:"from"`
			Password    string   `mapstructure:"password"`
			ToReceivers []string `mapstructure:"to_receivers"`
		} `mapstructure:"email"`
	} `mapstructure:"alert"`
}

var envBindings = map[string]string{
	"app.env":                            "APP_ENV",
	"log.level":                          "LOG_LEVEL",
	"server.port":                        "PORT",
	"storage.driver":                     "STORAGE_DRIVER",
	"storage.data_dir":                   "DATA_DIR",
	"database.path":                      "DATABASE_PATH",
	"cron.timezone":                      "CRON_TIMEZONE",
	"cron.hadith_send_time":              "HADITH_SEND_TIME",
	"cron.hadith_title":                  "HADITH_TITLE",
	"cron.secret":                        "CRON_SECRET",
	"cron.interval":                      "CRON_INTERVAL",
	"cron.boot_delay":                    "CRON_BOOT_DELAY",
	"cron.cooldown":                      "CRON_COOLDOWN",
	"cron.scheduled_grace":               "SCHEDULED_GRACE",
	"auth.admin_password":                "ADMIN_PASSWORD",
	"auth.jwt_secret":                    "JWT_SECRET",
	"delivery.driver":                    "DELIVERY_DRIVER",
	"delivery.topic":                     "FCM_TOPIC",
	"delivery.firebase.credentials_json": "FIREBASE_SERVICE_ACCOUNT_JSON",
	"delivery.firebase.credentials_path": "FIREBASE_SERVICE_ACCOUNT_PATH",
	"delivery.slack.token":               "SLACK_TOKEN",
	"delivery.slack.channel":             "SLACK_CHANNEL",
	"alert.email.smtp_host":              "SMTP_HOST",
	"alert.email.smtp_port":              "SMTP_PORT",
	"alert.email.from":                   "SMTP_FROM",
	"alert.email.password":               "SMTP_PASSWORD",
	"alert.email.to_receivers":           "ALERT_RECEIVERS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", EnvProduction)
	v.SetDefault("log.level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.driver", "json")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("database.path", "data/hadith-console.db")
	v.SetDefault("cron.timezone", jobs.DefaultTimezone)
	v.SetDefault("cron.hadith_send_time", jobs.DefaultHadithSendTime)
	v.SetDefault("cron.hadith_title", jobs.DefaultHadithTitle)
	v.SetDefault("cron.secret", "")
	v.SetDefault("cron.interval", jobs.MaxInterval)
	v.SetDefault("cron.boot_delay", jobs.DefaultBootDelay)
	v.SetDefault("cron.cooldown", jobs.DefaultCooldown)
	v.SetDefault("cron.scheduled_grace", time.Duration(0))
	v.SetDefault("auth.admin_password", DefaultAdminPassword)
	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("delivery.driver", "fcm")
	v.SetDefault("delivery.topic", "all")
	v.SetDefault("alert.email.smtp_port", 587)
}

// LoadConfig reads .env, then config.yaml from the working directory if
// present, then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return Load("")
}

// Load reads the given config file (or config.yaml in the working directory
// when path is empty) layered under environment variables. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Development reports whether the app runs in development mode.
func (c *Config) Development() bool {
	return c.App.Env == EnvDevelopment
}

// Normalize repairs values the app can run with and returns a warning for
// each one it changed or found unsafe.
func (c *Config) Normalize() []string {
	var warnings []string

	if c.Cron.Interval <= 0 || c.Cron.Interval > jobs.MaxInterval {
		warnings = append(warnings, fmt.Sprintf("cron.interval %s out of range, using %s", c.Cron.Interval, jobs.MaxInterval))
		c.Cron.Interval = jobs.MaxInterval
	}

	if _, err := jobs.ParseMinuteOfDay(c.Cron.HadithSendTime); err != nil {
		warnings = append(warnings, fmt.Sprintf("HADITH_SEND_TIME %q is not HH:MM, using %s", c.Cron.HadithSendTime, jobs.DefaultHadithSendTime))
		c.Cron.HadithSendTime = jobs.DefaultHadithSendTime
	}

	if c.Cron.Secret == "" {
		warnings = append(warnings, "CRON_SECRET is not set, external cron triggers will be rejected")
	}
	if !c.Development() {
		if c.Auth.JWTSecret == DefaultJWTSecret {
			warnings = append(warnings, "JWT_SECRET is using the built-in fallback")
		}
		if c.Auth.AdminPassword == DefaultAdminPassword {
			warnings = append(warnings, "ADMIN_PASSWORD is using the built-in default")
		}
	}
	return warnings
}
