package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	FrontendURL string         `mapstructure:"frontend_url"`
	Server      ServerConfig   `mapstructure:"server"`
	DB          DatabaseConfig `mapstructure:"db"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	SMTP        SMTPConfig     `mapstructure:"smtp"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Reminder    ReminderConfig `mapstructure:"reminder"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	CorsOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig keeps the DB_* variable names of the original env file.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Pass            string        `mapstructure:"pass"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Debug           bool          `mapstructure:"debug"`
}

type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	Expire      time.Duration `mapstructure:"expire"`
	AdminExpire time.Duration `mapstructure:"admin_expire"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ReminderConfig drives the reminder worker: every Interval it mails attendees
// of events starting within Window.
type ReminderConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Window   time.Duration `mapstructure:"window"`
}

// IsDevelopment reports whether internal error details may be returned to clients.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadEnv loads a .env file into the process environment if one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found, using system environment variables")
	}
}

// Load reads configuration from an optional YAML file, the environment and defaults.
func Load(file string) (Config, error) {
	LoadEnv()

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "error reading config file")
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unable to unmarshal config")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")
	v.SetDefault("frontend_url", "http://localhost:5173")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.pass", "")
	v.SetDefault("db.name", "eventhub")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.debug", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire", "168h")
	v.SetDefault("jwt.admin_expire", "24h")

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "EventHub <no-reply@eventhub.local>")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("reminder.interval", "1h")
	v.SetDefault("reminder.window", "24h")
}
