package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"

	LogBackendSlog = "slog"
	LogBackendZap  = "zap"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	WebRTC   WebRTCConfig   `yaml:"webrtc"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Sessions SessionsConfig `yaml:"sessions"`
	Relay    RelayConfig    `yaml:"relay"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers" env:"WEBRTC_STUN_SERVERS" env-default:""`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	Issuer    string        `yaml:"issuer" env:"AUTH_ISSUER" env-default:"codecollab"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h"`
}

type StorageConfig struct {
	Driver string      `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	DSN    string      `yaml:"dsn" env:"STORAGE_DSN"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"codecollab:"`
}

type SessionsConfig struct {
	SweepInterval          time.Duration `yaml:"sweep_interval" env:"SESSIONS_SWEEP_INTERVAL" env-default:"1h"`
	IdleTimeout            time.Duration `yaml:"idle_timeout" env:"SESSIONS_IDLE_TIMEOUT" env-default:"24h"`
	InactiveRetention      time.Duration `yaml:"inactive_retention" env:"SESSIONS_INACTIVE_RETENTION" env-default:"1h"`
	DefaultMaxParticipants int           `yaml:"default_max_participants" env:"SESSIONS_DEFAULT_MAX_PARTICIPANTS" env-default:"10"`
	MaxParticipantsLimit   int           `yaml:"max_participants_limit" env:"SESSIONS_MAX_PARTICIPANTS_LIMIT" env-default:"100"`
	ChatHistoryLimit       int           `yaml:"chat_history_limit" env:"SESSIONS_CHAT_HISTORY_LIMIT" env-default:"1000"`
	SignalRetention        time.Duration `yaml:"signal_retention" env:"SESSIONS_SIGNAL_RETENTION" env-default:"10m"`
	SignalLimit            int           `yaml:"signal_limit" env:"SESSIONS_SIGNAL_LIMIT" env-default:"256"`
	MaxDocumentBytes       int           `yaml:"max_document_bytes" env:"SESSIONS_MAX_DOCUMENT_BYTES" env-default:"1048576"`
}

type RelayConfig struct {
	Backlog int `yaml:"backlog" env:"RELAY_BACKLOG" env-default:"64"`
}

type LogConfig struct {
	Backend string `yaml:"backend" env:"LOG_BACKEND" env-default:"slog"`
}

// MustLoad reads the config from flagValue, CONFIG_PATH or config/local.yaml,
// in that order.
func MustLoad(flagValue string) *Config {
	configPath := fetchConfigPath(flagValue)
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func LoadPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func fetchConfigPath(flagValue string) string {
	res := flagValue

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Log.Backend == "" {
		c.Log.Backend = LogBackendSlog
	}
}

func (c *Config) validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageMemory, StorageRedis:
	case StorageSQLite, StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Log.Backend {
	case LogBackendSlog, LogBackendZap:
	default:
		errs = append(errs, fmt.Errorf("unknown log.backend %q", c.Log.Backend))
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"sessions.sweep_interval", c.Sessions.SweepInterval},
		{"sessions.idle_timeout", c.Sessions.IdleTimeout},
		{"sessions.inactive_retention", c.Sessions.InactiveRetention},
		{"sessions.signal_retention", c.Sessions.SignalRetention},
		{"http.shutdown_timeout", c.HTTP.ShutdownTimeout},
	}
	for _, field := range durations {
		if field.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", field.name))
		}
	}

	if c.Sessions.DefaultMaxParticipants < 1 {
		errs = append(errs, errors.New("sessions.default_max_participants must be at least 1"))
	}
	if c.Sessions.MaxParticipantsLimit < c.Sessions.DefaultMaxParticipants {
		errs = append(errs, errors.New("sessions.max_participants_limit is below the default"))
	}
	if c.Sessions.MaxDocumentBytes < 1 {
		errs = append(errs, errors.New("sessions.max_document_bytes must be positive"))
	}
	if c.Relay.Backlog < 2 {
		errs = append(errs, errors.New("relay.backlog must be at least 2"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	return errors.Join(errs...)
}
