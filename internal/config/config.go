package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/shortcode"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// PostgresMaxCodeLength is the width of the urls.short_code column.
const PostgresMaxCodeLength = 32

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env        string    `yaml:"env"`
	ShortCode  ShortCode `yaml:"short_code"`
	Storage    Storage   `yaml:"storage"`
	Redis      Redis     `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
}

type ShortCode struct {
	Length          int    `yaml:"length"`
	Alphabet        string `yaml:"alphabet"`
	MaxAttempts     int    `yaml:"max_attempts"`
	CustomMaxLength int    `yaml:"custom_max_length"`
}

var defaultShortCode = ShortCode{
	Length:          shortcode.DefaultLength,
	Alphabet:        shortcode.DefaultAlphabet,
	MaxAttempts:     10,
	CustomMaxLength: shortcode.DefaultCustomMaxLength,
}

type Storage struct {
	Backend string `yaml:"backend"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	MigrationsPath:  "file://migrations",
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Addr      string     `yaml:"addr"`
	Password  string     `yaml:"password"`
	DB        int        `yaml:"db"`
	PoolSize  int        `yaml:"pool_size"`
	KeyPrefix string     `yaml:"key_prefix"`
	Cache     RedisCache `yaml:"cache"`
}

// RedisCache configures the read-through cache in front of the store.
type RedisCache struct {
	Enabled bool          `yaml:"enabled"`
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
}

var defaultRedis = Redis{
	Addr:      "localhost:6379",
	PoolSize:  10,
	KeyPrefix: "shortlink:url",
	Cache: RedisCache{
		Prefix: "shortlink:cache",
		TTL:    time.Hour,
	},
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// Validate reports the first setting the application cannot start with.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("%w: unknown env %q", ErrInvalidConfig, c.Env)
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.ShortCode.Length < 1 {
		return fmt.Errorf("%w: short_code.length must be positive", ErrInvalidConfig)
	}
	if c.ShortCode.MaxAttempts < 1 {
		return fmt.Errorf("%w: short_code.max_attempts must be positive", ErrInvalidConfig)
	}
	if c.ShortCode.CustomMaxLength < 1 {
		return fmt.Errorf("%w: short_code.custom_max_length must be positive", ErrInvalidConfig)
	}
	if c.Storage.Backend == BackendPostgres {
		if c.ShortCode.Length > PostgresMaxCodeLength {
			return fmt.Errorf("%w: short_code.length must not exceed %d with the postgres backend",
				ErrInvalidConfig, PostgresMaxCodeLength)
		}
		if c.ShortCode.CustomMaxLength > PostgresMaxCodeLength {
			return fmt.Errorf("%w: short_code.custom_max_length must not exceed %d with the postgres backend",
				ErrInvalidConfig, PostgresMaxCodeLength)
		}
	}
	if c.Redis.Cache.Enabled && c.Redis.Cache.TTL <= 0 {
		return fmt.Errorf("%w: redis.cache.ttl must be positive", ErrInvalidConfig)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.ShortCode = defaultShortCode
	cfg.Storage = Storage{Backend: BackendMemory}
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
}
