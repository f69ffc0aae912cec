package config

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Security SecurityConfig
	Storage  StorageConfig
	Export   ExportConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CORSAllowOrigins []string
	// TrustedProxies may set X-Forwarded-For; without any the peer address is the client.
	TrustedProxies []*net.IPNet
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	PrivateKey           *rsa.PrivateKey
	PublicKey            *rsa.PublicKey
	Issuer               string
	Audience             string
}

// StorageConfig locates the blob store used for avatars.
type StorageConfig struct {
	Root           string
	PublicPath     string
	BaseURL        string
	MaxAvatarBytes int
}

type ExportConfig struct {
	MaxRows int
}

type LogConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	BCryptCost          int
	RateLimitPerSecond  int
	MaxFailedAttempts   int
	PasswordMinLength   int
	RequireUppercase    bool
	RequireLowercase    bool
	RequireNumbers      bool
	RequireSpecialChars bool
}

// Load reads the configuration from the process environment. Unset variables
// take their defaults; set but unparsable ones are reported together in the
// returned error.
func Load() (*Config, error) {
	return load(osEnv{})
}

func load(src lookuper) (*Config, error) {
	e := &envReader{src: src}

	cfg := &Config{
		Server: ServerConfig{
			Port:         e.str("SERVER_PORT", "8080"),
			Host:         e.str("SERVER_HOST", "localhost"),
			Environment:  e.str("APP_ENV", "development"),
			ReadTimeout:  e.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: e.duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:            e.str("DB_HOST", "localhost"),
			Port:            e.str("DB_PORT", "5432"),
			User:            e.str("DB_USER", "finance_user"),
			Password:        e.str("DB_PASSWORD", "finance_password"),
			Name:            e.str("DB_NAME", "finance_db"),
			SSLMode:         e.str("DB_SSL_MODE", "disable"),
			MaxConnections:  e.integer("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    e.integer("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Security: SecurityConfig{
			BCryptCost:          e.integer("BCRYPT_COST", 12),
			RateLimitPerSecond:  e.integer("RATE_LIMIT_PER_SECOND", 20),
			MaxFailedAttempts:   e.integer("MAX_FAILED_ATTEMPTS", 5),
			PasswordMinLength:   e.integer("PASSWORD_MIN_LENGTH", 8),
			RequireUppercase:    e.boolean("PASSWORD_REQUIRE_UPPERCASE", true),
			RequireLowercase:    e.boolean("PASSWORD_REQUIRE_LOWERCASE", true),
			RequireNumbers:      e.boolean("PASSWORD_REQUIRE_NUMBERS", true),
			RequireSpecialChars: e.boolean("PASSWORD_REQUIRE_SPECIAL", false),
		},
		Storage: StorageConfig{
			Root:           e.str("STORAGE_ROOT", "./storage"),
			PublicPath:     e.str("STORAGE_PUBLIC_PATH", "/storage"),
			BaseURL:        e.str("STORAGE_BASE_URL", ""),
			MaxAvatarBytes: e.integer("AVATAR_MAX_BYTES", 2<<20),
		},
		Export: ExportConfig{
			MaxRows: e.integer("EXPORT_MAX_ROWS", 50000),
		},
		Log: LogConfig{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", ""),
		},
		JWT: JWTConfig{
			AccessTokenDuration:  e.duration("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour),
			RefreshTokenDuration: e.duration("JWT_REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			Issuer:               e.str("JWT_ISSUER", "finance-tracker"),
			Audience:             e.str("JWT_AUDIENCE", "finance-tracker-api"),
		},
	}
	cfg.Server.CORSAllowOrigins = e.list("CORS_ALLOW_ORIGINS", []string{"*"})
	cfg.Server.TrustedProxies = e.cidrs("TRUSTED_PROXIES")

	if err := e.err(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	keys, err := loadKeyPair(src, cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("jwt keys: %w", err)
	}
	cfg.JWT.PrivateKey, cfg.JWT.PublicKey = keys.private, keys.public

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWT.AccessTokenDuration <= 0 || c.JWT.RefreshTokenDuration <= 0 {
		errs = append(errs, errors.New("token durations must be positive"))
	}
	if c.JWT.RefreshTokenDuration < c.JWT.AccessTokenDuration {
		errs = append(errs, errors.New("refresh token must outlive the access token"))
	}
	if c.Export.MaxRows <= 0 {
		errs = append(errs, errors.New("EXPORT_MAX_ROWS must be positive"))
	}
	if c.Storage.MaxAvatarBytes <= 0 {
		errs = append(errs, errors.New("AVATAR_MAX_BYTES must be positive"))
	}
	if !strings.HasPrefix(c.Storage.PublicPath, "/") {
		errs = append(errs, fmt.Errorf("STORAGE_PUBLIC_PATH %q must start with '/'", c.Storage.PublicPath))
	}
	if c.IsProduction() && len(c.Server.CORSAllowOrigins) == 1 && c.Server.CORSAllowOrigins[0] == "*" {
		slog.Warn("CORS_ALLOW_ORIGINS not set in production, allowing all origins")
	}
	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Address returns the host:port the HTTP server listens on.
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// SlogLevel maps LOG_LEVEL onto slog levels, defaulting to info.
func (c *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// UseJSON reports whether logs should be emitted as JSON. Production defaults to JSON.
func (c *Config) UseJSON() bool {
	switch strings.ToLower(c.Log.Format) {
	case "json":
		return true
	case "text":
		return false
	default:
		return c.IsProduction()
	}
}
