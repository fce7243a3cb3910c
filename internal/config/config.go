package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxPresignExpiry is the longest lifetime S3 accepts for a presigned URL.
const MaxPresignExpiry = 7 * 24 * time.Hour

// Common holds the settings shared by both services.
type Common struct {
	ServerPort      string
	LogLevel        string
	Debug           bool
	SentryDSN       string
	ShutdownTimeout time.Duration
}

// Addr returns the listen address for the HTTP server.
func (c Common) Addr() string {
	return ":" + c.ServerPort
}

// GatewayConfig configures the private storage gateway.
type GatewayConfig struct {
	Common
	MinioEndpoint          string
	MinioAccessKey         string
	MinioSecretKey         string
	MinioBucket            string
	MinioUseSSL            bool
	PresignExpiry          time.Duration
	RemoveBucketOnShutdown bool
}

// PostgresConfig holds the catalog database connection parameters.
type PostgresConfig struct {
	User         string
	Password     string
	Host         string
	Port         int
	Name         string
	SSLMode      string
	MaxOpenConns int
}

// DSN returns the connection URL for the configured database.
func (p PostgresConfig) DSN() string {
	return p.DSNFor(p.Name)
}

// DSNFor returns the connection URL for another database on the same server.
func (p PostgresConfig) DSNFor(dbName string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + strconv.Itoa(p.Port),
		Path:     "/" + dbName,
		RawQuery: url.Values{"sslmode": []string{p.SSLMode}}.Encode(),
	}
	return u.String()
}

// DSNMasked is DSN with the password hidden, for logging.
func (p PostgresConfig) DSNMasked() string {
	masked := p
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

// CatalogConfig configures the public meme catalog.
type CatalogConfig struct {
	Common
	Postgres             PostgresConfig
	PrivateAPI           string
	PrivateAPITimeout    time.Duration
	CORSAllowedOrigins   []string
	DropTablesOnShutdown bool
	MaxMultipartMemory   int64
}

func newViper(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG", false)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	if envFile == "" {
		return v, nil
	}

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read env file %s: %w", envFile, err)
	}
	return v, nil
}

func loadCommon(v *viper.Viper) Common {
	return Common{
		ServerPort:      v.GetString("SERVER_PORT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Debug:           v.GetBool("DEBUG"),
		SentryDSN:       v.GetString("SENTRY_DSN"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}

// LoadGateway reads the gateway configuration from the optional env file
// and the process environment. Environment variables win over the file.
func LoadGateway(envFile string) (*GatewayConfig, error) {
	v, err := newViper(envFile)
	if err != nil {
		return nil, err
	}

	v.SetDefault("SERVER_PORT", "8001")
	v.SetDefault("MINIO_URL", "localhost:9000")
	v.SetDefault("MINIO_ROOT_USER", "minioadmin")
	v.SetDefault("MINIO_ROOT_PASSWORD", "minioadmin")
	v.SetDefault("BUCKET_NAME", "memes")
	v.SetDefault("SECURE", false)
	v.SetDefault("PRESIGN_EXPIRY", MaxPresignExpiry.String())
	v.SetDefault("REMOVE_BUCKET_ON_SHUTDOWN", false)

	cfg := &GatewayConfig{
		Common:                 loadCommon(v),
		MinioEndpoint:          v.GetString("MINIO_URL"),
		MinioAccessKey:         v.GetString("MINIO_ROOT_USER"),
		MinioSecretKey:         v.GetString("MINIO_ROOT_PASSWORD"),
		MinioBucket:            v.GetString("BUCKET_NAME"),
		MinioUseSSL:            v.GetBool("SECURE"),
		PresignExpiry:          v.GetDuration("PRESIGN_EXPIRY"),
		RemoveBucketOnShutdown: v.GetBool("REMOVE_BUCKET_ON_SHUTDOWN"),
	}
	return cfg, cfg.Validate()
}

// Validate reports the first missing or out of range setting.
func (c *GatewayConfig) Validate() error {
	switch {
	case c.MinioEndpoint == "":
		return errors.New("MINIO_URL must be set")
	case c.MinioBucket == "":
		return errors.New("BUCKET_NAME must be set")
	case c.MinioAccessKey == "" || c.MinioSecretKey == "":
		return errors.New("MINIO_ROOT_USER and MINIO_ROOT_PASSWORD must be set")
	case c.PresignExpiry < time.Second || c.PresignExpiry > MaxPresignExpiry:
		return fmt.Errorf("PRESIGN_EXPIRY must be between 1s and %s, got %s", MaxPresignExpiry, c.PresignExpiry)
	}
	return nil
}

// LoadCatalog reads the catalog configuration from the optional env file
// and the process environment. Environment variables win over the file.
func LoadCatalog(envFile string) (*CatalogConfig, error) {
	v, err := newViper(envFile)
	if err != nil {
		return nil, err
	}

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_NAME", "memes")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("PRIVATE_API", "http://localhost:8001")
	v.SetDefault("PRIVATE_API_TIMEOUT", "30s")
	v.SetDefault("DROP_TABLES_ON_SHUTDOWN", false)
	v.SetDefault("MAX_MULTIPART_MEMORY", 32<<20)

	cfg := &CatalogConfig{
		Common: loadCommon(v),
		Postgres: PostgresConfig{
			User:         v.GetString("POSTGRES_USER"),
			Password:     v.GetString("POSTGRES_PASSWORD"),
			Host:         v.GetString("POSTGRES_HOST"),
			Port:         v.GetInt("POSTGRES_PORT"),
			Name:         v.GetString("POSTGRES_NAME"),
			SSLMode:      v.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		PrivateAPI:           strings.TrimRight(v.GetString("PRIVATE_API"), "/"),
		PrivateAPITimeout:    v.GetDuration("PRIVATE_API_TIMEOUT"),
		CORSAllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DropTablesOnShutdown: v.GetBool("DROP_TABLES_ON_SHUTDOWN"),
		MaxMultipartMemory:   v.GetInt64("MAX_MULTIPART_MEMORY"),
	}
	return cfg, cfg.Validate()
}

// Validate reports the first missing or out of range setting.
func (c *CatalogConfig) Validate() error {
	switch {
	case c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.Name == "":
		return errors.New("POSTGRES_HOST, POSTGRES_USER and POSTGRES_NAME must be set")
	case c.Postgres.Port <= 0:
		return fmt.Errorf("POSTGRES_PORT must be positive, got %d", c.Postgres.Port)
	case c.PrivateAPI == "":
		return errors.New("PRIVATE_API must be set")
	case c.PrivateAPITimeout <= 0:
		return errors.New("PRIVATE_API_TIMEOUT must be positive")
	}
	if _, err := url.ParseRequestURI(c.PrivateAPI); err != nil {
		return fmt.Errorf("PRIVATE_API is not a valid URL: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
