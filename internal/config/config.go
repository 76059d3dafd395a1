package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	RoleProvider = "provider"
	RoleClient   = "client"
)

// Config represents the complete configuration
type Config struct {
	Role     string         `toml:"role"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Storage  StorageConfig  `toml:"storage"`
	Provider ProviderConfig `toml:"provider"`
	Client   ClientConfig   `toml:"client"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

// RedisConfig contains cache settings. Namespace scopes every key so that
// catalogs sharing one redis do not see each other's entries; it defaults to
// the database host and name.
type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	Namespace string `toml:"namespace"`
}

// StorageConfig contains MinIO settings. PublicBaseURL, when set, is used to
// build stable asset URLs instead of the MinIO endpoint.
type StorageConfig struct {
	Endpoint      string `toml:"endpoint"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	UseSSL        bool   `toml:"use_ssl"`
	Bucket        string `toml:"bucket"`
	PublicBaseURL string `toml:"public_base_url"`
}

// ProviderConfig contains settings used when serving the catalog.
type ProviderConfig struct {
	RequiredCapability string `toml:"required_capability"`
}

// ClientConfig contains the remote endpoint and credentials used when
// pulling from a provider.
type ClientConfig struct {
	SourceAPIURL        string `toml:"source_api_url"`
	AppUsername         string `toml:"app_username"`
	AppPassword         string `toml:"app_password"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	SyncIntervalMinutes int    `toml:"sync_interval_minutes"`
	MaxImageBytes       int64  `toml:"max_image_bytes"`
}

// Timeout returns the per-request timeout for provider and image requests.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Configured reports whether a remote endpoint and credentials are present.
func (c ClientConfig) Configured() bool {
	return strings.TrimSpace(c.SourceAPIURL) != "" &&
		strings.TrimSpace(c.AppUsername) != "" &&
		c.AppPassword != ""
}

// AuthConfig contains admin JWT settings. JWKSURL takes precedence over JWTSecret.
type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	JWKSURL         string `toml:"jwks_url"`
	AdminCapability string `toml:"admin_capability"`
}

type LogConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	AddSource bool   `toml:"add_source"`
}

// Load reads an optional TOML file, then applies environment overrides and defaults.
func Load(filename string) (*Config, error) {
	cfg := &Config{}
	if filename != "" {
		if _, err := toml.DecodeFile(filename, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that must be present at startup.
func (c *Config) Validate() error {
	switch c.Role {
	case RoleProvider, RoleClient:
	default:
		return fmt.Errorf("unknown role=%q (expected provider|client)", c.Role)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("database url is required")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Role, "ROLE")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Redis.Namespace, "REDIS_NAMESPACE")
	setString(&cfg.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Storage.Bucket, "MINIO_BUCKET")
	setString(&cfg.Storage.PublicBaseURL, "STORAGE_PUBLIC_URL")
	setString(&cfg.Client.SourceAPIURL, "SOURCE_API_URL")
	setString(&cfg.Client.AppUsername, "SOURCE_APP_USERNAME")
	setString(&cfg.Client.AppPassword, "SOURCE_APP_PASSWORD")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.JWKSURL, "JWKS_URL")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	if v, ok := lookup("MINIO_USE_SSL"); ok {
		cfg.Storage.UseSSL = v == "true"
	}
	if err := setInt(&cfg.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&cfg.Client.SyncIntervalMinutes, "SYNC_INTERVAL_MINUTES"); err != nil {
		return err
	}
	return nil
}

func applyDefaults(cfg *Config) {
	cfg.Role = strings.ToLower(strings.TrimSpace(cfg.Role))
	if cfg.Role == "" {
		cfg.Role = RoleProvider
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.Namespace == "" {
		cfg.Redis.Namespace = databaseNamespace(cfg.Database.URL)
	}
	if cfg.Storage.Endpoint == "" {
		cfg.Storage.Endpoint = "localhost:9000"
	}
	if cfg.Storage.AccessKey == "" {
		cfg.Storage.AccessKey = "minioadmin" // Default for development
	}
	if cfg.Storage.SecretKey == "" {
		cfg.Storage.SecretKey = "minioadmin" // Default for development
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "catalog-assets"
	}
	if cfg.Provider.RequiredCapability == "" {
		cfg.Provider.RequiredCapability = "manage_catalog"
	}
	if cfg.Client.TimeoutSeconds <= 0 {
		cfg.Client.TimeoutSeconds = 30
	}
	if cfg.Client.SyncIntervalMinutes < 0 {
		cfg.Client.SyncIntervalMinutes = 0
	}
	if cfg.Client.MaxImageBytes <= 0 {
		cfg.Client.MaxImageBytes = 10 << 20
	}
	if cfg.Auth.AdminCapability == "" {
		cfg.Auth.AdminCapability = "manage_options"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid int for %s: %w", key, err)
	}
	*dst = n
	return nil
}

// databaseNamespace names the database a URL points at without its
// credentials, e.g. "db.internal:5432/catalog". Keyword/value DSNs fall back
// to a short hash.
func databaseNamespace(dbURL string) string {
	dbURL = strings.TrimSpace(dbURL)
	if dbURL == "" {
		return ""
	}
	if u, err := url.Parse(dbURL); err == nil && u.Host != "" {
		return u.Host + u.Path
	}
	sum := sha256.Sum256([]byte(dbURL))
	return hex.EncodeToString(sum[:6])
}
