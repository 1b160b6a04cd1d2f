package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Valkey     ValkeyConfig     `yaml:"valkey"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	ChangeFeed ChangeFeedConfig `yaml:"changeFeed"`
	Storage    StorageConfig    `yaml:"storage"`
	ImageGen   ImageGenConfig   `yaml:"imageGen"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Quote      QuoteConfig      `yaml:"quote"`
	Estimator  EstimatorConfig  `yaml:"estimator"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries. Only the listed POST paths are replayed.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Include     []string      `yaml:"include"`
}

// AuthConfig holds token signing and sign-in settings.
type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	TokenTTL        time.Duration `yaml:"tokenTtl"`
	RefreshTokenTTL time.Duration `yaml:"refreshTokenTtl"`
	AdminEmails     []string      `yaml:"adminEmails"`
	Google          GoogleConfig  `yaml:"google"`
}

// GoogleConfig holds OAuth client settings.
type GoogleConfig struct {
	ClientID           string `yaml:"clientId"`
	ClientSecret       string `yaml:"clientSecret"`
	RedirectURL        string `yaml:"redirectUrl"`
	TokenEncryptionKey string `yaml:"tokenEncryptionKey"`
	// RetiredTokenEncryptionKeys keep previously sealed refresh tokens readable after a rotation.
	RetiredTokenEncryptionKeys []string `yaml:"retiredTokenEncryptionKeys"`
	PostLoginRedirectURL       string   `yaml:"postLoginRedirectUrl"`
}

// PostgresConfig contains DSN and pooling settings. An empty DSN selects memory repositories.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig points at a Valkey/Redis server.
type ValkeyConfig struct {
	Addr string `yaml:"addr"`
}

// KafkaConfig lists the brokers used by the Kafka change feed.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

// Change feed backends.
const (
	FeedMemory = "memory"
	FeedValkey = "valkey"
	FeedKafka  = "kafka"
)

// ChangeFeedConfig selects the change event backend.
type ChangeFeedConfig struct {
	Backend string `yaml:"backend"`
	Prefix  string `yaml:"prefix"`
}

// StorageConfig points at an S3-compatible bucket. An empty endpoint keeps blobs in memory.
type StorageConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"accessKey"`
	SecretKey     string        `yaml:"secretKey"`
	Bucket        string        `yaml:"bucket"`
	Region        string        `yaml:"region"`
	PublicBaseURL string        `yaml:"publicBaseUrl"`
	PresignTTL    time.Duration `yaml:"presignTtl"`
	MaxBillBytes  int64         `yaml:"maxBillBytes"`
}

// Image generation providers.
const (
	ImageProviderNone   = ""
	ImageProviderGemini = "gemini"
	ImageProviderOpenAI = "openai"
)

// ImageGenConfig selects the artwork provider.
type ImageGenConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseUrl"`
	Model    string `yaml:"model"`
}

// CatalogConfig holds product pricing heuristics.
type CatalogConfig struct {
	EMIDivisor   int64   `yaml:"emiDivisor"`
	SavingsRate  float64 `yaml:"savingsRate"`
	SeedOnEmpty  bool    `yaml:"seedOnEmpty"`
	ArtworkStyle string  `yaml:"artworkStyle"`
}

// QuoteConfig holds negotiation defaults.
type QuoteConfig struct {
	RevisionDiscount float64 `yaml:"revisionDiscount"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}

	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("AUTH_REFRESH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.RefreshTokenTTL = parsed
		}
	}
	if v := os.Getenv("AUTH_ADMIN_EMAILS"); v != "" {
		cfg.Auth.AdminEmails = splitList(v)
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Auth.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Auth.Google.ClientSecret = v
	}
	if v := os.Getenv("GOOGLE_REDIRECT_URL"); v != "" {
		cfg.Auth.Google.RedirectURL = v
	}
	if v := os.Getenv("GOOGLE_TOKEN_ENCRYPTION_KEY"); v != "" {
		cfg.Auth.Google.TokenEncryptionKey = v
	}
	if v := os.Getenv("GOOGLE_RETIRED_TOKEN_ENCRYPTION_KEYS"); v != "" {
		cfg.Auth.Google.RetiredTokenEncryptionKeys = splitList(v)
	}
	if v := os.Getenv("GOOGLE_POST_LOGIN_REDIRECT_URL"); v != "" {
		cfg.Auth.Google.PostLoginRedirectURL = v
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Valkey.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("CHANGE_FEED_BACKEND"); v != "" {
		cfg.ChangeFeed.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CHANGE_FEED_PREFIX"); v != "" {
		cfg.ChangeFeed.Prefix = v
	}

	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("STORAGE_PUBLIC_BASE_URL"); v != "" {
		cfg.Storage.PublicBaseURL = v
	}
	if v := os.Getenv("STORAGE_MAX_BILL_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.MaxBillBytes = parsed
		}
	}

	if v := os.Getenv("IMAGEGEN_PROVIDER"); v != "" {
		cfg.ImageGen.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("IMAGEGEN_API_KEY"); v != "" {
		cfg.ImageGen.APIKey = v
	}
	if v := os.Getenv("IMAGEGEN_BASE_URL"); v != "" {
		cfg.ImageGen.BaseURL = v
	}
	if v := os.Getenv("IMAGEGEN_MODEL"); v != "" {
		cfg.ImageGen.Model = v
	}

	if v := os.Getenv("CATALOG_SEED_ON_EMPTY"); v != "" {
		cfg.Catalog.SeedOnEmpty = parseBool(v)
	}
	if v := os.Getenv("QUOTE_REVISION_DISCOUNT"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Quote.RevisionDiscount = parsed
		}
	}
	if v := os.Getenv("ESTIMATOR_TUNABLES_FILE"); v != "" {
		cfg.Estimator.TunablesFile = v
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Include: []string{
					"/api/v1/estimator/load",
					"/api/v1/estimator/size",
					"/api/v1/estimator/quick",
					"/api/v1/estimator/installment",
				},
			},
		},
		Auth: AuthConfig{
			TokenTTL:        time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			MaxConns: 8,
		},
		ChangeFeed: ChangeFeedConfig{
			Backend: FeedMemory,
			Prefix:  "solar.changes",
		},
		Storage: StorageConfig{
			PresignTTL:   24 * time.Hour,
			MaxBillBytes: 10 << 20,
		},
		Catalog: CatalogConfig{
			EMIDivisor:   30,
			SavingsRate:  0.025,
			SeedOnEmpty:  true,
			ArtworkStyle: "photorealistic product shot, rooftop solar installation, daylight, no text",
		},
		Quote: QuoteConfig{
			RevisionDiscount: 0.95,
		},
		Estimator: DefaultEstimatorConfig(),
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("auth.secret cannot be empty")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("auth token ttls must be positive")
	}
	switch c.ChangeFeed.Backend {
	case FeedMemory:
	case FeedValkey:
		if strings.TrimSpace(c.Valkey.Addr) == "" {
			return errors.New("valkey.addr cannot be empty when changeFeed.backend is valkey")
		}
	case FeedKafka:
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers cannot be empty when changeFeed.backend is kafka")
		}
	default:
		return fmt.Errorf("changeFeed.backend %q is not one of memory, valkey, kafka", c.ChangeFeed.Backend)
	}
	if c.Storage.Endpoint != "" && strings.TrimSpace(c.Storage.Bucket) == "" {
		return errors.New("storage.bucket cannot be empty when storage.endpoint is set")
	}
	if c.Storage.MaxBillBytes <= 0 {
		return errors.New("storage.maxBillBytes must be positive")
	}
	switch c.ImageGen.Provider {
	case ImageProviderNone:
	case ImageProviderGemini, ImageProviderOpenAI:
		if strings.TrimSpace(c.ImageGen.APIKey) == "" {
			return fmt.Errorf("imageGen.apiKey cannot be empty for provider %s", c.ImageGen.Provider)
		}
	default:
		return fmt.Errorf("imageGen.provider %q is not one of gemini, openai", c.ImageGen.Provider)
	}
	if c.Catalog.EMIDivisor <= 0 {
		return errors.New("catalog.emiDivisor must be positive")
	}
	if c.Catalog.SavingsRate < 0 {
		return errors.New("catalog.savingsRate cannot be negative")
	}
	if c.Quote.RevisionDiscount <= 0 || c.Quote.RevisionDiscount > 1 {
		return errors.New("quote.revisionDiscount must be in (0, 1]")
	}
	if err := c.Estimator.Domain().Validate(); err != nil {
		return fmt.Errorf("estimator: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
