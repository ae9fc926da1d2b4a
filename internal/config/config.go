package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Directory DirectoryConfig
	AzureAd   AzureAdConfig
	Bot       BotConfig
	ApiKey    ApiKeyConfig
	Storage   StorageConfig
	Cache     CacheConfig
	Digest    DigestConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	// Driver selects the GORM driver: "postgres" or "sqlite"
	// sqlite is intended for local development only
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// DirectoryConfig holds configuration for the optional MS SQL org directory.
// The directory is read-only and used to enrich posts with the author's
// department; the app runs without it.
type DirectoryConfig struct {
	// Enabled controls whether the directory connection is attempted
	Enabled bool
	// URL is the connection URL in format host:port/database (from DIRECTORY-URL secret)
	URL string
	// User is the database username (from DIRECTORY-USERNAME secret)
	User string
	// Password is the database password (from DIRECTORY-PASSWORD secret)
	Password string
	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused (seconds)
	ConnMaxLifetime int
	// QueryTimeout is the default timeout for queries (seconds)
	QueryTimeout int
}

type AzureAdConfig struct {
	TenantId       string
	ClientId       string
	ClientSecret   string
	InstanceUrl    string
	RequiredScopes string
}

// BotConfig holds the Bot Framework app registration used both to
// authenticate the incoming webhook and to call the Bot Connector.
type BotConfig struct {
	AppId       string
	AppPassword string
	// TenantId restricts incoming activities to a single tenant when set
	TenantId string
	// MaxDeliveryAttempts bounds digest delivery retries per conversation
	MaxDeliveryAttempts int
	// RetryBackoff is the initial backoff between delivery attempts (seconds)
	RetryBackoff int
}

type ApiKeyConfig struct {
	SecretName string
	Value      string // Loaded from secrets or environment
}

// StorageConfig configures the digest archive sink
type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

// CacheConfig configures the Redis feed cache
type CacheConfig struct {
	// Enabled controls whether the feed cache is used at all
	Enabled  bool
	Addr     string
	Password string
	DB       int
	// FeedTTL is how long cached feed pages live (seconds)
	FeedTTL int
	// FeedPages is how many leading pages of the unfiltered feed are cached
	FeedPages int
}

// DigestConfig configures the digest notification job
type DigestConfig struct {
	// Enabled controls whether the digest scheduler is started
	Enabled bool
	// Cron is the wake expression; the job itself decides whether a weekly
	// or monthly run is due (default: daily at 10:00 UTC)
	Cron string
	// MaxPostsPerDigest caps the posts included in a single digest card
	MaxPostsPerDigest int
	// Timeout bounds a full digest batch run (seconds)
	Timeout int
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DirectoryConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (d *DirectoryConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// FeedTTLDuration returns feed cache TTL as duration
func (c *CacheConfig) FeedTTLDuration() time.Duration {
	return time.Duration(c.FeedTTL) * time.Second
}

// TimeoutDuration returns the digest batch timeout as duration
func (d *DigestConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

// RetryBackoffDuration returns the initial delivery backoff as duration
func (b *BotConfig) RetryBackoffDuration() time.Duration {
	return time.Duration(b.RetryBackoff) * time.Second
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load API key from environment if not in config
	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}

	// Load Azure AD config from environment if not in config
	if cfg.AzureAd.TenantId == "" {
		cfg.AzureAd.TenantId = v.GetString("AZURE_TENANT_ID")
	}
	if cfg.AzureAd.ClientId == "" {
		cfg.AzureAd.ClientId = v.GetString("AZURE_CLIENT_ID")
	}
	if cfg.AzureAd.ClientSecret == "" {
		cfg.AzureAd.ClientSecret = v.GetString("AZURE_CLIENT_SECRET")
	}
	if cfg.AzureAd.RequiredScopes == "" {
		cfg.AzureAd.RequiredScopes = v.GetString("AZURE_REQUIRED_SCOPES")
	}

	// Bot registration from environment if not in config
	if cfg.Bot.AppId == "" {
		cfg.Bot.AppId = v.GetString("BOT_APP_ID")
	}
	if cfg.Bot.AppPassword == "" {
		cfg.Bot.AppPassword = v.GetString("BOT_APP_PASSWORD")
	}
	if cfg.Bot.TenantId == "" {
		cfg.Bot.TenantId = cfg.AzureAd.TenantId
	}

	// Load Azure Key Vault name from environment if not in config
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	// Check for DIRECTORY_ENABLED env var override
	if v.GetBool("DIRECTORY_ENABLED") {
		cfg.Directory.Enabled = true
	}

	// NOTE: Directory credentials are ONLY loaded from Azure Key Vault
	// They are never loaded from environment variables for security reasons
	// See LoadWithSecrets() for credential loading

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source
// In development (or when secrets.source = "environment"), secrets come from env vars
// In staging/production (or when secrets.source = "vault"), secrets come from Azure Key Vault
//
// Key Vault is used when BOTH conditions are met:
// 1. USE_AZURE_KEY_VAULT environment variable is set to "true"
// 2. Environment is "staging" or "production"
//
// EXCEPTION: Directory credentials are ALWAYS loaded from Key Vault when
// DIRECTORY_ENABLED=true and AZURE_KEY_VAULT_NAME is configured.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	// Directory credentials are loaded from Key Vault regardless of environment
	// when the feature is enabled and Key Vault is configured
	if cfg.Directory.Enabled && cfg.Secrets.KeyVaultName != "" {
		if err := loadDirectorySecrets(ctx, cfg, logger); err != nil {
			logger.Warn("Failed to load directory secrets from Key Vault",
				zap.Error(err),
				zap.String("environment", cfg.App.Environment),
			)
			// Don't fail startup - the directory is optional
		}
	}

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for main secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for main secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault")

	// Database secrets from Key Vault
	// Host, User, Password come from vault; Port and Database name are environment-specific
	if host, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-HOST", "DATABASE_HOST"); err == nil && host != "" {
		cfg.Database.Host = host
	}
	if defaultDB := os.Getenv("DEFAULT_DATABASE"); defaultDB != "" {
		cfg.Database.Name = defaultDB
	}
	if user, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-USER", "DATABASE_USER"); err == nil && user != "" {
		cfg.Database.User = user
	}
	if password, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	// SSL mode from env var (Azure PostgreSQL requires "require")
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	// Azure AD secrets
	if tenantId, err := provider.GetSecretOrEnv(ctx, "azure-tenant-id", "AZURE_TENANT_ID"); err == nil && tenantId != "" {
		cfg.AzureAd.TenantId = tenantId
	}
	if clientId, err := provider.GetSecretOrEnv(ctx, "azure-client-id", "AZURE_CLIENT_ID"); err == nil && clientId != "" {
		cfg.AzureAd.ClientId = clientId
	}

	// Bot registration
	if botId, err := provider.GetSecretOrEnv(ctx, "bot-app-id", "BOT_APP_ID"); err == nil && botId != "" {
		cfg.Bot.AppId = botId
	}
	if botPassword, err := provider.GetSecretOrEnv(ctx, "bot-app-password", "BOT_APP_PASSWORD"); err == nil && botPassword != "" {
		cfg.Bot.AppPassword = botPassword
	}

	// API Key
	if apiKey, err := provider.GetSecretOrEnv(ctx, "admin-api-key", "ADMIN_API_KEY"); err == nil && apiKey != "" {
		cfg.ApiKey.Value = apiKey
	}

	// Storage connection string (for the cloud digest archive)
	if connStr, err := provider.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}

	// Redis password
	if redisPassword, err := provider.GetSecretOrEnv(ctx, "redis-password", "REDIS_PASSWORD"); err == nil && redisPassword != "" {
		cfg.Cache.Password = redisPassword
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// loadDirectorySecrets loads org directory credentials from Azure Key Vault
// This is called regardless of environment when DIRECTORY_ENABLED=true
func loadDirectorySecrets(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	logger.Info("Loading directory secrets from Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault provider for directory secrets: %w", err)
	}

	url, err := provider.GetSecret(ctx, "DIRECTORY-URL")
	if err != nil {
		return fmt.Errorf("failed to load DIRECTORY-URL: %w", err)
	}
	user, err := provider.GetSecret(ctx, "DIRECTORY-USERNAME")
	if err != nil {
		return fmt.Errorf("failed to load DIRECTORY-USERNAME: %w", err)
	}
	password, err := provider.GetSecret(ctx, "DIRECTORY-PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to load DIRECTORY-PASSWORD: %w", err)
	}

	cfg.Directory.URL = url
	cfg.Directory.User = user
	cfg.Directory.Password = password

	logger.Info("Directory secrets loaded from vault")
	return nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("App.Name", "sharenow-api")
	v.SetDefault("App.Environment", "development")
	v.SetDefault("App.Port", 8080)

	// Database
	v.SetDefault("Database.Driver", "postgres")
	v.SetDefault("Database.Host", "localhost")
	v.SetDefault("Database.Port", 5432)
	v.SetDefault("Database.Name", "sharenow")
	v.SetDefault("Database.User", "sharenow_user")
	v.SetDefault("Database.Password", "sharenow_password")
	v.SetDefault("Database.SSLMode", "disable")
	v.SetDefault("Database.SQLitePath", "sharenow.db")
	v.SetDefault("Database.MaxOpenConns", 25)
	v.SetDefault("Database.MaxIdleConns", 5)
	v.SetDefault("Database.ConnMaxLifetime", 300)

	// Directory (optional, off by default)
	v.SetDefault("Directory.Enabled", false)
	v.SetDefault("Directory.MaxOpenConns", 5)
	v.SetDefault("Directory.MaxIdleConns", 2)
	v.SetDefault("Directory.ConnMaxLifetime", 300)
	v.SetDefault("Directory.QueryTimeout", 30)

	// Azure AD
	v.SetDefault("AzureAd.InstanceUrl", "https://login.microsoftonline.com/")

	// Bot
	v.SetDefault("Bot.MaxDeliveryAttempts", 3)
	v.SetDefault("Bot.RetryBackoff", 1)

	// Storage (digest archive)
	v.SetDefault("Storage.Mode", "local")
	v.SetDefault("Storage.LocalBasePath", "./data/digests")
	v.SetDefault("Storage.CloudContainer", "digest-archive")

	// Cache
	v.SetDefault("Cache.Enabled", false)
	v.SetDefault("Cache.Addr", "localhost:6379")
	v.SetDefault("Cache.DB", 0)
	v.SetDefault("Cache.FeedTTL", 120)
	v.SetDefault("Cache.FeedPages", 3)

	// Digest
	v.SetDefault("Digest.Enabled", true)
	v.SetDefault("Digest.Cron", "0 0 10 * * *")
	v.SetDefault("Digest.MaxPostsPerDigest", 15)
	v.SetDefault("Digest.Timeout", 600)

	// Secrets
	v.SetDefault("Secrets.Source", "auto")
	v.SetDefault("Secrets.CacheEnabled", true)
	v.SetDefault("Secrets.CacheTTL", 300)

	// Logging
	v.SetDefault("Logging.Level", "info")
	v.SetDefault("Logging.Format", "console")

	// Server
	v.SetDefault("Server.ReadTimeout", 15)
	v.SetDefault("Server.WriteTimeout", 15)
	v.SetDefault("Server.RequestTimeout", 60)
	v.SetDefault("Server.EnableSwagger", true)

	// CORS
	v.SetDefault("CORS.AllowedOrigins", []string{"*"})
	v.SetDefault("CORS.AllowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("CORS.AllowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "x-api-key"})
	v.SetDefault("CORS.ExposedHeaders", []string{"Link"})
	v.SetDefault("CORS.AllowCredentials", true)
	v.SetDefault("CORS.MaxAge", 300)

	// Security headers
	v.SetDefault("Security.EnableHSTS", false)
	v.SetDefault("Security.HSTSMaxAge", 31536000)
	v.SetDefault("Security.HSTSIncludeSubdomains", true)
	v.SetDefault("Security.HSTSPreload", false)
	v.SetDefault("Security.FrameOptions", "DENY")
	v.SetDefault("Security.ContentTypeNosniff", true)
	v.SetDefault("Security.XSSProtection", "1; mode=block")
	v.SetDefault("Security.ReferrerPolicy", "strict-origin-when-cross-origin")

	// Rate limiting
	v.SetDefault("RateLimit.Enabled", true)
	v.SetDefault("RateLimit.RequestsPerMinute", 120)
	v.SetDefault("RateLimit.RequestsPerMinuteAuth", 600)
	v.SetDefault("RateLimit.WhitelistPaths", []string{"/health", "/health/db", "/health/ready"})
}
