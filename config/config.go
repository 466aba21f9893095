package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/crwatch/backend/internal/usecase"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	Matching  MatchingConfig  `mapstructure:"matching"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatasetConfig locates the dataset file and controls hot reload
type DatasetConfig struct {
	Path     string        `mapstructure:"path"`
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// MatchingConfig holds the matching engine options
type MatchingConfig struct {
	EnableSubdomainMatching            bool                `mapstructure:"enable_subdomain_matching"`
	EnableEcommerceFamilyAliasMatching bool                `mapstructure:"enable_ecommerce_family_alias_matching"`
	URLSeedLimit                       int                 `mapstructure:"url_seed_limit"`
	MetaSeedLimit                      int                 `mapstructure:"meta_seed_limit"`
	URLMatchPriority                   URLMatchPriority    `mapstructure:"url_match_priority"`
	PageContextWeights                 PageContextWeights  `mapstructure:"page_context_weights"`
	PageContextTypeBoosts              PageContextBoosts   `mapstructure:"page_context_type_boosts"`
	PageContextMinEntityNameLength     int                 `mapstructure:"page_context_min_entity_name_length"`
	MarketplaceBrandDenylist           []string            `mapstructure:"marketplace_brand_denylist"`
	EcommerceDomainFamilies            map[string][]string `mapstructure:"ecommerce_domain_families"`
	SpecificPathDomains                []string            `mapstructure:"specific_path_domains"`
	PublicSuffixDomainRoots            bool                `mapstructure:"public_suffix_domain_roots"`
}

// URLMatchPriority ranks URL match kinds
type URLMatchPriority struct {
	Exact     int `mapstructure:"exact"`
	Partial   int `mapstructure:"partial"`
	Subdomain int `mapstructure:"subdomain"`
}

// PageContextWeights weighs each page field when matching entry names
type PageContextWeights struct {
	Title         int `mapstructure:"title"`
	MetaTitle     int `mapstructure:"meta_title"`
	Description   int `mapstructure:"description"`
	OGTitle       int `mapstructure:"og_title"`
	OGDescription int `mapstructure:"og_description"`
}

// PageContextBoosts adds a per-type bonus to text match scores
type PageContextBoosts struct {
	Company     int `mapstructure:"company"`
	ProductLine int `mapstructure:"product_line"`
	Product     int `mapstructure:"product"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return load("")
}

// LoadFile loads configuration from an explicit file plus environment variables
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Set config name and paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/crwatch/")
	}

	// Environment variable settings
	v.SetEnvPrefix("CRW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory.
// A missing file is not an error and existing variables are never overridden.
func loadEnvFile() error {
	err := godotenv.Load(".env")
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	matching := usecase.DefaultMatchConfig()

	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	// Dataset defaults
	v.SetDefault("dataset.path", "assets/all_cargo_combined.json")
	v.SetDefault("dataset.watch", true)
	v.SetDefault("dataset.debounce", "500ms")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.burst", 20)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Matching defaults
	v.SetDefault("matching.enable_subdomain_matching", matching.EnableSubdomainMatching)
	v.SetDefault("matching.enable_ecommerce_family_alias_matching", matching.EnableEcommerceFamilyAliasMatching)
	v.SetDefault("matching.url_seed_limit", matching.URLSeedLimit)
	v.SetDefault("matching.meta_seed_limit", matching.MetaSeedLimit)
	v.SetDefault("matching.url_match_priority.exact", matching.URLMatchPriority.Exact)
	v.SetDefault("matching.url_match_priority.partial", matching.URLMatchPriority.Partial)
	v.SetDefault("matching.url_match_priority.subdomain", matching.URLMatchPriority.Subdomain)
	v.SetDefault("matching.page_context_weights.title", matching.PageContextWeights.Title)
	v.SetDefault("matching.page_context_weights.meta_title", matching.PageContextWeights.MetaTitle)
	v.SetDefault("matching.page_context_weights.description", matching.PageContextWeights.Description)
	v.SetDefault("matching.page_context_weights.og_title", matching.PageContextWeights.OGTitle)
	v.SetDefault("matching.page_context_weights.og_description", matching.PageContextWeights.OGDescription)
	v.SetDefault("matching.page_context_type_boosts.company", matching.PageContextTypeBoosts.Company)
	v.SetDefault("matching.page_context_type_boosts.product_line", matching.PageContextTypeBoosts.ProductLine)
	v.SetDefault("matching.page_context_type_boosts.product", matching.PageContextTypeBoosts.Product)
	v.SetDefault("matching.page_context_min_entity_name_length", matching.PageContextMinEntityNameLength)
	v.SetDefault("matching.marketplace_brand_denylist", matching.MarketplaceBrandDenylist)
	v.SetDefault("matching.specific_path_domains", matching.SpecificPathDomains)
	v.SetDefault("matching.public_suffix_domain_roots", matching.PublicSuffixDomainRoots)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis' (set CRW_CACHE_REDIS_URL)")
	}

	if strings.TrimSpace(config.Dataset.Path) == "" {
		return fmt.Errorf("dataset path is required (set CRW_DATASET_PATH)")
	}

	if config.Matching.URLSeedLimit <= 0 || config.Matching.MetaSeedLimit <= 0 {
		return fmt.Errorf("matching seed limits must be positive, got url=%d meta=%d",
			config.Matching.URLSeedLimit, config.Matching.MetaSeedLimit)
	}

	if config.Matching.PageContextMinEntityNameLength < 0 {
		return fmt.Errorf("matching min entity name length must not be negative, got: %d",
			config.Matching.PageContextMinEntityNameLength)
	}

	switch strings.ToLower(config.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be 'console' or 'json', got: %s", config.Log.Format)
	}

	return nil
}

// MatchConfig converts the matching section into engine configuration
func (c *Config) MatchConfig() usecase.MatchConfig {
	m := c.Matching

	var families map[string]string
	if len(m.EcommerceDomainFamilies) > 0 {
		families = make(map[string]string)
		for family, domains := range m.EcommerceDomainFamilies {
			for _, domain := range domains {
				families[domain] = family
			}
		}
	}

	return usecase.MatchConfig{
		EnableSubdomainMatching:            m.EnableSubdomainMatching,
		EnableEcommerceFamilyAliasMatching: m.EnableEcommerceFamilyAliasMatching,
		URLSeedLimit:                       m.URLSeedLimit,
		MetaSeedLimit:                      m.MetaSeedLimit,
		URLMatchPriority: usecase.URLMatchPriority{
			Exact:     m.URLMatchPriority.Exact,
			Partial:   m.URLMatchPriority.Partial,
			Subdomain: m.URLMatchPriority.Subdomain,
		},
		PageContextWeights: usecase.PageContextWeights{
			Title:         m.PageContextWeights.Title,
			MetaTitle:     m.PageContextWeights.MetaTitle,
			Description:   m.PageContextWeights.Description,
			OGTitle:       m.PageContextWeights.OGTitle,
			OGDescription: m.PageContextWeights.OGDescription,
		},
		PageContextTypeBoosts: usecase.PageContextTypeBoosts{
			Company:     m.PageContextTypeBoosts.Company,
			ProductLine: m.PageContextTypeBoosts.ProductLine,
			Product:     m.PageContextTypeBoosts.Product,
		},
		PageContextMinEntityNameLength: m.PageContextMinEntityNameLength,
		MarketplaceBrandDenylist:       m.MarketplaceBrandDenylist,
		EcommerceDomainFamilyMap:       families,
		SpecificPathDomains:            m.SpecificPathDomains,
		PublicSuffixDomainRoots:        m.PublicSuffixDomainRoots,
	}
}
