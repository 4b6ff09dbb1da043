// ABOUTME: Centralized configuration for the partfinder search engine
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/harper/partfinder/internal/llm"
)

// Catalog sources
const (
	SourceSQLite = "sqlite"
	SourceCharm  = "charm"
)

// MaxTopK bounds how many ranked products a caller may request
const MaxTopK = 20

// Config holds all configuration for the search engine
type Config struct {
	// Catalog settings
	DBPath        string
	CatalogSource string
	LexiconPath   string

	// Charm settings
	CharmHost   string
	CharmDBName string
	AutoSync    bool

	// OpenAI settings
	OpenAIKey      string
	OpenAIBaseURL  string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Search settings
	VectorDimension int
	DefaultTopK     int
	UpsellCount     int
	UpsellMinRatio  float64
	UpsellMaxRatio  float64
}

// DefaultDBPath returns the XDG data path of the catalog database
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "partfinder", "products.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		DBPath:          getEnv("PARTFINDER_DB_PATH", DefaultDBPath()),
		CatalogSource:   strings.ToLower(getEnv("PARTFINDER_CATALOG_SOURCE", SourceSQLite)),
		LexiconPath:     os.Getenv("PARTFINDER_LEXICON_PATH"),
		CharmHost:       getEnv("CHARM_HOST", "cloud.charm.sh"),
		CharmDBName:     getEnv("CHARM_DB", "partfinder"),
		AutoSync:        getEnvBool("CHARM_AUTO_SYNC", false),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		ChatModel:       getEnv("PARTFINDER_CHAT_MODEL", llm.DefaultChatModel),
		EmbeddingModel:  getEnv("PARTFINDER_EMBEDDING_MODEL", llm.DefaultEmbeddingModel),
		Timeout:         getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:      getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:      getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		VectorDimension: getEnvInt("VECTOR_DIMENSION", 0),
		DefaultTopK:     getEnvInt("PARTFINDER_TOP_K", 5),
		UpsellCount:     getEnvInt("PARTFINDER_UPSELL_COUNT", 2),
		UpsellMinRatio:  getEnvFloat("PARTFINDER_UPSELL_MIN_RATIO", 0.5),
		UpsellMaxRatio:  getEnvFloat("PARTFINDER_UPSELL_MAX_RATIO", 1.5),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.CatalogSource != SourceSQLite && c.CatalogSource != SourceCharm {
		return fmt.Errorf("PARTFINDER_CATALOG_SOURCE must be %q or %q, got %q", SourceSQLite, SourceCharm, c.CatalogSource)
	}
	if c.VectorDimension < 0 {
		return fmt.Errorf("VECTOR_DIMENSION must be >= 0, got %d", c.VectorDimension)
	}
	if c.DefaultTopK < 1 || c.DefaultTopK > MaxTopK {
		return fmt.Errorf("PARTFINDER_TOP_K must be 1-%d, got %d", MaxTopK, c.DefaultTopK)
	}
	if c.UpsellCount < 0 {
		return fmt.Errorf("PARTFINDER_UPSELL_COUNT must be >= 0, got %d", c.UpsellCount)
	}
	if c.UpsellMinRatio <= 0 || c.UpsellMaxRatio < c.UpsellMinRatio {
		return fmt.Errorf("upsell price band must satisfy 0 < min <= max, got [%g, %g]", c.UpsellMinRatio, c.UpsellMaxRatio)
	}
	return nil
}

// OpenAIClientConfig converts the settings into an llm client configuration
func (c *Config) OpenAIClientConfig() *llm.ClientConfig {
	return &llm.ClientConfig{
		APIKey:              c.OpenAIKey,
		BaseURL:             c.OpenAIBaseURL,
		ChatModel:           c.ChatModel,
		EmbeddingModel:      c.EmbeddingModel,
		EmbeddingDimensions: c.VectorDimension,
		Timeout:             c.Timeout,
		MaxRetries:          c.MaxRetries,
		RetryDelay:          c.RetryDelay,
	}
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
