package config

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	// HTTP Transport Connection Pool (outbound fetches)
	ProxyMaxIdleConns        int
	ProxyMaxIdleConnsPerHost int
	ProxyIdleConnTimeout     int // in seconds

	// Server
	ServerShutdownTimeoutSeconds int

	// CORS
	CORSAllowedOrigins string

	// Logging
	LogLevel  string
	LogFormat string

	// Factbook backend (RFP extraction)
	BackendURL string

	LinkMetadata *LinkMetadataConfig `yaml:"link_metadata"`
	Upload       *UploadConfig       `yaml:"upload"`
}

// LinkMetadataConfig holds settings of the link title resolver.
type LinkMetadataConfig struct {
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	MaxPageBytes    int64         `yaml:"max_page_bytes"`
	UserAgent       string        `yaml:"user_agent"`
	Extractor       string        `yaml:"extractor"` // "regex", "html" or "opengraph"
	SweepSchedule   string        `yaml:"sweep_schedule"`
}

// UploadConfig holds settings of the RFP upload relay.
type UploadConfig struct {
	MaxBytes          int64    `yaml:"max_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	ExtractorRegex     = "regex"
	ExtractorHTML      = "html"
	ExtractorOpenGraph = "opengraph"
)

var (
	AppConfig *Config

	DefaultCacheTTL          = time.Hour
	DefaultCacheMaxEntries   = 1000
	DefaultFetchTimeout      = 10 * time.Second
	DefaultMaxPageBytes      = int64(10 * 1024 * 1024)
	DefaultSweepSchedule     = "@every 10m"
	DefaultUploadMaxBytes    = int64(10 * 1024 * 1024)
	DefaultAllowedExtensions = []string{".pdf", ".pptx", ".docx", ".hwp"}
)

func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = FromEnv()

	// Settings from the config file take precedence over the environment for the
	// link_metadata and upload blocks.
	configFilePath := getEnvOrDefault("CONFIG_FILE", "config.yaml")
	configFile, err := os.Open(configFilePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("Config file %v not found, using environment only", configFilePath)
	case err != nil:
		log.Fatalf("Failed to open config file: %v", err)
	default:
		defer configFile.Close()
		log.Printf("Loading config file: %v", configFilePath)
		if err := LoadConfigFile(configFile, AppConfig); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}

	AppConfig.applyDefaults()

	switch AppConfig.LinkMetadata.Extractor {
	case ExtractorRegex, ExtractorHTML, ExtractorOpenGraph:
	default:
		log.Printf("Warning: unknown link metadata extractor %q, using %q", AppConfig.LinkMetadata.Extractor, ExtractorRegex)
		AppConfig.LinkMetadata.Extractor = ExtractorRegex
	}

	log.Println("Factbook backend URL: ", AppConfig.BackendURL)
}

// FromEnv builds a Config from environment variables only.
func FromEnv() *Config {
	return &Config{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),

		// HTTP Transport Connection Pool
		ProxyMaxIdleConns:        getEnvAsInt("PROXY_MAX_IDLE_CONNS", 100),
		ProxyMaxIdleConnsPerHost: getEnvAsInt("PROXY_MAX_IDLE_CONNS_PER_HOST", 50),
		ProxyIdleConnTimeout:     getEnvAsInt("PROXY_IDLE_CONN_TIMEOUT_SECONDS", 90),

		// Server
		ServerShutdownTimeoutSeconds: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 30),

		// CORS
		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		// Logging
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "debug"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),

		BackendURL: strings.TrimRight(getEnvOrDefault("BACKEND_URL", "http://localhost:8000"), "/"),

		LinkMetadata: &LinkMetadataConfig{
			CacheTTL:        getEnvAsDuration("LINK_METADATA_CACHE_TTL", DefaultCacheTTL),
			CacheMaxEntries: getEnvAsInt("LINK_METADATA_CACHE_MAX_ENTRIES", DefaultCacheMaxEntries),
			FetchTimeout:    getEnvAsDuration("LINK_METADATA_FETCH_TIMEOUT", DefaultFetchTimeout),
			MaxPageBytes:    getEnvAsInt64("LINK_METADATA_MAX_PAGE_BYTES", DefaultMaxPageBytes),
			UserAgent:       getEnvOrDefault("LINK_METADATA_USER_AGENT", DefaultUserAgent),
			Extractor:       getEnvOrDefault("LINK_METADATA_EXTRACTOR", ExtractorRegex),
			SweepSchedule:   getEnvOrDefault("LINK_METADATA_SWEEP_SCHEDULE", DefaultSweepSchedule),
		},

		Upload: &UploadConfig{
			MaxBytes:          getEnvAsInt64("UPLOAD_MAX_BYTES", DefaultUploadMaxBytes),
			AllowedExtensions: DefaultAllowedExtensions,
		},
	}
}

// applyDefaults fills zero values left behind by a partial config file.
func (c *Config) applyDefaults() {
	if c.LinkMetadata == nil {
		c.LinkMetadata = &LinkMetadataConfig{}
	}
	lm := c.LinkMetadata
	if lm.CacheTTL <= 0 {
		lm.CacheTTL = DefaultCacheTTL
	}
	if lm.CacheMaxEntries <= 0 {
		lm.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if lm.FetchTimeout <= 0 {
		lm.FetchTimeout = DefaultFetchTimeout
	}
	if lm.MaxPageBytes <= 0 {
		lm.MaxPageBytes = DefaultMaxPageBytes
	}
	if lm.UserAgent == "" {
		lm.UserAgent = DefaultUserAgent
	}
	if lm.Extractor == "" {
		lm.Extractor = ExtractorRegex
	}
	if lm.SweepSchedule == "" {
		lm.SweepSchedule = DefaultSweepSchedule
	}

	if c.Upload == nil {
		c.Upload = &UploadConfig{}
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = DefaultUploadMaxBytes
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = DefaultAllowedExtensions
	}
	c.Upload.AllowedExtensions = NormalizeExtensions(c.Upload.AllowedExtensions)
}

// NormalizeExtensions lowercases extensions and adds a missing leading dot,
// so ".PDF" and "pdf" both match files named "x.pdf".
func NormalizeExtensions(exts []string) []string {
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as time.Duration, using default %v: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int64, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

// LoadConfigFile overlays YAML settings from reader onto config and fills
// anything the file left empty with defaults.
func LoadConfigFile(reader io.Reader, config *Config) error {
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(config); err != nil {
		if errors.Is(err, io.EOF) {
			config.applyDefaults()
			return nil
		}
		return err
	}

	config.applyDefaults()
	return nil
}
