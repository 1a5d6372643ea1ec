package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Scrape    ScrapeConfig
	Lifecycle LifecycleConfig
	Embedding EmbeddingConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ScrapeConfig controls the scraping cycle: how much each cycle may
// collect, which sources participate, and what filters are forwarded to
// the scraper processes.
type ScrapeConfig struct {
	// GlobalTarget is the unique-job count at which a cycle stops early.
	// Zero means unlimited.
	GlobalTarget int
	// SourceTargets maps source slug to an advisory per-source target.
	// Zero or absent means unlimited for that source.
	SourceTargets map[string]int
	// DisabledSources lists source slugs excluded from every wave.
	DisabledSources []string
	Schedule        string
	RunOnStart      bool
	StatsCacheTTL   int // seconds

	// Filters forwarded to scraper processes. Empty means "source default".
	TargetCities []string
	CareerPaths  []string
	Industries   []string
	Roles        []string
}

type LifecycleConfig struct {
	FreshnessTTLDays int
	RetentionDays    int
	PurgeBatchSize   int
	Schedule         string
}

type EmbeddingConfig struct {
	RefreshCommand string
	Schedule       string
	TimeoutMinutes int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5433"),
			User:     getEnv("DB_USER", "jobradar"),
			Password: getEnv("DB_PASSWORD", "jobradar123"),
			DBName:   getEnv("DB_NAME", "jobradar_core"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Scrape: ScrapeConfig{
			GlobalTarget:    getEnvAsInt("SCRAPE_GLOBAL_TARGET", 0),
			SourceTargets:   getEnvAsIntMap("SCRAPE_SOURCE_TARGETS"),
			DisabledSources: getEnvAsList("SCRAPE_SOURCES_DISABLED"),
			Schedule:        getEnv("SCRAPE_SCHEDULE", "0 6,18 * * *"),
			RunOnStart:      getEnvAsBool("SCRAPE_RUN_ON_START", true),
			StatsCacheTTL:   getEnvAsInt("STATS_CACHE_TTL_SECONDS", 30),
			TargetCities:    getEnvAsList("TARGET_CITIES"),
			CareerPaths:     getEnvAsList("CAREER_PATHS"),
			Industries:      getEnvAsList("INDUSTRIES"),
			Roles:           getEnvAsList("ROLES"),
		},
		Lifecycle: LifecycleConfig{
			FreshnessTTLDays: getEnvAsInt("FRESHNESS_TTL_DAYS", 7),
			RetentionDays:    getEnvAsInt("RETENTION_DAYS", 2),
			PurgeBatchSize:   getEnvAsInt("PURGE_BATCH_SIZE", 200),
			Schedule:         getEnv("LIFECYCLE_SCHEDULE", "30 4 * * *"),
		},
		Embedding: EmbeddingConfig{
			RefreshCommand: getEnv("EMBEDDING_REFRESH_CMD", "python3 scripts/process_embedding_queue.py"),
			Schedule:       getEnv("EMBEDDING_REFRESH_SCHEDULE", "@every 30m"),
			TimeoutMinutes: getEnvAsInt("EMBEDDING_REFRESH_TIMEOUT_MINUTES", 30),
		},
	}
}

// SourceTimeoutSeconds returns the per-source timeout override, or def when
// no override is set. The env key is derived from the source slug, e.g.
// SCRAPE_TIMEOUT_LINKEDIN_SECONDS for source "linkedin".
func SourceTimeoutSeconds(sourceSlug string, def int) int {
	key := "SCRAPE_TIMEOUT_" + strings.ToUpper(strings.ReplaceAll(sourceSlug, "-", "_")) + "_SECONDS"
	return getEnvAsInt(key, def)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// getEnvAsIntMap parses "key1=10,key2=25" style env values. Malformed
// entries are skipped rather than failing the whole load.
func getEnvAsIntMap(key string) map[string]int {
	result := make(map[string]int)
	value := os.Getenv(key)
	if value == "" {
		return result
	}

	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if n, err := strconv.Atoi(parts[1]); err == nil {
			result[parts[0]] = n
		}
	}
	return result
}

func (c *Config) DatabaseURL() string {
	// If DATABASE_URL is set, use it directly
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return databaseURL
	}

	// Otherwise, construct from individual components
	return "postgres://" + c.Database.User + ":" + c.Database.Password +
		"@" + c.Database.Host + ":" + c.Database.Port +
		"/" + c.Database.DBName + "?sslmode=" + c.Database.SSLMode
}
