package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Server
	ServerPort string
	ServerEnv  string
	ServerHost string

	// Database
	DatabaseURL string

	// Marketplace search (MercadoLibre-style API)
	MarketBaseURL    string
	MarketSiteID     string
	MarketCategoryID string
	MarketPageSize   int

	// Comparables cache
	CacheTTLMinutes   int
	GeocodeTTLHours   int

	// Georef (datos.gob.ar) geocoding
	GeorefBaseURL  string
	GeocodeEnabled bool

	// SigNoz
	SigNozEndpoint string
}

func Load() *Config {
	return &Config{
		// Server
		ServerPort: getEnv("SERVER_PORT", "3000"),
		ServerEnv:  getEnv("SERVER_ENV", "development"),
		ServerHost: getEnv("SERVER_HOST", "localhost:3000"),

		// Database - DATABASE_URL wins, otherwise built from parts
		DatabaseURL: getDatabaseURL(),

		// Marketplace search
		MarketBaseURL:    getEnv("MARKET_API_BASE_URL", "https://api.mercadolibre.com"),
		MarketSiteID:     getEnv("MARKET_SITE_ID", "MLA"),
		MarketCategoryID: getEnv("MARKET_CATEGORY_ID", "MLA1496"),
		MarketPageSize:   getEnvAsInt("MARKET_PAGE_SIZE", 50),

		// Comparables cache
		CacheTTLMinutes: getEnvAsInt("CACHE_TTL_MINUTES", 60),
		GeocodeTTLHours: getEnvAsInt("GEOCODE_TTL_HOURS", 24),

		// Georef
		GeorefBaseURL:  getEnv("GEOREF_BASE_URL", "https://apis.datos.gob.ar/georef/api"),
		GeocodeEnabled: getEnvAsBool("GEOCODE_ENABLED", true),

		// SigNoz
		SigNozEndpoint: getEnv("SIGNOZ_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDatabaseURL returns DATABASE_URL or builds it from individual env vars
func getDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "")
	dbname := getEnv("POSTGRES_DB", "tasagro")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode)
}
