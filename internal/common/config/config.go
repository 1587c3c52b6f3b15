package config

import (
	"os"
	"strconv"
	"strings"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  []string

	// Layout service
	LayoutDBPath       string
	CatalogPath        string
	CollapseScope      string
	PersistTimeoutSecs int

	// Gateway
	LayoutURL string
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		Environment:        getEnv("ENV", "development"),
		ReadTimeout:        getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:       getEnvAsInt("WRITE_TIMEOUT", 10),
		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"*"}),
		LayoutDBPath:       getEnv("LAYOUT_DB_PATH", "data/db/layout.db"),
		CatalogPath:        getEnv("CATALOG_PATH", ""),
		CollapseScope:      getEnv("COLLAPSE_SCOPE", "global"),
		PersistTimeoutSecs: getEnvAsInt("PERSIST_TIMEOUT", 5),
		LayoutURL:          getEnv("LAYOUT_URL", "http://localhost:3003"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
