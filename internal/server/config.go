package server

import (
	"log"
	"os"
)

// Config carries everything the server needs from the environment. Values
// come from the process environment; cmd/server loads a .env file first.
type Config struct {
	Addr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string
}

// LoadConfig reads the configuration from the environment, falling back to
// development defaults.
func LoadConfig() *Config {
	return &Config{
		Addr:       getEnv("ADDR", ":8000"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "redoubt"),
		DBPassword: getEnv("DB_PASSWORD", "redoubt"),
		DBName:     getEnv("DB_NAME", "redoubt"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret"),
	}
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = defaultValue
		log.Printf("environment variable %s not set, using default", key)
	}
	return value
}
