package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	SQLitePath  string
	JWTSecret   []byte
	LogLevel    string

	KafkaAddress string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not found, using system environment")
	}

	return &Config{
		Port:         getenv("SERVER_PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   getenv("POS_DB_PATH", "pos.db"),
		JWTSecret:    []byte(must(os.Getenv("JWT_HS256_SECRET"), "JWT_HS256_SECRET")),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		KafkaAddress: os.Getenv("KAFKA_ADDRESS"),
		KafkaTopic:   getenv("KAFKA_TOPIC", "pos-events"),
		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
	}
}
