package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/Saecki/polaris/internal/dto"
)

var ErrMissingJWTSecret = errors.New("POLARIS_JWT_SECRET must be set")

type envConfig struct {
	Port         string
	DBPath       string
	JWTSecret    string
	CacheDir     string
	ConfigPath   string
	LastFMKey    string
	LastFMSecret string
}

// loadEnv reads process settings from the environment, after loading .env
// when one exists.
func loadEnv() (envConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	env := envConfig{
		Port:         getEnv("POLARIS_PORT", "5050"),
		DBPath:       getEnv("POLARIS_DB_PATH", "./polaris.db"),
		JWTSecret:    os.Getenv("POLARIS_JWT_SECRET"),
		CacheDir:     getEnv("POLARIS_CACHE_DIR", "./cache"),
		ConfigPath:   os.Getenv("POLARIS_CONFIG"),
		LastFMKey:    os.Getenv("POLARIS_LASTFM_API_KEY"),
		LastFMSecret: os.Getenv("POLARIS_LASTFM_API_SECRET"),
	}
	if env.JWTSecret == "" {
		return envConfig{}, ErrMissingJWTSecret
	}
	return env, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// readConfigFile decodes a TOML file shaped like the /api/config payload.
func readConfigFile(path string) (dto.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dto.Config{}, fmt.Errorf("read config file: %w", err)
	}
	var c dto.Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return dto.Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return c, nil
}
