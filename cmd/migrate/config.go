package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

func loadEnvFiles() {
	// godotenv never overrides variables already set by the runtime.
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func databaseURL() (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "", errors.New("DATABASE_URL is required")
	}
	return dsn, nil
}
