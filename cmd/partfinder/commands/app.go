// ABOUTME: Loads configuration and opens the service for CLI commands
// ABOUTME: Thin layer over internal/bootstrap honoring the global CLI flags
package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/harper/partfinder/internal/bootstrap"
	"github.com/harper/partfinder/internal/config"
	"github.com/joho/godotenv"
)

// loadConfig reads .env and the environment
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && verbose {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openApp builds the full search pipeline
func openApp(ctx context.Context) (*bootstrap.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.Open(ctx, cfg)
}

// openStorageApp loads config without building the search pipeline
func openStorageApp() (*bootstrap.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg), nil
}
