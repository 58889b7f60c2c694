package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Package config provides configuration management for Courtside.

// Config struct to hold all configuration data
type Config struct {
	APIAddr           string        `json:"api_addr"`
	DataDir           string        `json:"data_dir"`
	FaceModelPath     string        `json:"face_model_path"`
	GeocoderURL       string        `json:"geocoder_url"`
	GeocoderRPS       float64       `json:"geocoder_rps"`
	GeocoderCacheSize int           `json:"geocoder_cache_size"`
	MaxUploadBytes    int64         `json:"max_upload_bytes"`
	SaveDebounce      time.Duration `json:"save_debounce"`
	UpdateCheck       bool          `json:"update_check"`
}

var (
	instance *Config
	once     sync.Once
)

// GetConfig returns the singleton instance of Config, loaded from the user's config file.
func GetConfig() *Config {
	once.Do(func() {
		cfg, err := Load(GetFilename())
		if err != nil {
			log.Printf("Error loading config, using defaults: %v", err)
			cfg = Default()
		}
		instance = cfg
	})
	return instance
}

// Default returns a Config populated with default values.
func Default() *Config {
	c := &Config{}
	c.setDefaultValues()
	return c
}

// GetPath returns the path to the user's app directory
func GetPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Error getting user home directory: %v", err)
	}
	return filepath.Join(homeDir, "."+strings.ToLower(AppName))
}

// GetFilename returns the path to the user's config file
func GetFilename() string {
	return filepath.Join(GetPath(), ConfigFileName)
}

// Load reads configuration from filename. Missing keys keep their defaults.
func Load(filename string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	c.fillZeroValues()
	return c, nil
}

// setDefaultValues sets default values for the configuration
func (c *Config) setDefaultValues() {
	c.APIAddr = DefaultAPIAddr
	c.DataDir = ""
	c.FaceModelPath = ""
	c.GeocoderURL = DefaultGeocoderURL
	c.GeocoderRPS = 1
	c.GeocoderCacheSize = 256
	c.MaxUploadBytes = MaxUploadBytes
	c.SaveDebounce = 2 * time.Second
	c.UpdateCheck = true
}

// fillZeroValues restores defaults for fields a config file explicitly zeroed.
func (c *Config) fillZeroValues() {
	d := Default()
	if c.APIAddr == "" {
		c.APIAddr = d.APIAddr
	}
	if c.GeocoderURL == "" {
		c.GeocoderURL = d.GeocoderURL
	}
	if c.GeocoderRPS <= 0 {
		c.GeocoderRPS = d.GeocoderRPS
	}
	if c.GeocoderCacheSize <= 0 {
		c.GeocoderCacheSize = d.GeocoderCacheSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.SaveDebounce < 0 {
		c.SaveDebounce = d.SaveDebounce
	}
}

// ResolveDataDir returns the configured data directory or the default under the app path.
func (c *Config) ResolveDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(GetPath(), DataSubDir)
}

// Save writes the configuration to filename, creating the directory if needed.
func (c *Config) Save(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ") // Use indentation for readability
	if err != nil {
		return fmt.Errorf("encoding config data: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
