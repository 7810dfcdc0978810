package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = 5000
	DefaultStorageDriver  = "file"
	DefaultStorageDir     = "database"
	DefaultBackupSchedule = "@every 6h"
	DefaultBackupPrefix   = "cyberguard"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Storage struct {
		Driver string `yaml:"driver"` // file | sqlite | mysql | postgres
		Dir    string `yaml:"dir"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	// Database dipakai untuk build DSN MySQL kalau storage.dsn kosong
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Admin struct {
		APIKeys []string `yaml:"apiKeys"`
	} `yaml:"admin"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Backup struct {
		Enabled    bool   `yaml:"enabled"`
		Schedule   string `yaml:"schedule"`
		Prefix     string `yaml:"prefix"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"backup"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load baca file config.yaml. A missing file yields defaults; PORT overrides server.port.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", p)
		}
		cfg.Server.Port = port
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultStorageDir
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = DefaultBackupSchedule
	}
	if c.Backup.Prefix == "" {
		c.Backup.Prefix = DefaultBackupPrefix
	}
}

// Validate checks fields that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file", "sqlite":
	case "mysql":
		if c.Storage.DSN == "" && c.Database.Host == "" {
			return errors.New("storage.driver mysql needs storage.dsn or database.host")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.driver postgres needs storage.dsn")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Backup.Enabled && (c.Backup.Endpoint == "" || c.Backup.BucketName == "") {
		return errors.New("backup.enabled needs backup.endpoint and backup.bucketName")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Storage.DSN != "" {
		return c.Storage.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}
