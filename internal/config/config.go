// Package config provides application configuration loaded from the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/diewo77/go-orders/internal/logger"
	"github.com/diewo77/go-orders/internal/mailer"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Log      logger.LogConfig
	SMTP     mailer.Config
	Billing  BillingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string { return ":" + s.Port }

// DatabaseConfig holds connection settings. URL wins over the discrete fields.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the connection string handed to db.Connect.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev            bool
	Migrations     bool
	Seed           bool
	DefaultProfile string
}

// BillingConfig seeds the settings table on first start.
type BillingConfig struct {
	RoundingIncrement string
	DefaultConditions string
	InvoiceFooter     string
}

// Load reads envFile (if present) into the process environment, then resolves
// every key from the environment with defaults for local development.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60)
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "orders")
	v.SetDefault("DB_PASSWORD", "orders")
	v.SetDefault("DB_NAME", "orders")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DEV", true)
	v.SetDefault("MIGRATIONS", false)
	v.SetDefault("SEED", true)
	v.SetDefault("DEFAULT_PROFILE", "admin")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_SQL", "silent")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "")
	v.SetDefault("ROUNDING_INCREMENT", "0.05")
	v.SetDefault("DEFAULT_CONDITIONS", "0:30")
	v.SetDefault("INVOICE_FOOTER", "")

	log := logger.DefaultConfig()
	log.Level = v.GetString("LOG_LEVEL")
	log.Format = v.GetString("LOG_FORMAT")
	log.Output = v.GetString("LOG_OUTPUT")
	log.SQL = v.GetString("LOG_SQL")

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			IdleTimeout:  time.Duration(v.GetInt("SERVER_IDLE_TIMEOUT")) * time.Second,
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_DSN"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			Dev:            v.GetBool("DEV"),
			Migrations:     v.GetBool("MIGRATIONS"),
			Seed:           v.GetBool("SEED"),
			DefaultProfile: v.GetString("DEFAULT_PROFILE"),
		},
		Log: log,
		SMTP: mailer.Config{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Billing: BillingConfig{
			RoundingIncrement: v.GetString("ROUNDING_INCREMENT"),
			DefaultConditions: v.GetString("DEFAULT_CONDITIONS"),
			InvoiceFooter:     v.GetString("INVOICE_FOOTER"),
		},
	}, nil
}
