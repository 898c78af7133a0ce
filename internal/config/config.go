package config

import (
	"errors"
	"fmt"
	"log"
	"logistics-live-tracking/pkg/utils"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Telemetry TelemetryConfig
	Poller    PollerConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Depots    DepotsConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// TelemetryConfig describes the external vehicle-telemetry provider. The
// base URL points at the deployment's proxy endpoint, not the provider
// directly.
type TelemetryConfig struct {
	BaseURL           string
	Username          string
	Password          string
	OrganisationID    string
	RequestTimeoutSec int
}

type PollerConfig struct {
	IntervalSec     int
	TickTimeoutSec  int
	AverageSpeedKmh float64
}

type MQTTConfig struct {
	Enabled     bool
	Broker      string
	ClientID    string
	Username    string
	Password    string
	EventsTopic string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type DepotsConfig struct {
	File string
}

// DepotEntry is one row of the depot catalog file.
type DepotEntry struct {
	Name         string  `mapstructure:"name" validate:"required"`
	Latitude     float64 `mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `mapstructure:"longitude" validate:"gte=-180,lte=180"`
	RadiusMeters float64 `mapstructure:"radius_meters" validate:"gt=0"`
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	viper.SetDefault("POLL_INTERVAL_SECONDS", 30)
	viper.SetDefault("POLL_TICK_TIMEOUT_SECONDS", 12)
	viper.SetDefault("POLL_AVERAGE_SPEED_KMH", 60.0)
	viper.SetDefault("TELEMETRY_REQUEST_TIMEOUT_SECONDS", 15)
	viper.SetDefault("MQTT_EVENTS_TOPIC", "tracking/geofence-events")
	viper.SetDefault("DEPOTS_FILE", "depots.yaml")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Telemetry: TelemetryConfig{
			BaseURL:           viper.GetString("TELEMETRY_BASE_URL"),
			Username:          viper.GetString("TELEMETRY_USERNAME"),
			Password:          viper.GetString("TELEMETRY_PASSWORD"),
			OrganisationID:    viper.GetString("TELEMETRY_ORGANISATION_ID"),
			RequestTimeoutSec: viper.GetInt("TELEMETRY_REQUEST_TIMEOUT_SECONDS"),
		},
		Poller: PollerConfig{
			IntervalSec:     viper.GetInt("POLL_INTERVAL_SECONDS"),
			TickTimeoutSec:  viper.GetInt("POLL_TICK_TIMEOUT_SECONDS"),
			AverageSpeedKmh: viper.GetFloat64("POLL_AVERAGE_SPEED_KMH"),
		},
		MQTT: MQTTConfig{
			Enabled:     viper.GetBool("MQTT_ENABLED"),
			Broker:      viper.GetString("MQTT_BROKER"),
			ClientID:    viper.GetString("MQTT_CLIENT_ID"),
			Username:    viper.GetString("MQTT_USERNAME"),
			Password:    viper.GetString("MQTT_PASSWORD"),
			EventsTopic: viper.GetString("MQTT_EVENTS_TOPIC"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
		Depots: DepotsConfig{
			File: viper.GetString("DEPOTS_FILE"),
		},
	}

	return config, nil
}

// LoadDepots reads the static depot catalog file. The file is a yaml (or
// json) document with a top-level `depots` list.
func LoadDepots(path string) ([]DepotEntry, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read depot catalog %s: %w", path, err)
	}

	var entries []DepotEntry
	if err := v.UnmarshalKey("depots", &entries); err != nil {
		return nil, fmt.Errorf("failed to parse depot catalog %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("depot catalog %s contains no depots", path)
	}

	for i, entry := range entries {
		if err := utils.ValidateStruct(entry); err != nil {
			return nil, fmt.Errorf("depot catalog %s entry %d: %w", path, i, err)
		}
	}

	return entries, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
