package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a vibe platform agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Vibe agent configuration. Empty SampleTopics means the agent's
	// default raw-activity subscription.
	SampleTopics       []string
	MaxSampleHistory   int
	UTCOffsetSeconds   int64
	RuleSetPath        string
	LabelExportEnabled bool

	// Learned model configuration. Empty ModelEndpoint disables the model;
	// the rule engine answers alone.
	ModelEndpoint   string
	ModelTimeoutSec int

	// Daylight context configuration (defaults are Helsinki)
	Latitude  float64
	Longitude float64
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:                 "localhost",
		MQTTPort:                   1883,
		MQTTUser:                   "",
		MQTTPassword:               "",
		MQTTClientID:               "",
		RedisHost:                  "localhost",
		RedisPort:                  6379,
		RedisPassword:              "",
		RedisDB:                    0,
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "vibe",
		PostgresPassword:           "",
		PostgresDB:                 "vibe",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 5,
		PostgresConnMaxLifetime:    30 * time.Minute,
		ServiceName:                "vibe-agent",
		HealthPort:                 8080,
		LogLevel:                   "info",
		MaxSampleHistory:           1000,
		UTCOffsetSeconds:           0,
		RuleSetPath:                "",
		LabelExportEnabled:         true,
		ModelEndpoint:              "",
		ModelTimeoutSec:            30,
		Latitude:                   60.1695,
		Longitude:                  24.9354,
	}
}

// LoadFromEnv loads configuration from environment variables with VIBE_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("VIBE_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("VIBE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("VIBE_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("VIBE_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("VIBE_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("VIBE_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("VIBE_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("VIBE_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("VIBE_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("VIBE_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("VIBE_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("VIBE_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("VIBE_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("VIBE_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("VIBE_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}

	// Service configuration
	if v := os.Getenv("VIBE_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("VIBE_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("VIBE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Vibe agent configuration
	if v := os.Getenv("VIBE_SAMPLE_TOPICS"); v != "" {
		c.SampleTopics = strings.Split(v, ",")
	}
	if v := os.Getenv("VIBE_MAX_SAMPLE_HISTORY"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.MaxSampleHistory = max
		}
	}
	if v := os.Getenv("VIBE_UTC_OFFSET_SECONDS"); v != "" {
		if offset, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.UTCOffsetSeconds = offset
		}
	}
	if v := os.Getenv("VIBE_RULE_SET_PATH"); v != "" {
		c.RuleSetPath = v
	}
	if v := os.Getenv("VIBE_LABEL_EXPORT"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.LabelExportEnabled = enabled
		}
	}

	// Learned model configuration
	if v := os.Getenv("VIBE_MODEL_ENDPOINT"); v != "" {
		c.ModelEndpoint = v
	}
	if v := os.Getenv("VIBE_MODEL_TIMEOUT_SEC"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			c.ModelTimeoutSec = timeout
		}
	}

	// Daylight context configuration
	if v := os.Getenv("VIBE_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("VIBE_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	// MQTT flags
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres username")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")

	// Service flags
	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Vibe agent flags
	pflag.StringSliceVar(&c.SampleTopics, "sample-topics", c.SampleTopics, "MQTT subscription patterns for activity samples")
	pflag.IntVar(&c.MaxSampleHistory, "max-sample-history", c.MaxSampleHistory, "Maximum activity sample history entries")
	pflag.Int64Var(&c.UTCOffsetSeconds, "utc-offset-seconds", c.UTCOffsetSeconds, "Fixed UTC offset for minute-of-day derivation")
	pflag.StringVar(&c.RuleSetPath, "rule-set-path", c.RuleSetPath, "Optional YAML rule set override file")
	pflag.BoolVar(&c.LabelExportEnabled, "label-export", c.LabelExportEnabled, "Export resolved vibes as training labels to Postgres")

	// Learned model flags
	pflag.StringVar(&c.ModelEndpoint, "model-endpoint", c.ModelEndpoint, "Learned model API endpoint URL")
	pflag.IntVar(&c.ModelTimeoutSec, "model-timeout", c.ModelTimeoutSec, "Learned model request timeout in seconds")

	// Daylight context flags
	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight context")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight context")

	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.UTCOffsetSeconds < -14*3600 || c.UTCOffsetSeconds > 14*3600 {
		return fmt.Errorf("UTC offset must be within +/-14 hours")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}
