package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Portal   PortalConfig   `yaml:"portal"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                    string `yaml:"host"`
	Port                    int    `yaml:"port"`
	PackageChangedTopicName string `yaml:"package_changed_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type PortalConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	TrackingViewTTLSeconds int    `yaml:"tracking_view_ttl_seconds"`
	TrackingCodePrefix     string `yaml:"tracking_code_prefix"`
	TrackingCodeAttempts   int    `yaml:"tracking_code_attempts"`

	JWTSecret     string `yaml:"jwt_secret"`
	JWTTTLHours   int    `yaml:"jwt_ttl_hours"`
	SecureCookies bool   `yaml:"secure_cookies"`

	LoginRateLimitPerMinute int `yaml:"login_rate_limit_per_minute"`
	TrackRateLimitPerMinute int `yaml:"track_rate_limit_per_minute"`

	// TrustProxyHeaders makes rate limits key on X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	// Admin account created (or re-hashed) on startup when email and password are set.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
	AdminFullName string `yaml:"admin_full_name"`

	WorkerHTTPAddr string `yaml:"worker_http_addr"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.applyEnv()
	return &config, nil
}

// applyEnv lets secrets stay out of the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Portal.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Portal.AdminPassword = v
	}
}

// PostgresDSN returns an empty string when no database host is configured.
func (c *Config) PostgresDSN() string {
	if c.Database.Host == "" {
		return ""
	}
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.Username, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.DBName, sslMode)
}

func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) KafkaBrokers() []string {
	if c.Kafka.Host == "" {
		return nil
	}
	return []string{fmt.Sprintf("%s:%d", c.Kafka.Host, c.Kafka.Port)}
}

func (c *Config) PackageChangedTopic() string {
	if c.Kafka.PackageChangedTopicName == "" {
		return "package.changed"
	}
	return c.Kafka.PackageChangedTopicName
}
