// Package config provides configuration loading for the Caloric backend.
// Values come from defaults, an optional YAML file, and environment
// variables, in that order of precedence. Nothing in here is global: the
// loaded Config is passed explicitly into constructors.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backend configuration.
type Config struct {
	Port      string          `yaml:"port"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Estimator EstimatorConfig `yaml:"estimator"`
	S3        S3Config        `yaml:"s3"`
}

// DatabaseConfig configures the postgres connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN renders the gorm postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

// JWTConfig configures token signing.
type JWTConfig struct {
	// Secret signs HS256 tokens. Required.
	Secret string `yaml:"secret"`
	// TTL is the token lifetime.
	TTL time.Duration `yaml:"ttl"`
}

// EstimatorConfig configures the nutrition estimation gateway.
type EstimatorConfig struct {
	// Provider selects the model API wire format ("openai", "gemini").
	Provider string `yaml:"provider"`
	// BaseURL overrides the provider's default API base.
	BaseURL string `yaml:"base_url"`
	// Model is the multimodal model identifier.
	Model string `yaml:"model"`
	// APIKey is the model API credential. Estimation requests fail with a
	// configuration error when it is empty.
	APIKey string `yaml:"api_key"`
	// Temperature controls sampling randomness (0.0-1.0, default 0.2).
	Temperature float64 `yaml:"temperature"`
	// MaxTokens bounds the reply length.
	MaxTokens int `yaml:"max_tokens"`
	// Timeout bounds the upstream call.
	Timeout time.Duration `yaml:"timeout"`
	// Fallback is the synthetic item substituted when estimation fails.
	Fallback FallbackConfig `yaml:"fallback"`
}

// FallbackConfig holds the macro values of the synthetic fallback item.
type FallbackConfig struct {
	Calories    float64 `yaml:"calories"`
	Protein     float64 `yaml:"protein"`
	Carbs       float64 `yaml:"carbs"`
	Fat         float64 `yaml:"fat"`
	ServingSize string  `yaml:"serving_size"`
}

// S3Config configures meal photo storage. An empty bucket disables uploads.
type S3Config struct {
	Region string `yaml:"region"`
	Bucket string `yaml:"bucket"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Port: "8080",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		JWT: JWTConfig{
			TTL: 72 * time.Hour,
		},
		Estimator: EstimatorConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   1024,
			Timeout:     25 * time.Second,
			Fallback: FallbackConfig{
				Calories:    250,
				Protein:     10,
				Carbs:       30,
				Fat:         9,
				ServingSize: "1 serving",
			},
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CALORIC_CONFIG (if set), then environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine; containers set real env vars.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CALORIC_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays values from a YAML file onto the config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overlays environment variables onto the config. Only set
// variables override.
func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.JWT.Secret, "JWT_SECRET")
	if err := setDuration(&c.JWT.TTL, "JWT_TTL"); err != nil {
		return err
	}

	setString(&c.Estimator.Provider, "ESTIMATOR_PROVIDER")
	setString(&c.Estimator.BaseURL, "ESTIMATOR_BASE_URL")
	setString(&c.Estimator.Model, "ESTIMATOR_MODEL")
	setString(&c.Estimator.APIKey, "ESTIMATOR_API_KEY")
	if err := setFloat(&c.Estimator.Temperature, "ESTIMATOR_TEMPERATURE"); err != nil {
		return err
	}
	if err := setInt(&c.Estimator.MaxTokens, "ESTIMATOR_MAX_TOKENS"); err != nil {
		return err
	}
	if err := setDuration(&c.Estimator.Timeout, "ESTIMATOR_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.S3.Region, "AWS_REGION")
	setString(&c.S3.Bucket, "S3_BUCKET")

	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt.ttl must be positive")
	}
	if c.Estimator.Provider == "" {
		return fmt.Errorf("estimator.provider is required")
	}
	if c.Estimator.Model == "" {
		return fmt.Errorf("estimator.model is required")
	}
	if c.Estimator.Temperature < 0 || c.Estimator.Temperature > 1 {
		return fmt.Errorf("estimator.temperature must be between 0 and 1")
	}
	if c.Estimator.Timeout <= 0 {
		return fmt.Errorf("estimator.timeout must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = f
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
