package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// NodeConfig holds all configuration for a SaveKit node
type NodeConfig struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Security SecurityConfig `yaml:"security" mapstructure:"security"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`

	// ConfigDir is the directory containing the config file (not saved to YAML)
	ConfigDir string `yaml:"-" mapstructure:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http" mapstructure:"http"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Host string `yaml:"host" mapstructure:"host"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type      string      `yaml:"type" mapstructure:"type"` // "file", "leveldb", "redis", "memory"
	Path      string      `yaml:"path" mapstructure:"path"`
	Extension string      `yaml:"extension" mapstructure:"extension"`
	Redis     RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings for the redis storage type
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
}

// PipelineConfig selects the serializer, the cipher chain and the schema version
type PipelineConfig struct {
	// Serializer is the payload and envelope encoding (json, yaml)
	Serializer string `yaml:"serializer" mapstructure:"serializer"`
	// SchemaVersion is the version stamped on every saved envelope
	SchemaVersion int `yaml:"schema_version" mapstructure:"schema_version"`
	// Ciphers are applied in order on save and in reverse order on load
	Ciphers []CipherConfig `yaml:"ciphers" mapstructure:"ciphers"`
}

// CipherConfig configures one link of the cipher chain
type CipherConfig struct {
	Type string `yaml:"type" mapstructure:"type"`
	// Key is the masking key for xor
	Key string `yaml:"key,omitempty" mapstructure:"key"`
	// Shift is the rotation distance for rotate
	Shift int `yaml:"shift,omitempty" mapstructure:"shift"`
	// Password feeds key derivation for aes-cbc, aes-gcm and chacha20
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	// PasswordEnv names an environment variable holding the password
	PasswordEnv string `yaml:"password_env,omitempty" mapstructure:"password_env"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	TLSEnabled bool       `yaml:"tls_enabled" mapstructure:"tls_enabled"`
	CertFile   string     `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile    string     `yaml:"key_file" mapstructure:"key_file"`
	APIAuth    AuthConfig `yaml:"api_auth" mapstructure:"api_auth"`
}

// AuthConfig holds API authentication configuration
type AuthConfig struct {
	// Enabled indicates if authentication is enabled
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// JWTSecret is the secret for JWT token validation
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	// JWTIssuer is the expected issuer for JWT tokens
	JWTIssuer string `yaml:"jwt_issuer,omitempty" mapstructure:"jwt_issuer"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level sets the minimum log level to output (debug, info, warn, error)
	Level string `yaml:"level" mapstructure:"level"`
	// Environment sets the log environment
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Output sets the log output destination (stdout, file path)
	Output string `yaml:"output" mapstructure:"output"`
}

var (
	storageTypes = []string{"file", "leveldb", "redis", "memory"}
	serializers  = []string{"json", "yaml"}
	cipherTypes  = []string{"identity", "rotate", "xor", "aes-cbc", "aes-gcm", "chacha20", "base64", "gzip"}
)

// Load loads configuration from file or environment variables
func Load(configFile string) (*NodeConfig, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	var configDir string
	// Read config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
		// Extract directory from config file path
		configDir = filepath.Dir(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		// Default to current directory
		configDir = "."
	}

	// Read environment variables
	v.SetEnvPrefix("SAVEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is okay, we'll use defaults and env vars
	}

	config := &NodeConfig{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Set the config directory
	config.ConfigDir = configDir

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Default returns a configuration populated with the same defaults Load applies
func Default() *NodeConfig {
	v := viper.New()
	setDefaults(v)
	config := &NodeConfig{}
	_ = v.Unmarshal(config)
	config.ConfigDir = "."
	return config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)

	// Storage defaults
	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.path", "./data/saves")
	v.SetDefault("storage.extension", ".sav")
	v.SetDefault("storage.redis.addr", "127.0.0.1:6379")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "savekit:")

	// Pipeline defaults
	v.SetDefault("pipeline.serializer", "json")
	v.SetDefault("pipeline.schema_version", 1)

	// Security defaults
	v.SetDefault("security.tls_enabled", false)
	v.SetDefault("security.cert_file", "")
	v.SetDefault("security.key_file", "")
	v.SetDefault("security.api_auth.enabled", false)
	v.SetDefault("security.api_auth.jwt_secret", "")
	v.SetDefault("security.api_auth.jwt_issuer", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.environment", "dev")
	v.SetDefault("logging.output", "stdout")
}

// validateConfig validates the configuration
func validateConfig(config *NodeConfig) error {
	if !slices.Contains(storageTypes, config.Storage.Type) {
		return fmt.Errorf("unsupported storage type: %s", config.Storage.Type)
	}
	if config.Storage.Type == "file" && config.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty for %s storage", config.Storage.Type)
	}
	if config.Storage.Type == "redis" && config.Storage.Redis.Addr == "" {
		return fmt.Errorf("redis address cannot be empty for redis storage")
	}

	if err := validatePipelineConfig(&config.Pipeline); err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	// Validate JWT authentication configuration if enabled
	if config.Security.APIAuth.Enabled {
		if config.Security.APIAuth.JWTSecret == "" {
			return fmt.Errorf("JWT secret cannot be empty when authentication is enabled")
		}
	}
	if config.Security.TLSEnabled && (config.Security.CertFile == "" || config.Security.KeyFile == "") {
		return fmt.Errorf("cert_file and key_file are required when TLS is enabled")
	}

	// Validate logging configuration
	if err := validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}

	return nil
}

// validatePipelineConfig validates serializer, schema version and cipher links
func validatePipelineConfig(config *PipelineConfig) error {
	if !slices.Contains(serializers, config.Serializer) {
		return fmt.Errorf("unsupported serializer: %s, must be one of: %v", config.Serializer, serializers)
	}
	if config.SchemaVersion < 0 {
		return fmt.Errorf("schema version must be non-negative, got %d", config.SchemaVersion)
	}
	for i, c := range config.Ciphers {
		if !slices.Contains(cipherTypes, c.Type) {
			return fmt.Errorf("cipher %d: unsupported type %q, must be one of: %v", i, c.Type, cipherTypes)
		}
		switch c.Type {
		case "xor":
			if c.Key == "" {
				return fmt.Errorf("cipher %d: xor requires a key", i)
			}
		case "rotate":
			if c.Shift == 0 {
				return fmt.Errorf("cipher %d: rotate requires a non-zero shift", i)
			}
		}
	}
	return nil
}

// validateLoggingConfig validates logging configuration
func validateLoggingConfig(config *LoggingConfig) error {
	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := slices.Contains(validLevels, config.Level)
	if !isValidLevel {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	// Validate log environment
	validEnvironments := []string{"dev", "pro"}
	isValidEnvironment := slices.Contains(validEnvironments, config.Environment)
	if !isValidEnvironment {
		return fmt.Errorf("invalid log environment: %s, must be one of: %v", config.Environment, validEnvironments)
	}
	return nil
}

// Validate checks a configuration built in code rather than by Load
func Validate(config *NodeConfig) error {
	return validateConfig(config)
}
