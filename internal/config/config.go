package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Relay       RelayConfig       `mapstructure:"relay"`
	Log         LogConfig         `mapstructure:"log"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Kubernetes  KubernetesConfig  `mapstructure:"kubernetes"`
	Platform    PlatformConfig    `mapstructure:"platform"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Provisioner ProvisionerConfig `mapstructure:"provisioner"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Mode               string        `mapstructure:"mode"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	MaxRequestBodySize int           `mapstructure:"max_request_body_size"`
}

// RelayConfig configures the WebSocket relay listener.
type RelayConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	AddSource bool   `mapstructure:"add_source"`
}

// JWTConfig configures bearer token issuance and verification.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// DatabaseConfig configures the Postgres record store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// KubernetesConfig configures cluster control plane access.
type KubernetesConfig struct {
	// Kubeconfig is a path to a kubeconfig file. Empty means in-cluster.
	Kubeconfig string  `mapstructure:"kubeconfig"`
	QPS        float32 `mapstructure:"qps"`
	Burst      int     `mapstructure:"burst"`
}

// PlatformConfig holds cluster-wide platform settings shared by all agents.
type PlatformConfig struct {
	// Domain is the base domain for agent hostnames (agent-<slug>.<domain>).
	Domain string `mapstructure:"domain"`
	// Namespace is the platform's own namespace; agent network policies
	// admit ingress traffic only from here.
	Namespace string `mapstructure:"namespace"`
	// RuntimeImage is the agent runtime container image.
	RuntimeImage string `mapstructure:"runtime_image"`
	// RuntimePort is the port the agent runtime gateway listens on.
	RuntimePort int `mapstructure:"runtime_port"`
	// TLSSecretName is the shared wildcard certificate secret for routes.
	TLSSecretName string `mapstructure:"tls_secret_name"`
}

// ProvidersConfig holds the platform's pooled model provider credentials.
type ProvidersConfig struct {
	OpenRouterAPIKey string `mapstructure:"openrouter_api_key"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
}

// ProvisionerConfig tunes the provisioning state machine.
type ProvisionerConfig struct {
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Load reads configuration from the given file, with environment variable
// overrides under the AGENTFORGE_ prefix.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AGENTFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provisioner.ReadyTimeout == 0 {
		c.Provisioner.ReadyTimeout = 3 * time.Minute
	}
	if c.Provisioner.PollInterval == 0 {
		c.Provisioner.PollInterval = 2 * time.Second
	}
	if c.Relay.HandshakeTimeout == 0 {
		c.Relay.HandshakeTimeout = 10 * time.Second
	}
	if c.Platform.RuntimePort == 0 {
		c.Platform.RuntimePort = 4444
	}
	if c.Platform.TLSSecretName == "" {
		c.Platform.TLSSecretName = "wildcard-platform-tls"
	}
	if c.Kubernetes.QPS == 0 {
		c.Kubernetes.QPS = 50
	}
	if c.Kubernetes.Burst == 0 {
		c.Kubernetes.Burst = 100
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
}

// Validate checks the configuration for obvious misconfiguration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Relay.Port <= 0 || c.Relay.Port > 65535 {
		return fmt.Errorf("invalid relay port: %d", c.Relay.Port)
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server mode: %s, must be 'debug' or 'release'", c.Server.Mode)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 characters for security")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}

	if c.Platform.Domain == "" {
		return fmt.Errorf("platform.domain is required")
	}
	if c.Platform.Namespace == "" {
		return fmt.Errorf("platform.namespace is required")
	}
	if c.Platform.RuntimeImage == "" {
		return fmt.Errorf("platform.runtime_image is required")
	}

	return nil
}

// GetServerAddr returns the HTTP API listen address.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetRelayAddr returns the WebSocket relay listen address.
func (c *Config) GetRelayAddr() string {
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return c.Server.ReadTimeout
}

// GetWriteTimeout returns the HTTP write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return c.Server.WriteTimeout
}
