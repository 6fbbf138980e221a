package config

import (
	"fmt"
	"os"

	"order-server/src/helpers"
	"order-server/src/models"
	"order-server/src/utils"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a Config from YAML bytes, applies defaults and validates it
func Parse(data []byte) (*Config, error) {
	// Intervals are seeded before decoding so an explicit 0 survives
	modelConfig := models.MConfig{Clients: clientDefaults()}
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a valid configuration for a single in-process simulation
func Default() *Config {
	c := &Config{MConfig: &models.MConfig{
		Name:     "order-server",
		LogLevel: "INFO",
		Host:     "127.0.0.1",
		Port:     8080,
		GrpcHost: "127.0.0.1",
		GrpcPort: 50051,
		Storage:  models.MStorageConfig{DBType: "none", DBPath: "orders.db"},
		Clients:  clientDefaults(),
	}}
	c.Clients.Count = 1
	c.ApplyDefaults()
	return c
}

// -----------------------------------------------------------------------------

func clientDefaults() models.MClientsConfig {
	return models.MClientsConfig{
		ThinkMinMs:    500,
		ThinkMaxMs:    1500,
		CooldownMinMs: 5000,
		CooldownMaxMs: 10000,
	}
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values with the built-in defaults.
// Client think and cooldown intervals are left alone, 0 is a valid bound.
func (c *Config) ApplyDefaults() {
	if c.Storage.DBType == "" {
		c.Storage.DBType = "none"
	}

	srv := &c.OrderServer
	if srv.HistoryCapacity == 0 {
		srv.HistoryCapacity = utils.DefaultHistoryCapacity
	}
	if srv.TickIntervalMs == 0 {
		srv.TickIntervalMs = int(utils.DefaultTickInterval.Milliseconds())
	}
	if srv.JournalBuffer == 0 {
		srv.JournalBuffer = utils.DefaultJournalBuffer
	}

	cl := &c.Clients
	if cl.SymbolLength == 0 {
		cl.SymbolLength = 12
	}
	if len(cl.Exchanges) == 0 {
		cl.Exchanges = []string{utils.DefaultExchange}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Ops HTTP and gRPC surfaces
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "none":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	// Order server
	if c.OrderServer.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be greater than 0")
	}
	if c.OrderServer.MaxClients < 0 {
		return fmt.Errorf("max clients cannot be negative")
	}
	if c.OrderServer.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be greater than 0")
	}
	if c.OrderServer.JournalBuffer <= 0 {
		return fmt.Errorf("journal buffer must be greater than 0")
	}

	// Clients
	cl := c.Clients
	if cl.Count < 0 {
		return fmt.Errorf("client count cannot be negative")
	}
	if cl.ThinkMinMs < 0 || cl.ThinkMaxMs < cl.ThinkMinMs {
		return fmt.Errorf("invalid think interval [%d, %d]", cl.ThinkMinMs, cl.ThinkMaxMs)
	}
	if cl.CooldownMinMs < 0 || cl.CooldownMaxMs < cl.CooldownMinMs {
		return fmt.Errorf("invalid cooldown interval [%d, %d]", cl.CooldownMinMs, cl.CooldownMaxMs)
	}
	if cl.SymbolLength <= 0 {
		return fmt.Errorf("symbol length must be greater than 0")
	}
	for i, mic := range cl.Exchanges {
		if mic == "" {
			return fmt.Errorf("exchange %d cannot be empty", i)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
