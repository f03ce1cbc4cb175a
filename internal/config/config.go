package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Environment variables that name the three collaborators. They win over the file.
const (
	EnvJobTableName         = "JOB_TABLE_NAME"
	EnvWorkflowDefinitionID = "WORKFLOW_DEFINITION_ID"
	EnvIdentityPoolID       = "IDENTITY_POOL_ID"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Workflow drivers
const (
	WorkflowDriverAMQP  = "amqp"
	WorkflowDriverAsynq = "asynq"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Identity  IdentityConfig  `yaml:"identity"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Intake    IntakeConfig    `yaml:"intake"`
	Logging   LoggingConfig   `yaml:"logging"`
	App       AppConfig       `yaml:"app"`
	Worker    WorkerConfig    `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the job record store
type StoreConfig struct {
	Driver       string `yaml:"driver"` // postgres (default) or memory
	EnsureSchema bool   `yaml:"ensure_schema"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	Tag           string `yaml:"tag"`
	PrefetchCount int    `yaml:"prefetch_count"`
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig holds the fixed-window limit for job submissions
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// IdentityConfig holds identity service settings
type IdentityConfig struct {
	Endpoint           string        `yaml:"endpoint"`
	PoolID             string        `yaml:"pool_id"`
	Timeout            time.Duration `yaml:"timeout"`
	FreshClientPerCall bool          `yaml:"fresh_client_per_call"`
}

// WorkflowConfig holds workflow engine settings
type WorkflowConfig struct {
	Driver       string        `yaml:"driver"` // amqp (default) or asynq
	DefinitionID string        `yaml:"definition_id"`
	Queue        string        `yaml:"queue"` // asynq queue
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetry     int           `yaml:"max_retry"`
}

// IntakeConfig holds request contract settings
type IntakeConfig struct {
	SchemaVersion string `yaml:"schema_version"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds status worker configuration
type WorkerConfig struct {
	Concurrency     int           `yaml:"concurrency"`
	EventTimeout    time.Duration `yaml:"event_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load reads and parses the configuration file, then applies environment overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv(os.LookupEnv)
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvJobTableName); ok && v != "" {
		c.Database.Table = v
	}
	if v, ok := lookup(EnvWorkflowDefinitionID); ok && v != "" {
		c.Workflow.DefinitionID = v
	}
	if v, ok := lookup(EnvIdentityPoolID); ok && v != "" {
		c.Identity.PoolID = v
	}
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = StoreDriverPostgres
	}
	if c.Workflow.Driver == "" {
		c.Workflow.Driver = WorkflowDriverAMQP
	}
	if c.Workflow.Queue == "" {
		c.Workflow.Queue = "default"
	}
	if c.Identity.Timeout <= 0 {
		c.Identity.Timeout = 5 * time.Second
	}
	if c.Intake.MaxBodyBytes <= 0 {
		c.Intake.MaxBodyBytes = 1 << 20
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
}

// ValidateAPIConfig checks the intake service configuration. Missing collaborator
// identifiers fail here so the process never starts half-configured.
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Database.Table == "" {
		return fmt.Errorf("job table name is required (set database.table or %s)", EnvJobTableName)
	}

	if c.Workflow.DefinitionID == "" {
		return fmt.Errorf("workflow definition id is required (set workflow.definition_id or %s)", EnvWorkflowDefinitionID)
	}

	if c.Identity.PoolID == "" {
		return fmt.Errorf("identity pool id is required (set identity.pool_id or %s)", EnvIdentityPoolID)
	}

	if c.Identity.Endpoint == "" {
		return fmt.Errorf("identity endpoint is required")
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	switch c.Workflow.Driver {
	case WorkflowDriverAMQP:
		if err := c.validateRabbitMQ(); err != nil {
			return err
		}
		// Start requests are published with the definition id as routing key.
		if c.RabbitMQ.RoutingKey != "" && c.RabbitMQ.RoutingKey != c.Workflow.DefinitionID {
			return fmt.Errorf("rabbitmq routing_key %q must match workflow definition id %q",
				c.RabbitMQ.RoutingKey, c.Workflow.DefinitionID)
		}
	case WorkflowDriverAsynq:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the asynq workflow driver")
		}
	default:
		return fmt.Errorf("unknown workflow driver: %q", c.Workflow.Driver)
	}

	if c.Redis.Addr != "" && c.RateLimit.Requests < 0 {
		return fmt.Errorf("rate_limit requests must not be negative")
	}

	return nil
}

// ValidateWorkerConfig checks the status worker configuration
func (c *Config) ValidateWorkerConfig() error {
	if c.Database.Table == "" {
		return fmt.Errorf("job table name is required (set database.table or %s)", EnvJobTableName)
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.EventTimeout <= 0 {
		return fmt.Errorf("worker event_timeout must be greater than 0")
	}

	if c.Worker.ShutdownTimeout <= 0 {
		return fmt.Errorf("worker shutdown_timeout must be greater than 0")
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreDriverMemory:
		return nil
	case StoreDriverPostgres:
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	return nil
}
