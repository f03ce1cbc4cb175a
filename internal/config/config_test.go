package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAPIConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Store:  StoreConfig{Driver: StoreDriverPostgres},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "jobs_db",
			Table:    "video_jobs",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			Exchange: ExchangeConfig{Name: "workflow_exchange"},
			Queue:    QueueConfig{Name: "workflow_start_queue"},
		},
		Identity: IdentityConfig{Endpoint: "http://localhost:9000", PoolID: "local-pool"},
		Workflow: WorkflowConfig{Driver: WorkflowDriverAMQP, DefinitionID: "video-pipeline"},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "localhost", cfg.Database.Host)
			assert.Equal(t, "jobs_db", cfg.Database.Database)
			assert.Equal(t, "video_jobs", cfg.Database.Table)
			assert.Equal(t, "workflow_exchange", cfg.RabbitMQ.Exchange.Name)
			assert.Equal(t, "video-pipeline", cfg.Workflow.DefinitionID)
			assert.Equal(t, "local-pool", cfg.Identity.PoolID)
			assert.Equal(t, 3*time.Second, cfg.Identity.Timeout)
			assert.Equal(t, "video-intake-api", cfg.App.Name)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("testdata/invalid_port.yaml")
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, WorkflowDriverAMQP, cfg.Workflow.Driver)
	assert.Equal(t, "default", cfg.Workflow.Queue)
	assert.Equal(t, 5*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, int64(1<<20), cfg.Intake.MaxBodyBytes)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvJobTableName, "prod_jobs")
	t.Setenv(EnvWorkflowDefinitionID, "video-pipeline-v2")
	t.Setenv(EnvIdentityPoolID, "eu-pool")

	cfg, err := Load("testdata/missing_collaborators.yaml")
	require.NoError(t, err)

	assert.Equal(t, "prod_jobs", cfg.Database.Table)
	assert.Equal(t, "video-pipeline-v2", cfg.Workflow.DefinitionID)
	assert.Equal(t, "eu-pool", cfg.Identity.PoolID)
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		errString string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "invalid server port - too low", mutate: func(c *Config) { c.Server.Port = 0 }, errString: "invalid server port"},
		{name: "invalid server port - too high", mutate: func(c *Config) { c.Server.Port = 70000 }, errString: "invalid server port"},
		{name: "missing table name", mutate: func(c *Config) { c.Database.Table = "" }, errString: "job table name is required"},
		{name: "missing workflow definition", mutate: func(c *Config) { c.Workflow.DefinitionID = "" }, errString: "workflow definition id is required"},
		{name: "missing identity pool", mutate: func(c *Config) { c.Identity.PoolID = "" }, errString: "identity pool id is required"},
		{name: "missing identity endpoint", mutate: func(c *Config) { c.Identity.Endpoint = "" }, errString: "identity endpoint is required"},
		{name: "empty database host", mutate: func(c *Config) { c.Database.Host = "" }, errString: "database host is required"},
		{name: "empty database name", mutate: func(c *Config) { c.Database.Database = "" }, errString: "database name is required"},
		{name: "memory store skips database", mutate: func(c *Config) {
			c.Store.Driver = StoreDriverMemory
			c.Database.Host = ""
		}},
		{name: "unknown store driver", mutate: func(c *Config) { c.Store.Driver = "dynamo" }, errString: "unknown store driver"},
		{name: "empty rabbitmq host", mutate: func(c *Config) { c.RabbitMQ.Host = "" }, errString: "rabbitmq host is required"},
		{name: "empty exchange name", mutate: func(c *Config) { c.RabbitMQ.Exchange.Name = "" }, errString: "rabbitmq exchange name is required"},
		{name: "empty queue name", mutate: func(c *Config) { c.RabbitMQ.Queue.Name = "" }, errString: "rabbitmq queue name is required"},
		{name: "routing key differs from definition", mutate: func(c *Config) { c.RabbitMQ.RoutingKey = "workflow.start" }, errString: "must match workflow definition id"},
		{name: "routing key equals definition", mutate: func(c *Config) { c.RabbitMQ.RoutingKey = "video-pipeline" }},
		{name: "asynq ignores routing key", mutate: func(c *Config) {
			c.Workflow.Driver = WorkflowDriverAsynq
			c.Redis.Addr = "localhost:6379"
			c.RabbitMQ.RoutingKey = "workflow.start"
		}},
		{name: "asynq needs redis", mutate: func(c *Config) { c.Workflow.Driver = WorkflowDriverAsynq }, errString: "redis addr is required"},
		{name: "asynq skips rabbitmq", mutate: func(c *Config) {
			c.Workflow.Driver = WorkflowDriverAsynq
			c.Redis.Addr = "localhost:6379"
			c.RabbitMQ = RabbitMQConfig{}
		}},
		{name: "unknown workflow driver", mutate: func(c *Config) { c.Workflow.Driver = "sfn" }, errString: "unknown workflow driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAPIConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAPIConfig()

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	valid := func() *Config {
		c := validAPIConfig()
		c.Worker = WorkerConfig{Concurrency: 4, EventTimeout: 10 * time.Second, ShutdownTimeout: 30 * time.Second}
		return c
	}

	require.NoError(t, valid().ValidateWorkerConfig())

	c := valid()
	c.Worker.Concurrency = 0
	assert.ErrorContains(t, c.ValidateWorkerConfig(), "worker concurrency")

	c = valid()
	c.Worker.EventTimeout = 0
	assert.ErrorContains(t, c.ValidateWorkerConfig(), "event_timeout")

	c = valid()
	c.RabbitMQ.Queue.Name = ""
	assert.ErrorContains(t, c.ValidateWorkerConfig(), "rabbitmq queue name is required")
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NoError(t, cfg.ValidateAPIConfig())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing collaborators", func(t *testing.T) {
		cfg, err := Load("testdata/missing_collaborators.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "job table name is required")
	})
}

func TestPortConstants(t *testing.T) {
	assert.Equal(t, 1, MinPort)
	assert.Equal(t, 65535, MaxPort)
}
