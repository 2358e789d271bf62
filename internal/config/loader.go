package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envKeys lists every config key that can come from the environment, with
// the worker's historical variable names where they exist. The dotted form
// (SERVER_ADDRESS for server.address) is checked first.
var envKeys = map[string][]string{
	"app.name":                 nil,
	"app.environment":          {"APP_ENVIRONMENT"},
	"server.address":           nil,
	"server.upload_dir":        {"UPLOAD_DIR"},
	"server.max_upload_bytes":  nil,
	"server.shutdown_timeout":  nil,
	"genai.api_key":            {"GOOGLE_API_KEY"},
	"genai.model":              nil,
	"genai.agent_name":         nil,
	"genai.timeout":            nil,
	"database.url":             {"DB_URL"},
	"r2.account_id":            {"R2_ACCCOUNT_ID"},
	"r2.bucket":                {"R2_BUCKET"},
	"r2.access_key":            {"R2_ACCESS_KEY"},
	"r2.secret_key":            {"R2_SECRET_KEY"},
	"rabbitmq.url":             {"RABBITMQ_URL"},
	"rabbitmq.queue":           nil,
	"rabbitmq.update_exchange": nil,
	"rabbitmq.workers":         nil,
	"logging.level":            {"LOG_LEVEL"},
	"logging.format":           {"LOG_FORMAT"},
}

// Load reads .env, then config.yaml from ./configs or the working directory,
// then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return load(v)
}

// LoadFromFile reads configuration from an explicit yaml path.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, legacy := range envKeys {
		// AutomaticEnv alone only resolves keys viper already knows about.
		names := append([]string{key, envName(key)}, legacy...)
		if err := v.BindEnv(names...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "careerwise"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads"
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 10 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15000
	}

	if cfg.GenAI.Model == "" {
		cfg.GenAI.Model = "gemini-2.5-flash"
	}
	if cfg.GenAI.AgentName == "" {
		cfg.GenAI.AgentName = "career advisor"
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 120000
	}

	if cfg.RabbitMQ.Queue == "" {
		cfg.RabbitMQ.Queue = "resume_uploads"
	}
	if cfg.RabbitMQ.UpdateExchange == "" {
		cfg.RabbitMQ.UpdateExchange = "session_updates"
	}
	if cfg.RabbitMQ.Workers == 0 {
		cfg.RabbitMQ.Workers = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.GenAI.APIKey == "" {
		return fmt.Errorf("genai.api_key (GOOGLE_API_KEY) is required")
	}
	if cfg.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if cfg.RabbitMQ.Workers < 0 {
		return fmt.Errorf("rabbitmq.workers must be positive")
	}
	if cfg.RabbitMQ.URL != "" && !cfg.R2.Enabled() {
		return fmt.Errorf("rabbitmq.url is set but r2 account_id, bucket, access_key and secret_key are incomplete")
	}
	return nil
}
