// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top,
// applies environment overrides and defaults, then validates.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known environment variables
// when the YAML left them blank.
func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		envs   []string
	}{
		{&cfg.APIs.LLM.APIKey, []string{"MISTRAL_API_KEY", "GEMINI_API_KEY", "LLM_API_KEY"}},
		{&cfg.APIs.ImageSearch.APIKey, []string{"BRAVE_API_KEY", "IMAGE_SEARCH_API_KEY"}},
		{&cfg.Database.Postgres.User, []string{"DB_USER"}},
		{&cfg.Database.Postgres.Password, []string{"DB_PASSWORD"}},
		{&cfg.Database.Redis.Password, []string{"REDIS_PASSWORD"}},
	}

	for _, o := range overrides {
		if *o.target != "" {
			continue
		}
		for _, env := range o.envs {
			if val := os.Getenv(env); val != "" {
				*o.target = val
				break
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "logo-workers"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.SelectionsIndex == "" {
		cfg.Database.Elasticsearch.SelectionsIndex = "reference-selections"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	llm := &cfg.APIs.LLM
	if llm.Provider == "" {
		llm.Provider = "mistral"
	}
	if llm.BaseURL == "" && llm.Provider == "mistral" {
		llm.BaseURL = "https://api.mistral.ai/v1/chat/completions"
	}
	if llm.Model == "" {
		if llm.Provider == "gemini" {
			llm.Model = "gemini-1.5-flash"
		} else {
			llm.Model = "mistral-large-latest"
		}
	}
	if llm.ChatTimeout == 0 {
		llm.ChatTimeout = 30000
	}
	if llm.ClassificationTimeout == 0 {
		llm.ClassificationTimeout = 10000
	}
	if llm.MaxRetries == 0 {
		llm.MaxRetries = 2
	}

	search := &cfg.APIs.ImageSearch
	if search.BaseURL == "" {
		search.BaseURL = "https://api.search.brave.com/res/v1"
	}
	if search.Timeout == 0 {
		search.Timeout = 15000
	}
	if search.MinIntervalMs == 0 {
		search.MinIntervalMs = 1100
	}
	if search.MaxResults == 0 {
		search.MaxResults = 5
	}
	if search.FetchTimeout == 0 {
		search.FetchTimeout = 15000
	}

	conv := &cfg.Conversation
	if conv.PendingStore == "" {
		conv.PendingStore = "memory"
	}
	if conv.HistoryWindow == 0 {
		conv.HistoryWindow = 10
	}
	if conv.SearchThreshold == 0 {
		conv.SearchThreshold = 0.75
	}
	if conv.GenerateThreshold == 0 {
		conv.GenerateThreshold = 0.8
	}

	if cfg.Quota.DailyLimit == 0 {
		cfg.Quota.DailyLimit = 5
	}

	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30000
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.Database.Elasticsearch.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	needsRedis := cfg.Conversation.PendingStore == "redis" || cfg.Quota.Enabled
	if needsRedis && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required for redis pending store or quota")
	}

	switch cfg.Conversation.PendingStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("conversation.pending_store must be memory or redis, got %q", cfg.Conversation.PendingStore)
	}

	switch cfg.APIs.LLM.Provider {
	case "mistral", "gemini":
	default:
		return fmt.Errorf("apis.llm.provider must be mistral or gemini, got %q", cfg.APIs.LLM.Provider)
	}

	if cfg.Conversation.SearchThreshold > 1 || cfg.Conversation.GenerateThreshold > 1 {
		return fmt.Errorf("conversation thresholds must be within [0,1]")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
