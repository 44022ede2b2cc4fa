package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the application's total configuration, loaded once at startup
// and shared as a *Config pointer through the dig container.
type Config struct {
	Server        *ServerConfig        `yaml:"server" json:"server"`
	Database      *DatabaseConfig      `yaml:"database" json:"database"`
	Redis         *RedisConfig         `yaml:"redis" json:"redis"`
	Tenant        *TenantConfig        `yaml:"tenant" json:"tenant"`
	Models        []ModelConfig        `yaml:"models" json:"models"`
	Cache         *CacheConfig         `yaml:"cache" json:"cache"`
	Search        *SearchConfig        `yaml:"search" json:"search"`
	Hierarchical  *HierarchicalConfig  `yaml:"hierarchical" json:"hierarchical"`
	Context       *ContextConfig       `yaml:"context" json:"context"`
	Graph         *GraphConfig         `yaml:"graph" json:"graph"`
	DeepReasoning *DeepReasoningConfig `yaml:"deep_reasoning" json:"deep_reasoning"`
	Judge         *JudgeConfig         `yaml:"judge" json:"judge"`
	Chat          *ChatConfig          `yaml:"chat" json:"chat"`
	Quota         *QuotaConfig         `yaml:"quota" json:"quota"`
	Asynq         *AsynqConfig         `yaml:"asynq" json:"asynq"`
	ObjectStorage *ObjectStorageConfig `yaml:"object_storage" json:"object_storage"`
	Retry         *RetryConfig         `yaml:"retry" json:"retry"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	LogPath         string        `yaml:"log_path" json:"log_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" default:"30s"`
}

// DatabaseConfig configures the postgres+pgvector connection.
type DatabaseConfig struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port"`
	User            string        `yaml:"user" json:"user"`
	Password        string        `yaml:"password" json:"password"`
	DBName          string        `yaml:"dbname" json:"dbname"`
	SSLMode         string        `yaml:"sslmode" json:"sslmode"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	VectorDimension int           `yaml:"vector_dimension" json:"vector_dimension"`
}

// RedisConfig configures the cache, quota counters and stream manager's
// Redis collaborator.
type RedisConfig struct {
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// TenantConfig holds tenant-facing defaults.
type TenantConfig struct {
	DefaultSessionTitle string `yaml:"default_session_title" json:"default_session_title"`
}

// ModelConfig describes one configured embedding/chat/rerank model.
type ModelConfig struct {
	ID         string                 `yaml:"id" json:"id"`
	Type       string                 `yaml:"type" json:"type"`
	Source     string                 `yaml:"source" json:"source"`
	ModelName  string                 `yaml:"model_name" json:"model_name"`
	BaseURL    string                 `yaml:"base_url" json:"base_url"`
	APIKey     string                 `yaml:"api_key" json:"api_key"`
	Dimensions int                    `yaml:"dimensions" json:"dimensions"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// CacheConfig configures the three cache keyspaces (§4.1).
type CacheConfig struct {
	Enabled          bool          `yaml:"enabled" json:"enabled"`
	EmbeddingTTL     time.Duration `yaml:"embedding_ttl" json:"embedding_ttl"`
	QueryReformTTL   time.Duration `yaml:"query_reform_ttl" json:"query_reform_ttl"`
	SearchTTL        time.Duration `yaml:"search_ttl" json:"search_ttl"`
}

// SearchConfig configures vector/keyword/hybrid search and RRF fusion
// (§4.4), including the score floors decided under Open Question (b).
type SearchConfig struct {
	RRFK                int     `yaml:"rrf_k" json:"rrf_k" default:"60"`
	VectorScoreFloor    float64 `yaml:"vector_score_floor" json:"vector_score_floor" default:"0.30"`
	KeywordScoreFloor   float64 `yaml:"keyword_score_floor" json:"keyword_score_floor" default:"0.01"`
	DefaultTopK         int     `yaml:"default_top_k" json:"default_top_k" default:"10"`
	GraphFusionScoreCap float64 `yaml:"graph_fusion_score_cap" json:"graph_fusion_score_cap" default:"0.70"`
}

// HierarchicalConfig configures the two-tier hierarchical search (§4.5).
type HierarchicalConfig struct {
	Enabled             bool    `yaml:"enabled" json:"enabled"`
	DocumentMultiplier  int     `yaml:"document_multiplier" json:"document_multiplier" default:"3"`
}

// ContextConfig configures the context expander's neighbor window (§4.8).
type ContextConfig struct {
	WindowBefore int `yaml:"window_before" json:"window_before" default:"1"`
	WindowAfter  int `yaml:"window_after" json:"window_after" default:"2"`
}

// GraphConfig configures the Graph Instance Manager (§4.6).
type GraphConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	WorkDir   string `yaml:"work_dir" json:"work_dir"`
	TopK      int    `yaml:"top_k" json:"top_k" default:"10"`
	RerankTopK int   `yaml:"rerank_top_k" json:"rerank_top_k" default:"5"`
}

// DeepReasoningConfig configures the Deep Reasoner (§4.9).
type DeepReasoningConfig struct {
	MaxSubQueries int `yaml:"max_sub_queries" json:"max_sub_queries" default:"3"`
	TopKPerSub    int `yaml:"top_k_per_sub" json:"top_k_per_sub" default:"5"`
}

// JudgeConfig configures Judge stage timeouts (§4.10).
type JudgeConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	PreAnalyzeTimeout time.Duration `yaml:"pre_analyze_timeout" json:"pre_analyze_timeout"`
	ValidateTimeout   time.Duration `yaml:"validate_timeout" json:"validate_timeout"`
	CorrectTimeout    time.Duration `yaml:"correct_timeout" json:"correct_timeout"`
}

// ChatConfig configures the Chat Orchestrator (§4.12).
type ChatConfig struct {
	HistoryLimit       int           `yaml:"history_limit" json:"history_limit" default:"10"`
	FollowUpLimit      int           `yaml:"follow_up_limit" json:"follow_up_limit" default:"3"`
	FollowUpTimeout    time.Duration `yaml:"follow_up_timeout" json:"follow_up_timeout"`
	PreviousContextMax int           `yaml:"previous_context_max" json:"previous_context_max" default:"4"`
	PreviousContextLen int           `yaml:"previous_context_len" json:"previous_context_len" default:"1000"`
}

// QuotaConfig configures the supplemented per-tenant quota checker.
type QuotaConfig struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	MaxRequestsPerDay int  `yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxTokensPerDay   int  `yaml:"max_tokens_per_day" json:"max_tokens_per_day"`
}

// AsynqConfig configures the periodic ingestion-status sweep worker.
type AsynqConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Username     string        `yaml:"username" json:"username"`
	Password     string        `yaml:"password" json:"password"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	SweepEvery   time.Duration `yaml:"sweep_every" json:"sweep_every"`
}

// ObjectStorageConfig configures the object storage collaborator (used only
// by ingestion, not by retrieval).
type ObjectStorageConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// RetryConfig configures exponential backoff for upstream collaborator
// calls (embedder, reranker, LLM, cache) per §7: bounded attempts, retry
// only on transient kinds.
type RetryConfig struct {
	MaxRetries      int           `yaml:"max_retries" json:"max_retries" default:"3"`
	InitialInterval time.Duration `yaml:"initial_interval" json:"initial_interval" default:"100ms"`
	MaxInterval     time.Duration `yaml:"max_interval" json:"max_interval" default:"10s"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time" json:"max_elapsed_time" default:"30s"`
}

// LoadConfig loads configuration from config.yaml (searched across the
// standard path set), substituting ${ENV_VAR} references in the raw file
// before parsing so deployment secrets never need to be checked in.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.ragserve")
	viper.AddConfigPath("/etc/ragserve/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	configFileContent, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("error reading config file content: %w", err)
	}

	re := regexp.MustCompile(`\${([^}]+)}`)
	result := re.ReplaceAllStringFunc(string(configFileContent), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})

	if err := viper.ReadConfig(strings.NewReader(result)); err != nil {
		return nil, fmt.Errorf("error re-reading substituted config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	fmt.Printf("Using configuration file: %s\n", viper.ConfigFileUsed())
	return &cfg, nil
}
