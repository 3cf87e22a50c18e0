package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the forsa chatbot API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Cache     CacheConfig     `yaml:"cache"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Router    RouterConfig    `yaml:"router"`
	Sparse    SparseConfig    `yaml:"sparse"`
	Fusion    FusionConfig    `yaml:"fusion"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds the embedding cache connection settings. Empty addrs
// disables the cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TTLHours         int      `yaml:"ttl_hours"` // 0 = no expiry
}

// CorpusConfig holds the document corpus location.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	BatchSize           int    `yaml:"batch_size"`
}

// RerankerConfig holds cross-encoder backend settings. An empty base_url
// disables the remote reranker and only the lexical fallback runs.
type RerankerConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// RouterConfig tunes the rule-routing layer. Zero values use the layer's
// compiled defaults.
type RouterConfig struct {
	HighScoreThreshold float64 `yaml:"high_score_threshold"`
	DominanceRatio     float64 `yaml:"dominance_ratio"`
	CandidatePool      int     `yaml:"candidate_pool"`
}

// SparseConfig tunes the BM25 layer. Zero values use the layer's compiled
// defaults.
type SparseConfig struct {
	K1               float64 `yaml:"k1"`
	B                float64 `yaml:"b"`
	KeywordBoost     int     `yaml:"keyword_boost"`
	HighScore        float64 `yaml:"high_score"`
	HighRatio        float64 `yaml:"high_ratio"`
	MediumScore      float64 `yaml:"medium_score"`
	MediumRatio      float64 `yaml:"medium_ratio"`
	SynonymsPerToken int     `yaml:"synonyms_per_token"`
}

// FusionConfig tunes the hybrid score boosts. Zero values use the layer's
// compiled defaults.
type FusionConfig struct {
	ExactNumericBoost     float64 `yaml:"exact_numeric_boost"`
	ToleranceNumericBoost float64 `yaml:"tolerance_numeric_boost"`
	PriceToleranceDA      int     `yaml:"price_tolerance_da"`
	SpeedTolerance        float64 `yaml:"speed_tolerance"`
	FreeBoost             float64 `yaml:"free_boost"`
}

// PipelineConfig holds retrieval pipeline thresholds.
type PipelineConfig struct {
	TopK              int     `yaml:"top_k"`
	SparseTopK        int     `yaml:"sparse_top_k"`
	DenseTopK         int     `yaml:"dense_top_k"`
	RerankTopN        int     `yaml:"rerank_top_n"`
	RerankTimeoutSec  int     `yaml:"rerank_timeout_sec"`
	DynamicMargin     float64 `yaml:"dynamic_margin"`
	DynamicMaxResults int     `yaml:"dynamic_max_results"`
	BatchWorkers      int     `yaml:"batch_workers"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "data/corpus.json"
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 32
	}
	if c.Reranker.TimeoutSec <= 0 {
		c.Reranker.TimeoutSec = 10
	}
	if c.Pipeline.TopK <= 0 {
		c.Pipeline.TopK = 5
	}
	if c.Pipeline.SparseTopK <= 0 {
		c.Pipeline.SparseTopK = 20
	}
	if c.Pipeline.DenseTopK <= 0 {
		c.Pipeline.DenseTopK = 20
	}
	if c.Pipeline.RerankTopN <= 0 {
		c.Pipeline.RerankTopN = 30
	}
	if c.Pipeline.RerankTimeoutSec <= 0 {
		c.Pipeline.RerankTimeoutSec = 5
	}
	if c.Pipeline.DynamicMargin <= 0 {
		c.Pipeline.DynamicMargin = 0.05
	}
	if c.Pipeline.DynamicMaxResults <= 0 {
		c.Pipeline.DynamicMaxResults = 3
	}
	if c.Pipeline.BatchWorkers <= 0 {
		c.Pipeline.BatchWorkers = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.BaseURL != "" && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when embedding.base_url is set")
	}
	if c.Reranker.BaseURL != "" && c.Reranker.Model == "" {
		return fmt.Errorf("reranker.model is required when reranker.base_url is set")
	}
	if c.Pipeline.DynamicMargin >= 1 {
		return fmt.Errorf("pipeline.dynamic_margin must be below 1, got %g", c.Pipeline.DynamicMargin)
	}
	if c.Router.DominanceRatio != 0 && c.Router.DominanceRatio <= 1 {
		return fmt.Errorf("router.dominance_ratio must be above 1, got %g", c.Router.DominanceRatio)
	}
	if c.Sparse.B < 0 || c.Sparse.B > 1 {
		return fmt.Errorf("sparse.b must be between 0 and 1, got %g", c.Sparse.B)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
