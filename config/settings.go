// Package config provides application settings loaded from environment
// variables and an optional settings file.
//
// Settings are created once via New() and passed by reference into each
// component. New handles:
// - Default value application
// - Environment variable parsing with validation
// - Optional JSONC or YAML file overlay (file values win over defaults,
//   environment wins over the file)

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Settings holds all application configuration.
type Settings struct {
	Paths     PathConfig      `json:"paths" yaml:"paths"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline"`
	Models    ModelConfig     `json:"models" yaml:"models"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

// PathConfig holds artifact and dataset locations.
type PathConfig struct {
	Index     string   `json:"index" yaml:"index"`
	Metadata  string   `json:"metadata" yaml:"metadata"`
	Datasets  []string `json:"datasets" yaml:"datasets"`
	HistoryDB string   `json:"history_db" yaml:"history_db"`
}

// RetrievalConfig holds vector search and filtering parameters.
type RetrievalConfig struct {
	RetrievalCount int     `json:"retrieval_count" yaml:"retrieval_count"`
	ApplyStd       bool    `json:"apply_std" yaml:"apply_std"`
	StdCoef        float64 `json:"std_coef" yaml:"std_coef"`
	ResponseCount  int     `json:"response_count" yaml:"response_count"`
	Compression    string  `json:"compression" yaml:"compression"`
}

// PipelineConfig selects the strategy used for each stage.
type PipelineConfig struct {
	Segmenter   string `json:"segmenter" yaml:"segmenter"`
	Reranker    string `json:"reranker" yaml:"reranker"`
	Planner     string `json:"planner" yaml:"planner"`
	MaxSegments int    `json:"max_segments" yaml:"max_segments"`
}

// ModelConfig holds model-backed stage and embedder configuration.
type ModelConfig struct {
	Provider       string  `json:"provider" yaml:"provider"`
	SegmenterModel string  `json:"segmenter_model" yaml:"segmenter_model"`
	RerankModel    string  `json:"rerank_model" yaml:"rerank_model"`
	PlannerModel   string  `json:"planner_model" yaml:"planner_model"`
	MaxTokens      uint32  `json:"max_tokens" yaml:"max_tokens"`
	Temperature    float64 `json:"temperature" yaml:"temperature"`
	Embedder       string  `json:"embedder" yaml:"embedder"`
	EmbedModel     string  `json:"embed_model" yaml:"embed_model"`
	EmbedDim       int     `json:"embed_dim" yaml:"embed_dim"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Strategy names accepted by PipelineConfig.
const (
	StrategyNone          = "none"
	StrategyDeterministic = "deterministic"
	StrategyIdentity      = "identity"
	StrategyBM25          = "bm25"
	StrategyLLM           = "llm"
)

// Embedder names accepted by ModelConfig.Embedder.
const (
	EmbedderHashing = "hashing"
	EmbedderOpenAI  = "openai"
	EmbedderGemini  = "gemini"
)

// DefaultModel is used for every model-backed stage unless overridden.
const DefaultModel = "gpt-4o-mini"

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Paths: PathConfig{
			Index:     filepath.Join("index", "vectors.bin"),
			Metadata:  filepath.Join("index", "metadata.json"),
			Datasets:  []string{filepath.Join("data", "gorilla_openfunctions_v1_train.json")},
			HistoryDB: filepath.Join(".toolpilot", "history.db"),
		},
		Retrieval: RetrievalConfig{
			RetrievalCount: 10,
			ApplyStd:       true,
			StdCoef:        0.5,
			ResponseCount:  5,
			Compression:    "zstd",
		},
		Pipeline: PipelineConfig{
			Segmenter:   StrategyNone,
			Reranker:    StrategyIdentity,
			Planner:     StrategyDeterministic,
			MaxSegments: 3,
		},
		Models: ModelConfig{
			Provider:       "openai",
			SegmenterModel: DefaultModel,
			RerankModel:    DefaultModel,
			PlannerModel:   DefaultModel,
			MaxTokens:      300,
			Temperature:    0.0,
			Embedder:       EmbedderHashing,
			EmbedModel:     "",
			EmbedDim:       384,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// New builds settings from defaults, the optional file at path (skipped
// when path is empty) and environment variables, then validates them.
func New(path string) (Settings, error) {
	settings := Defaults()

	if path != "" {
		if err := loadFile(path, &settings); err != nil {
			return Settings{}, err
		}
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// MustNew builds settings and panics on error.
// Use this only when configuration errors should be fatal.
func MustNew(path string) Settings {
	settings, err := New(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Validate checks value ranges and strategy names.
func (s Settings) Validate() error {
	if s.Retrieval.RetrievalCount <= 0 {
		return fmt.Errorf("retrieval_count must be positive, got %d", s.Retrieval.RetrievalCount)
	}
	if s.Retrieval.ResponseCount <= 0 {
		return fmt.Errorf("response_count must be positive, got %d", s.Retrieval.ResponseCount)
	}
	if s.Retrieval.StdCoef < 0 {
		return fmt.Errorf("std_coef must not be negative, got %v", s.Retrieval.StdCoef)
	}
	if s.Pipeline.MaxSegments <= 0 {
		return fmt.Errorf("max_segments must be positive, got %d", s.Pipeline.MaxSegments)
	}
	if err := oneOf("segmenter", s.Pipeline.Segmenter, StrategyNone, StrategyDeterministic, StrategyLLM); err != nil {
		return err
	}
	if err := oneOf("reranker", s.Pipeline.Reranker, StrategyIdentity, StrategyBM25, StrategyLLM); err != nil {
		return err
	}
	if err := oneOf("planner", s.Pipeline.Planner, StrategyDeterministic, StrategyLLM); err != nil {
		return err
	}
	if err := oneOf("embedder", s.Models.Embedder, EmbedderHashing, EmbedderOpenAI, EmbedderGemini); err != nil {
		return err
	}
	if err := oneOf("compression", s.Retrieval.Compression, "none", "zstd", "lz4"); err != nil {
		return err
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (want one of %s)", field, value, strings.Join(allowed, ", "))
}

// loadFile overlays a JSONC (.json, .jsonc) or YAML (.yaml, .yml) file.
func loadFile(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, settings); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), settings); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension: %q", filepath.Ext(path))
	}
	return nil
}

// applyEnv overlays environment variables. Names without the TOOLPILOT_
// prefix are kept for compatibility with existing deployments.
func applyEnv(s *Settings) error {
	var err error

	s.Paths.Index = getEnvString("TOOLPILOT_INDEX_PATH", s.Paths.Index)
	s.Paths.Metadata = getEnvString("TOOLPILOT_METADATA_PATH", s.Paths.Metadata)
	s.Paths.HistoryDB = getEnvString("TOOLPILOT_HISTORY_DB", s.Paths.HistoryDB)
	if val := os.Getenv("TOOLPILOT_DATASETS"); val != "" {
		s.Paths.Datasets = splitList(val)
	}

	if s.Retrieval.RetrievalCount, err = getEnvInt("TOOLPILOT_RETRIEVAL_COUNT", s.Retrieval.RetrievalCount); err != nil {
		return err
	}
	if s.Retrieval.ApplyStd, err = getEnvBool("TOOLPILOT_APPLY_STD", s.Retrieval.ApplyStd); err != nil {
		return err
	}
	if s.Retrieval.StdCoef, err = getEnvFloat64("TOOLPILOT_STD_COEF", s.Retrieval.StdCoef); err != nil {
		return err
	}
	if s.Retrieval.ResponseCount, err = getEnvInt("TOOLPILOT_RESPONSE_COUNT", s.Retrieval.ResponseCount); err != nil {
		return err
	}
	s.Retrieval.Compression = getEnvString("TOOLPILOT_COMPRESSION", s.Retrieval.Compression)

	useLLMPlanner, err := getEnvBool("USE_LLM_PLANNER", s.Pipeline.Planner == StrategyLLM)
	if err != nil {
		return err
	}
	if useLLMPlanner {
		s.Pipeline.Planner = StrategyLLM
	}
	useLLMRerank, err := getEnvBool("USE_LLM_RERANK", s.Pipeline.Reranker == StrategyLLM)
	if err != nil {
		return err
	}
	if useLLMRerank {
		s.Pipeline.Reranker = StrategyLLM
	}
	s.Pipeline.Segmenter = getEnvString("TOOLPILOT_SEGMENTER", s.Pipeline.Segmenter)
	s.Pipeline.Reranker = getEnvString("TOOLPILOT_RERANKER", s.Pipeline.Reranker)
	s.Pipeline.Planner = getEnvString("TOOLPILOT_PLANNER", s.Pipeline.Planner)
	if s.Pipeline.MaxSegments, err = getEnvInt("TOOLPILOT_MAX_SEGMENTS", s.Pipeline.MaxSegments); err != nil {
		return err
	}

	s.Models.Provider = getEnvString("TOOLPILOT_PROVIDER", s.Models.Provider)
	s.Models.SegmenterModel = getEnvString("LLM_SEGMENTER_MODEL", s.Models.SegmenterModel)
	s.Models.RerankModel = getEnvString("LLM_RERANK_MODEL", s.Models.RerankModel)
	s.Models.PlannerModel = getEnvString("LLM_PLANNER_MODEL", s.Models.PlannerModel)
	if s.Models.MaxTokens, err = getEnvUint32("LLM_MAX_TOKENS", s.Models.MaxTokens); err != nil {
		return err
	}
	if s.Models.Temperature, err = getEnvFloat64("LLM_TEMPERATURE", s.Models.Temperature); err != nil {
		return err
	}
	s.Models.Embedder = getEnvString("TOOLPILOT_EMBEDDER", s.Models.Embedder)
	s.Models.EmbedModel = getEnvString("TOOLPILOT_EMBED_MODEL", s.Models.EmbedModel)
	if s.Models.EmbedDim, err = getEnvInt("TOOLPILOT_EMBED_DIM", s.Models.EmbedDim); err != nil {
		return err
	}

	s.Log.Level = getEnvString("TOOLPILOT_LOG_LEVEL", s.Log.Level)
	s.Log.Format = getEnvString("TOOLPILOT_LOG_FORMAT", s.Log.Format)
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

// getEnvBool accepts 1/true/yes and 0/false/no, case-insensitive.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "":
		return defaultVal, nil
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid value for %s: %q: want a boolean", key, val)
	}
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	envVar, ok := apiKeyEnv[strings.ToLower(provider)]
	if !ok {
		return "", fmt.Errorf("unknown provider: %q", provider)
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", envVar)
	}
	return key, nil
}

var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"deepseek":  "DEEPSEEK_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
}
