package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for reportsmith.
// Configuration can come from YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (API keys, database passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Analysis tuning
	Analysis AnalysisConfig `yaml:"analysis"`

	// AI collaborator endpoints
	AI AIConfig `yaml:"ai"`

	// Optional static schema context file. When set, the server loads the
	// schema catalog from this YAML file instead of a live datasource.
	SchemaFile string `yaml:"schema_file" env:"SCHEMA_FILE" env-default:""`

	// Datasource holds live-database catalog loading settings, used when
	// SchemaFile is empty.
	Datasource DatasourceConfig `yaml:"datasource"`
}

// AnalysisConfig holds the orchestrator's tuning knobs.
type AnalysisConfig struct {
	// RefinementBudget is the total number of analysis passes allowed,
	// the initial one included.
	RefinementBudget int `yaml:"refinement_budget" env:"ANALYSIS_REFINEMENT_BUDGET" env-default:"3"`

	// Minimum semantic-match scores per catalog. Matches below the
	// catalog's minimum are dropped; everything above is kept.
	SchemaMinScore  float64 `yaml:"schema_min_score" env:"ANALYSIS_SCHEMA_MIN_SCORE" env-default:"0.5"`
	DomainMinScore  float64 `yaml:"domain_min_score" env:"ANALYSIS_DOMAIN_MIN_SCORE" env-default:"0.6"`
	ContextMinScore float64 `yaml:"context_min_score" env:"ANALYSIS_CONTEXT_MIN_SCORE" env-default:"0.4"`

	// BroadMatchWarning is the per-term kept-match count above which a
	// "query may be too broad" suggestion is attached (never truncation).
	BroadMatchWarning int `yaml:"broad_match_warning" env:"ANALYSIS_BROAD_MATCH_WARNING" env-default:"8"`

	// CollaboratorTimeout bounds each call into the semantic matching and
	// NLU services. A timeout is a soft failure: the stage proceeds with
	// empty results from that call.
	CollaboratorTimeout time.Duration `yaml:"collaborator_timeout" env:"ANALYSIS_COLLABORATOR_TIMEOUT" env-default:"10s"`

	// PinScore is the relevance at or above which an entity is pinned
	// across refinement iterations.
	PinScore float64 `yaml:"pin_score" env:"ANALYSIS_PIN_SCORE" env-default:"0.85"`

	// RelaxStep is subtracted from catalog minimum scores on each
	// refinement pass (floored at RelaxFloor) to broaden the search.
	RelaxStep  float64 `yaml:"relax_step" env:"ANALYSIS_RELAX_STEP" env-default:"0.1"`
	RelaxFloor float64 `yaml:"relax_floor" env:"ANALYSIS_RELAX_FLOOR" env-default:"0.2"`
}

// AIConfig holds LLM endpoint configuration for the matcher embeddings
// and the NLU extractor.
type AIConfig struct {
	// Provider selects the chat backend: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`

	LLMBaseURL string `yaml:"llm_base_url" env:"AI_LLM_BASE_URL" env-default:"https://api.openai.com/v1"`
	LLMModel   string `yaml:"llm_model" env:"AI_LLM_MODEL" env-default:"gpt-4o-mini"`
	LLMAPIKey  string `yaml:"-" env:"AI_LLM_API_KEY"` // Secret - not in YAML

	EmbeddingModel string `yaml:"embedding_model" env:"AI_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
}

// IsAvailable returns true if an LLM endpoint is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.LLMBaseURL != "" && c.LLMModel != ""
}

// DatasourceConfig holds live schema catalog loading settings.
type DatasourceConfig struct {
	// Type is "postgres" or "mssql". Empty disables live loading.
	Type     string `yaml:"type" env:"DATASOURCE_TYPE" env-default:""`
	Host     string `yaml:"host" env:"DATASOURCE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DATASOURCE_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DATASOURCE_USER" env-default:""`
	Password string `yaml:"-" env:"DATASOURCE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"DATASOURCE_DATABASE" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"DATASOURCE_SSL_MODE" env-default:"disable"`

	// DomainValueLimit caps how many distinct values are sampled per
	// low-cardinality text column when building the domain-value catalog.
	DomainValueLimit int `yaml:"domain_value_limit" env:"DATASOURCE_DOMAIN_VALUE_LIMIT" env-default:"50"`
}

// ConnectionString returns a key=value connection string for postgres.
func (c *DatasourceConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time. If
// config.yaml does not exist, environment variables alone are used.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Analysis.RefinementBudget < 0 {
		return fmt.Errorf("refinement_budget must be >= 0")
	}
	for name, v := range map[string]float64{
		"schema_min_score":  c.Analysis.SchemaMinScore,
		"domain_min_score":  c.Analysis.DomainMinScore,
		"context_min_score": c.Analysis.ContextMinScore,
		"pin_score":         c.Analysis.PinScore,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1]", name)
		}
	}
	if c.Analysis.CollaboratorTimeout <= 0 {
		return fmt.Errorf("collaborator_timeout must be positive")
	}
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}
	return nil
}
