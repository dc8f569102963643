// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vadym-shevikov/cv-tailor/internal/analysis"
	"github.com/vadym-shevikov/cv-tailor/internal/knowledge"
	"github.com/vadym-shevikov/cv-tailor/internal/llm"
	"github.com/vadym-shevikov/cv-tailor/internal/pipeline"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CV_TAILOR"

// Config represents the application configuration. Values come from defaults,
// an optional JSON or YAML file, CV_TAILOR_* environment variables and CLI flags,
// in increasing order of precedence.
type Config struct {
	KnowledgeBackend    string `mapstructure:"knowledge_backend" validate:"oneof=remote local"`
	CompletionProvider  string `mapstructure:"completion_provider" validate:"oneof=gemini genai"`
	CompletionModel     string `mapstructure:"completion_model" validate:"required"`
	CompletionTimeoutMs int    `mapstructure:"completion_timeout_ms" validate:"gt=0"`
	APIKey              string `mapstructure:"api_key"` // Gemini API key
	KnowledgeTimeoutMs  int    `mapstructure:"knowledge_timeout_ms" validate:"gt=0"`

	MatchThresholds       Thresholds `mapstructure:"match_thresholds"`
	ReadinessThresholds   Thresholds `mapstructure:"readiness_thresholds"`
	MaxImprovementTargets int        `mapstructure:"max_improvement_targets" validate:"min=1"`
	MaxExperienceRewrites int        `mapstructure:"max_experience_rewrites" validate:"min=1,max=3"`
	MinJobTextLength      int        `mapstructure:"min_job_text_length" validate:"min=0"`

	Knowledge KnowledgeConfig `mapstructure:"knowledge"`

	Port       int    `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel   string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string `mapstructure:"log_format" validate:"omitempty,oneof=text json"` // Empty picks per command
	UseBrowser bool   `mapstructure:"use_browser"`                                      // Fetch job URLs with a headless browser

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig limits POST /analyze per client address.
type RateLimitConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	PerHour int      `mapstructure:"per_hour" validate:"min=1"`
	Burst   int      `mapstructure:"burst" validate:"min=1"`
	Exempt  []string `mapstructure:"exempt"` // Client IPs never limited
}

// Thresholds is a low/high pair of ratios.
type Thresholds struct {
	Low  float64 `mapstructure:"low" validate:"gte=0,lte=1"`
	High float64 `mapstructure:"high" validate:"gte=0,lte=1,gtefield=Low"`
}

// KnowledgeConfig configures the knowledge sources.
type KnowledgeConfig struct {
	Transport   string    `mapstructure:"transport" validate:"oneof=mcp s3 postgres"`
	Dir         string    `mapstructure:"dir"` // Empty uses the embedded topics
	MCP         MCPConfig `mapstructure:"mcp"`
	S3          S3Config  `mapstructure:"s3"`
	DatabaseURL string    `mapstructure:"database_url"`
}

// MCPConfig configures the MCP filesystem server process.
type MCPConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Env     []string `mapstructure:"env"`
	Root    string   `mapstructure:"root"`
}

// S3Config configures the S3 knowledge bucket.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		KnowledgeBackend:      string(knowledge.BackendLocal),
		CompletionProvider:    string(llm.ProviderGemini),
		CompletionModel:       "gemini-2.5-flash",
		CompletionTimeoutMs:   int(llm.DefaultTimeout / time.Millisecond),
		KnowledgeTimeoutMs:    int(knowledge.DefaultTimeout / time.Millisecond),
		MatchThresholds:       Thresholds{Low: 0.4, High: 0.75},
		ReadinessThresholds:   Thresholds{Low: 0.5, High: 0.99},
		MaxImprovementTargets: 6,
		MaxExperienceRewrites: 3,
		MinJobTextLength:      80,
		Knowledge: KnowledgeConfig{
			Transport: string(knowledge.TransportMCP),
			MCP: MCPConfig{
				Command: "npx",
				Args:    []string{"-y", "@modelcontextprotocol/server-filesystem", "./knowledge"},
				Root:    "./knowledge",
			},
			S3: S3Config{Region: "us-east-1"},
		},
		Port:     8080,
		LogLevel: "info",
		RateLimit: RateLimitConfig{
			Enabled: true,
			PerHour: 30,
			Burst:   3,
		},
	}
}

// Load builds the configuration from defaults, the optional file at path and the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys with a conventional unprefixed fallback
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("knowledge.database_url", EnvPrefix+"_KNOWLEDGE_DATABASE_URL", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("knowledge_backend", d.KnowledgeBackend)
	v.SetDefault("completion_provider", d.CompletionProvider)
	v.SetDefault("completion_model", d.CompletionModel)
	v.SetDefault("completion_timeout_ms", d.CompletionTimeoutMs)
	v.SetDefault("api_key", "")
	v.SetDefault("knowledge_timeout_ms", d.KnowledgeTimeoutMs)

	v.SetDefault("match_thresholds.low", d.MatchThresholds.Low)
	v.SetDefault("match_thresholds.high", d.MatchThresholds.High)
	v.SetDefault("readiness_thresholds.low", d.ReadinessThresholds.Low)
	v.SetDefault("readiness_thresholds.high", d.ReadinessThresholds.High)
	v.SetDefault("max_improvement_targets", d.MaxImprovementTargets)
	v.SetDefault("max_experience_rewrites", d.MaxExperienceRewrites)
	v.SetDefault("min_job_text_length", d.MinJobTextLength)

	v.SetDefault("knowledge.transport", d.Knowledge.Transport)
	v.SetDefault("knowledge.dir", d.Knowledge.Dir)
	v.SetDefault("knowledge.mcp.command", d.Knowledge.MCP.Command)
	v.SetDefault("knowledge.mcp.args", d.Knowledge.MCP.Args)
	v.SetDefault("knowledge.mcp.env", d.Knowledge.MCP.Env)
	v.SetDefault("knowledge.mcp.root", d.Knowledge.MCP.Root)
	v.SetDefault("knowledge.s3.bucket", d.Knowledge.S3.Bucket)
	v.SetDefault("knowledge.s3.prefix", d.Knowledge.S3.Prefix)
	v.SetDefault("knowledge.s3.region", d.Knowledge.S3.Region)
	v.SetDefault("knowledge.s3.endpoint", d.Knowledge.S3.Endpoint)
	v.SetDefault("knowledge.s3.access_key_id", d.Knowledge.S3.AccessKeyID)
	v.SetDefault("knowledge.s3.secret_access_key", d.Knowledge.S3.SecretAccessKey)
	v.SetDefault("knowledge.s3.use_path_style", d.Knowledge.S3.UsePathStyle)
	v.SetDefault("knowledge.database_url", d.Knowledge.DatabaseURL)

	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("use_browser", d.UseBrowser)
	v.SetDefault("rate_limit.enabled", d.RateLimit.Enabled)
	v.SetDefault("rate_limit.per_hour", d.RateLimit.PerHour)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
	v.SetDefault("rate_limit.exempt", d.RateLimit.Exempt)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config error: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

// describe renders a field error using the configuration key, e.g. "match_thresholds.high".
func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("'%s' must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "required":
		return fmt.Sprintf("'%s' is required", key)
	case "gtefield":
		return fmt.Sprintf("'%s' must not be lower than '%s'", key, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("'%s' must satisfy %s=%s, got %v", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. CLI flags that were set explicitly are merged over the loaded config
// this way.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.KnowledgeBackend, defaults.KnowledgeBackend)
	mergeString(&result.CompletionProvider, defaults.CompletionProvider)
	mergeString(&result.CompletionModel, defaults.CompletionModel)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.LogLevel, defaults.LogLevel)
	mergeString(&result.LogFormat, defaults.LogFormat)

	// Int fields: use default if zero
	mergeInt(&result.CompletionTimeoutMs, defaults.CompletionTimeoutMs)
	mergeInt(&result.KnowledgeTimeoutMs, defaults.KnowledgeTimeoutMs)
	mergeInt(&result.MaxImprovementTargets, defaults.MaxImprovementTargets)
	mergeInt(&result.MaxExperienceRewrites, defaults.MaxExperienceRewrites)
	mergeInt(&result.MinJobTextLength, defaults.MinJobTextLength)
	mergeInt(&result.Port, defaults.Port)

	// Threshold pairs merge as a unit so a half-set pair cannot invert
	if result.MatchThresholds == (Thresholds{}) {
		result.MatchThresholds = defaults.MatchThresholds
	}
	if result.ReadinessThresholds == (Thresholds{}) {
		result.ReadinessThresholds = defaults.ReadinessThresholds
	}

	if reflect.DeepEqual(result.Knowledge, KnowledgeConfig{}) {
		result.Knowledge = defaults.Knowledge
	}
	if reflect.DeepEqual(result.RateLimit, RateLimitConfig{}) {
		result.RateLimit = defaults.RateLimit
	}

	// Bool fields: cannot distinguish unset from false, so only true wins
	result.UseBrowser = result.UseBrowser || defaults.UseBrowser

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func mergeInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

// CompletionTimeout returns the per-call completion timeout.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.CompletionTimeoutMs) * time.Millisecond
}

// Pipeline returns the per-run pipeline options.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		KnowledgeBackend:      knowledge.Backend(c.KnowledgeBackend),
		CompletionModel:       c.CompletionModel,
		CompletionTimeout:     c.CompletionTimeout(),
		MatchThresholds:       analysis.Thresholds{Low: c.MatchThresholds.Low, High: c.MatchThresholds.High},
		ReadinessThresholds:   analysis.Thresholds{Low: c.ReadinessThresholds.Low, High: c.ReadinessThresholds.High},
		MaxImprovementTargets: c.MaxImprovementTargets,
		MaxExperienceRewrites: c.MaxExperienceRewrites,
		MinJobTextLength:      c.MinJobTextLength,
	}
}

// KnowledgeSources returns the knowledge provider configuration.
func (c *Config) KnowledgeSources() knowledge.Config {
	k := c.Knowledge
	return knowledge.Config{
		Backend:   knowledge.Backend(c.KnowledgeBackend),
		Transport: knowledge.Transport(k.Transport),
		Dir:       k.Dir,
		Timeout:   time.Duration(c.KnowledgeTimeoutMs) * time.Millisecond,
		MCP: knowledge.MCPConfig{
			Command: k.MCP.Command,
			Args:    k.MCP.Args,
			Env:     k.MCP.Env,
			Root:    k.MCP.Root,
		},
		S3: knowledge.S3Config{
			Bucket:          k.S3.Bucket,
			Prefix:          k.S3.Prefix,
			Region:          k.S3.Region,
			Endpoint:        k.S3.Endpoint,
			AccessKeyID:     k.S3.AccessKeyID,
			SecretAccessKey: k.S3.SecretAccessKey,
			UsePathStyle:    k.S3.UsePathStyle,
		},
		DatabaseURL: k.DatabaseURL,
	}
}

// Completion returns the completion client configuration for the given model.
func (c *Config) Completion(model string) *llm.Config {
	if model == "" {
		model = c.CompletionModel
	}
	base := llm.DefaultConfig().WithProvider(llm.Provider(c.CompletionProvider))
	cfg := base.WithModel(llm.TierStandard, model)
	cfg.Timeout = c.CompletionTimeout()
	return cfg
}
