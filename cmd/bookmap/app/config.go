package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/bookmap/internal/providers"
	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/oracle"
	"github.com/agentstation/bookmap/pkg/reconcile"
	"github.com/agentstation/bookmap/pkg/review"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Oracle configuration
	Provider        string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	GoogleAPIKey    string
	GoogleModel     string
	GoogleBaseURL   string
	OracleTimeout   time.Duration
	ReasoningEffort map[oracle.Operation]string

	// Engine configuration
	ProtectedFolders []string
	ReviewMode       string
	BulkConcurrency  int
	FallbackFolder   string

	// Server API key for the serve command
	ServerAPIKey string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.bookmap.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	v := viper.New()
	return loadConfig(v, "")
}

func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".bookmap")
	}

	if err := v.ReadInConfig(); err != nil {
		// An explicit file that cannot be read is an error; a missing default file is not.
		if _, notFound := err.(viper.ConfigFileNotFoundError); configFile != "" || !notFound {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Provider:      v.GetString("oracle_provider"),
		OpenAIAPIKey:  v.GetString("openai_api_key"),
		OpenAIBaseURL: v.GetString("openai_base_url"),
		OpenAIModel:   v.GetString("openai_model"),
		GoogleAPIKey:  firstNonEmpty(v.GetString("google_api_key"), v.GetString("gemini_api_key")),
		GoogleModel:   v.GetString("google_model"),
		GoogleBaseURL: v.GetString("google_base_url"),
		OracleTimeout: v.GetDuration("oracle_timeout"),
		ReasoningEffort: map[oracle.Operation]string{
			oracle.OpAnalyzeFolders: v.GetString("reasoning_effort_folders"),
			oracle.OpReviewFolders:  v.GetString("reasoning_effort_review"),
			oracle.OpAnalyzeTags:    v.GetString("reasoning_effort_tags"),
			oracle.OpSuggestTags:    v.GetString("reasoning_effort_suggest"),
			oracle.OpAssignFolders:  v.GetString("reasoning_effort_assign"),
		},

		ProtectedFolders: splitList(v.GetString("protected_folders")),
		ReviewMode:       v.GetString("review_mode"),
		BulkConcurrency:  v.GetInt("bulk_concurrency"),
		FallbackFolder:   v.GetString("fallback_folder"),

		ServerAPIKey: v.GetString("api_key"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	if _, err := review.ParseMode(config.ReviewMode); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("oracle_provider", providers.OpenAI)
	v.SetDefault("oracle_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("review_mode", string(review.ModeAlways))
	v.SetDefault("bulk_concurrency", constants.DefaultBulkConcurrency)
	v.SetDefault("fallback_folder", constants.FallbackFolder)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// bindEnv binds keys whose environment names differ from the viper key
// after replacement, plus the API keys that live in .env files.
func bindEnv(v *viper.Viper) error {
	keys := []string{
		"oracle_provider",
		"openai_api_key",
		"openai_base_url",
		"openai_model",
		"google_api_key",
		"gemini_api_key",
		"google_model",
		"google_base_url",
		"oracle_timeout",
		"reasoning_effort_folders",
		"reasoning_effort_review",
		"reasoning_effort_tags",
		"reasoning_effort_suggest",
		"reasoning_effort_assign",
		"protected_folders",
		"review_mode",
		"bulk_concurrency",
		"fallback_folder",
		"api_key",
		"log_level",
		"log_format",
		"log_output",
	}
	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return fmt.Errorf("binding environment variable %s: %w", strings.ToUpper(key), err)
		}
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// Flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// ProvidersConfig returns the oracle provider configuration.
func (c *Config) ProvidersConfig() providers.Config {
	return providers.Config{
		Provider:        c.Provider,
		OpenAIAPIKey:    c.OpenAIAPIKey,
		OpenAIBaseURL:   c.OpenAIBaseURL,
		OpenAIModel:     c.OpenAIModel,
		GoogleAPIKey:    c.GoogleAPIKey,
		GoogleModel:     c.GoogleModel,
		GoogleBaseURL:   c.GoogleBaseURL,
		ReasoningEffort: c.ReasoningEffort,
		Timeout:         c.OracleTimeout,
	}
}

// EngineConfig returns the reconciliation engine configuration.
func (c *Config) EngineConfig() reconcile.Config {
	cfg := reconcile.DefaultConfig()
	if len(c.ProtectedFolders) > 0 {
		cfg.ProtectedNames = c.ProtectedFolders
	}
	if mode, err := review.ParseMode(c.ReviewMode); err == nil {
		cfg.ReviewMode = mode
	}
	if e := c.ReasoningEffort[oracle.OpAnalyzeFolders]; e != "" {
		cfg.FolderReasoningEffort = e
	}
	if e := c.ReasoningEffort[oracle.OpReviewFolders]; e != "" {
		cfg.ReviewReasoningEffort = e
	}
	if e := c.ReasoningEffort[oracle.OpAnalyzeTags]; e != "" {
		cfg.TagReasoningEffort = e
	}
	return cfg
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded last but godotenv never overrides, so the
// process environment always wins.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
