package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/osiris/pkg/constants"
)

// Embedding providers accepted by embedding_provider.
const (
	EmbeddingHash   = "hash"
	EmbeddingOpenAI = "openai"
	EmbeddingGemini = "gemini"
)

// Config holds the application configuration assembled from .env files,
// environment variables and the optional config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Cycle
	CyclePeriod          time.Duration
	ConnectorTimeout     time.Duration
	MaxConcurrentFetches int
	MaxEvents            int
	ConnectorRateLimit   float64

	// Vector index. An empty QdrantURL selects the in-memory index.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Embedding. Zero dimensions keeps the provider default.
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Credentials
	OpenAIAPIKey string
	GeminiAPIKey string
	OTXAPIKey    string
	APIKey       string

	OpenSkyUsername string
	OpenSkyPassword string

	// Storage for the cycle log. Empty disables it.
	DataDir string

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration in order of precedence:
//  1. Command-line flags (applied later by UpdateFromFlags)
//  2. Environment variables
//  3. .env and .env.local
//  4. Config file (~/.osiris.yaml or ./.osiris.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(os.Getenv("OSIRIS_CONFIG"))
}

// loadConfig reads configFile when set and searches the standard locations
// otherwise.
func loadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)
	bindAPIKeys(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".osiris")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cycle_period", constants.DefaultCyclePeriod)
	v.SetDefault("connector_timeout", constants.ConnectorTimeout)
	v.SetDefault("max_concurrent_fetches", constants.MaxConcurrentConnectors)
	v.SetDefault("max_events", constants.MaxEvents)
	v.SetDefault("connector_rate_limit", constants.ConnectorRequestsPerSecond)
	v.SetDefault("qdrant_collection", constants.DefaultCollection)
	v.SetDefault("embedding_provider", EmbeddingHash)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		CyclePeriod:          v.GetDuration("cycle_period"),
		ConnectorTimeout:     v.GetDuration("connector_timeout"),
		MaxConcurrentFetches: v.GetInt("max_concurrent_fetches"),
		MaxEvents:            v.GetInt("max_events"),
		ConnectorRateLimit:   v.GetFloat64("connector_rate_limit"),

		QdrantURL:        v.GetString("qdrant_url"),
		QdrantAPIKey:     v.GetString("qdrant_api_key"),
		QdrantCollection: v.GetString("qdrant_collection"),

		EmbeddingProvider:   strings.ToLower(v.GetString("embedding_provider")),
		EmbeddingModel:      v.GetString("embedding_model"),
		EmbeddingDimensions: v.GetInt("embedding_dimensions"),

		OpenAIAPIKey: v.GetString("openai_api_key"),
		GeminiAPIKey: v.GetString("gemini_api_key"),
		OTXAPIKey:    v.GetString("otx_api_key"),
		APIKey:       v.GetString("osiris_api_key"),

		OpenSkyUsername: v.GetString("opensky_username"),
		OpenSkyPassword: v.GetString("opensky_password"),

		DataDir: v.GetString("data_dir"),

		// An empty level lets determineLogLevel apply -v/-q.
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}
}

// UpdateFromFlags applies parsed persistent flags. Flags win over every other
// source.
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

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.EmbeddingProvider {
	case EmbeddingHash, EmbeddingOpenAI, EmbeddingGemini:
	default:
		return fmt.Errorf("invalid embedding_provider %q: must be one of: hash, openai, gemini", c.EmbeddingProvider)
	}
	if c.CyclePeriod <= 0 {
		return fmt.Errorf("cycle_period must be positive, got %s", c.CyclePeriod)
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("max_events must be positive, got %d", c.MaxEvents)
	}
	return nil
}

// loadEnvFiles loads .env then .env.local. godotenv never overrides variables
// that are already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys binds credential variables so they resolve through viper even
// when they only appear in a .env file.
func bindAPIKeys(v *viper.Viper) {
	keys := map[string]string{
		"openai_api_key": "OPENAI_API_KEY",
		"gemini_api_key": "GEMINI_API_KEY",
		"otx_api_key":    "OTX_API_KEY",
		"qdrant_api_key": "QDRANT_API_KEY",
		"osiris_api_key": "OSIRIS_API_KEY",

		"opensky_username": "OPENSKY_USERNAME",
		"opensky_password": "OPENSKY_PASSWORD",
	}
	for key, env := range keys {
		if err := v.BindEnv(key, env); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", env, err)
		}
	}
}
