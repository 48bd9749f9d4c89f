package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/osiris/pkg/constants"
)

// isolate keeps the developer's own config and env out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OSIRIS_CONFIG", "")
	for _, key := range []string{
		"CYCLE_PERIOD", "MAX_EVENTS", "QDRANT_URL", "EMBEDDING_PROVIDER",
		"OTX_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "LOG_LEVEL", "DATA_DIR",
		"CONNECTOR_RATE_LIMIT", "OPENSKY_USERNAME", "OPENSKY_PASSWORD", "LOG_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.CyclePeriod != constants.DefaultCyclePeriod {
		t.Errorf("CyclePeriod = %v, want %v", config.CyclePeriod, constants.DefaultCyclePeriod)
	}
	if config.ConnectorTimeout != constants.ConnectorTimeout {
		t.Errorf("ConnectorTimeout = %v, want %v", config.ConnectorTimeout, constants.ConnectorTimeout)
	}
	if config.MaxEvents != constants.MaxEvents {
		t.Errorf("MaxEvents = %d, want %d", config.MaxEvents, constants.MaxEvents)
	}
	if config.EmbeddingProvider != EmbeddingHash {
		t.Errorf("EmbeddingProvider = %q, want %q", config.EmbeddingProvider, EmbeddingHash)
	}
	if config.QdrantCollection != constants.DefaultCollection {
		t.Errorf("QdrantCollection = %q, want %q", config.QdrantCollection, constants.DefaultCollection)
	}
	if config.QdrantURL != "" {
		t.Errorf("QdrantURL = %q, want empty", config.QdrantURL)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
	if config.ConnectorRateLimit != constants.ConnectorRequestsPerSecond {
		t.Errorf("ConnectorRateLimit = %v, want %v", config.ConnectorRateLimit, constants.ConnectorRequestsPerSecond)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("CYCLE_PERIOD", "90s")
	t.Setenv("MAX_EVENTS", "25")
	t.Setenv("EMBEDDING_PROVIDER", "OpenAI")
	t.Setenv("OTX_API_KEY", "otx-secret")
	t.Setenv("QDRANT_URL", "http://localhost:6333")
	t.Setenv("CONNECTOR_RATE_LIMIT", "0.5")
	t.Setenv("OPENSKY_USERNAME", "pilot")
	t.Setenv("OPENSKY_PASSWORD", "pw")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config.CyclePeriod != 90*time.Second {
		t.Errorf("CyclePeriod = %v, want 90s", config.CyclePeriod)
	}
	if config.MaxEvents != 25 {
		t.Errorf("MaxEvents = %d, want 25", config.MaxEvents)
	}
	if config.EmbeddingProvider != EmbeddingOpenAI {
		t.Errorf("EmbeddingProvider = %q, want openai", config.EmbeddingProvider)
	}
	if config.OTXAPIKey != "otx-secret" {
		t.Errorf("OTXAPIKey = %q, want otx-secret", config.OTXAPIKey)
	}
	if config.QdrantURL != "http://localhost:6333" {
		t.Errorf("QdrantURL = %q", config.QdrantURL)
	}
	if config.ConnectorRateLimit != 0.5 {
		t.Errorf("ConnectorRateLimit = %v, want 0.5", config.ConnectorRateLimit)
	}
	if config.OpenSkyUsername != "pilot" || config.OpenSkyPassword != "pw" {
		t.Errorf("OpenSky credentials = %q/%q", config.OpenSkyUsername, config.OpenSkyPassword)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "osiris.yaml")
	content := "cycle_period: 2m\nmax_concurrent_fetches: 8\ndata_dir: /var/lib/osiris\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	config, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}
	if config.CyclePeriod != 2*time.Minute {
		t.Errorf("CyclePeriod = %v, want 2m", config.CyclePeriod)
	}
	if config.MaxConcurrentFetches != 8 {
		t.Errorf("MaxConcurrentFetches = %d, want 8", config.MaxConcurrentFetches)
	}
	if config.DataDir != "/var/lib/osiris" {
		t.Errorf("DataDir = %q", config.DataDir)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", config.ConfigFile, path)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{EmbeddingProvider: EmbeddingHash, CyclePeriod: time.Minute, MaxEvents: 10}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "gemini provider", mutate: func(c *Config) { c.EmbeddingProvider = EmbeddingGemini }},
		{name: "unknown provider", mutate: func(c *Config) { c.EmbeddingProvider = "word2vec" }, wantErr: true},
		{name: "zero period", mutate: func(c *Config) { c.CyclePeriod = 0 }, wantErr: true},
		{name: "zero capacity", mutate: func(c *Config) { c.MaxEvents = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateFromFlags(t *testing.T) {
	c := &Config{Format: "yaml", LogLevel: "warn"}
	c.UpdateFromFlags(true, false, true, "", "")
	if !c.Verbose || !c.NoColor {
		t.Error("boolean flags not applied")
	}
	if c.Format != "yaml" || c.LogLevel != "warn" {
		t.Errorf("empty flags overwrote values: format=%q level=%q", c.Format, c.LogLevel)
	}

	c.UpdateFromFlags(false, false, false, "json", "debug")
	if c.Format != "json" || c.LogLevel != "debug" {
		t.Errorf("flags not applied: format=%q level=%q", c.Format, c.LogLevel)
	}
}
