package config

import (
	env "coursepilot/pkg/config"
	"coursepilot/pkg/llm"
)

// Config is the full service configuration, loaded from the environment.
type Config struct {
	Port        string
	DatabaseURL string
	DocsDir     string

	MaxResults    int
	MaxHistory    int
	MaxToolRounds int
	ChunkSize     int
	ChunkOverlap  int

	LLM       llm.Config
	Embedding llm.Config
}

// Load reads the service configuration from environment variables.
func Load() Config {
	return Config{
		Port:        env.GetEnv("PORT", "8000"),
		DatabaseURL: env.GetEnv("DATABASE_URL", "postgres://localhost:5432/coursepilot?sslmode=disable"),
		DocsDir:     env.GetEnv("DOCS_DIR", "docs"),

		MaxResults:    env.GetEnvInt("MAX_RESULTS", 5),
		MaxHistory:    env.GetEnvInt("MAX_HISTORY", 2),
		MaxToolRounds: env.GetEnvInt("MAX_TOOL_ROUNDS", 2),
		ChunkSize:     env.GetEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:  env.GetEnvInt("CHUNK_OVERLAP", 100),

		LLM:       llm.LoadConfig(),
		Embedding: llm.LoadEmbeddingConfig(),
	}
}

// HasLLMCredentials reports whether the configured provider can be called.
// Ollama runs locally and needs no key.
func (c Config) HasLLMCredentials() bool {
	return c.LLM.APIKey != "" || c.LLM.Provider == "ollama"
}
