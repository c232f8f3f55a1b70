package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Collection identifies one searchable corpus in the passage store.
type Collection struct {
	ID   string
	Name string
}

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	EmbedderURL     string
	EmbeddingModel  string
	EmbedderTimeout time.Duration

	// GeneratorBackend selects the completion backend: "ollama" or "openai".
	GeneratorBackend string
	GeneratorURL     string
	GeneratorModel   string
	GeneratorTimeout time.Duration

	// FilterModel runs the cheap extraction prompts (date-times, names,
	// filter synthesis, citations). Defaults to the generator model.
	FilterModel string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	EnableMetadataFiltering bool
	MetadataDefinitions     string
	EnableCitations         bool
	EnableStatusIndicator   bool
	StatusEmitInterval      time.Duration

	NumberOfResults int
	MaxTokens       int
	Temperature     float32
	TopP            float32
	MaxHistoryTurns int
	SearchMode      string

	Collections       []Collection
	DefaultCollection string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "kb-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "kb_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "kb_password"),
		DBName:     getEnv("DB_NAME", "kb_db"),

		EmbedderURL:     getEnv("EMBEDDER_URL", "http://ollama:11434"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "embeddinggemma"),
		EmbedderTimeout: getEnvDuration("EMBEDDER_TIMEOUT", 30*time.Second),

		GeneratorBackend: strings.ToLower(getEnv("GENERATOR_BACKEND", "ollama")),
		GeneratorURL:     getEnv("GENERATOR_URL", "http://ollama:11434"),
		GeneratorModel:   getEnv("GENERATOR_MODEL", "gpt-oss20b-cpu"),
		GeneratorTimeout: getEnvDuration("GENERATOR_TIMEOUT", 120*time.Second),

		FilterModel: getEnv("FILTER_MODEL", ""),

		OpenAIAPIKey:  getSecret("OPENAI_API_KEY", "OPENAI_API_KEY_FILE", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		EnableMetadataFiltering: getEnvBool("ENABLE_METADATA_FILTERING", false),
		MetadataDefinitions:     getEnv("METADATA_DEFINITIONS", ""),
		EnableCitations:         getEnvBool("ENABLE_CITATIONS", true),
		EnableStatusIndicator:   getEnvBool("ENABLE_STATUS_INDICATOR", true),
		StatusEmitInterval:      getEnvDuration("STATUS_EMIT_INTERVAL", 2*time.Second),

		NumberOfResults: getEnvInt("NUMBER_OF_RESULTS", 5),
		MaxTokens:       getEnvInt("MAX_TOKENS", 4096),
		Temperature:     getEnvFloat("TEMPERATURE", 0.7),
		TopP:            getEnvFloat("TOP_P", 0.9),
		MaxHistoryTurns: getEnvInt("MAX_HISTORY_TURNS", 10),
		SearchMode:      strings.ToUpper(getEnv("SEARCH_MODE", "HYBRID")),
	}

	if cfg.FilterModel == "" {
		cfg.FilterModel = cfg.GeneratorModel
	}

	collections, err := parseCollections(
		getEnv("COLLECTION_IDS", "default"),
		getEnv("COLLECTION_NAMES", ""),
	)
	if err != nil {
		return nil, err
	}
	cfg.Collections = collections
	cfg.DefaultCollection = getEnv("DEFAULT_COLLECTION", collections[0].ID)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN renders the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) validate() error {
	switch c.GeneratorBackend {
	case "ollama":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: GENERATOR_BACKEND=openai requires OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("config: unknown GENERATOR_BACKEND %q", c.GeneratorBackend)
	}

	switch c.SearchMode {
	case "HYBRID", "SEMANTIC":
	default:
		return fmt.Errorf("config: unknown SEARCH_MODE %q", c.SearchMode)
	}

	if c.NumberOfResults < 1 {
		return fmt.Errorf("config: NUMBER_OF_RESULTS must be at least 1, got %d", c.NumberOfResults)
	}

	found := false
	for _, col := range c.Collections {
		if col.ID == c.DefaultCollection {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config: DEFAULT_COLLECTION %q is not in COLLECTION_IDS", c.DefaultCollection)
	}
	return nil
}

// parseCollections zips semicolon-separated id and name lists. Names are
// optional; a missing name falls back to the id.
func parseCollections(ids, names string) ([]Collection, error) {
	idList := splitList(ids)
	if len(idList) == 0 {
		return nil, fmt.Errorf("config: COLLECTION_IDS must name at least one collection")
	}
	nameList := splitList(names)

	collections := make([]Collection, 0, len(idList))
	seen := make(map[string]struct{}, len(idList))
	for i, id := range idList {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("config: duplicate collection id %q", id)
		}
		seen[id] = struct{}{}
		name := id
		if i < len(nameList) {
			name = nameList[i]
		}
		collections = append(collections, Collection{ID: id, Name: name})
	}
	return collections, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float32) float32 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
