package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OracleModel    string
	IdentitySecret string
	AllowedOrigins []string
}

// Load reads configuration from the environment. A missing .env file is
// fine; all values have workable defaults except the oracle API key, whose
// absence makes every oracle call fail (bot replies and judging then use
// local fallbacks, topic generation aborts battle creation).
func Load() *Config {
	_ = godotenv.Load()

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	model := os.Getenv("ORACLE_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	origins := []string{"*"}
	if o := os.Getenv("ALLOWED_ORIGIN"); o != "" {
		origins = []string{o}
	}

	return &Config{
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  baseURL,
		OracleModel:    model,
		IdentitySecret: os.Getenv("IDENTITY_SECRET"),
		AllowedOrigins: origins,
	}
}
