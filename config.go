package aichef

// ModelConfig controls the Bedrock model used for every generative call.
type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default=us.anthropic.claude-3-7-sonnet-20250219-v1:0"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2048"`
	Temperature float32 `env:"TEMPERATURE,default=0.3"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

// AgentConfig controls the chat orchestrator.
type AgentConfig struct {
	MaxIterations    int    `env:"MAX_ITERATIONS,default=10"`
	SessionsPath     string `env:"SESSIONS_PATH,default=artifacts/sessions"`
	SessionsS3Bucket string `env:"SESSIONS_S3_BUCKET,default="`
	SessionsS3Prefix string `env:"SESSIONS_S3_PREFIX,default=chat-sessions/"`
}

// StoreConfig locates the recipe store and the embedding backend.
type StoreConfig struct {
	WeaviateHost   string `env:"WEAVIATE_HOST,default=localhost:8080"`
	WeaviateScheme string `env:"WEAVIATE_SCHEME,default=http"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY,required"`
}

// SearchConfig holds the Google Custom Search credentials for web recipe search.
type SearchConfig struct {
	GoogleSearchKey string `env:"GOOGLE_CUSTOM_SEARCH_KEY,required"`
	GoogleSearchCtx string `env:"GOOGLE_CUSTOM_SEARCH_CTX,required"`
	ResultLimit     int    `env:"SEARCH_RESULT_LIMIT,default=10"`
}
