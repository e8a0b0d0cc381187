package config

import "os"

// AIModels defines which generative models to use for different tasks
type AIModels struct {
	// GeminiExtract is for structured feature extraction (needs to be fast)
	GeminiExtract string `json:"geminiExtract"`

	// OpenAIExtract is the OpenAI alternative for feature extraction
	OpenAIExtract string `json:"openaiExtract"`
}

// AIConfig holds all generative-provider configuration
type AIConfig struct {
	GeminiAPIKey string   `json:"-"` // Never serialize
	OpenAIAPIKey string   `json:"-"` // Never serialize
	BaseURL      string   `json:"baseUrl"`
	Models       AIModels `json:"models"`
	TimeoutMS    int      `json:"timeoutMs"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		BaseURL:      "https://generativelanguage.googleapis.com/v1beta/models",
		Models: AIModels{
			GeminiExtract: getEnvOrDefault("GEMINI_MODEL_EXTRACT", "gemini-1.5-flash"),
			OpenAIExtract: getEnvOrDefault("OPENAI_MODEL_EXTRACT", "gpt-4o-mini"),
		},
		TimeoutMS: 25000, // 25 second default timeout
	}
}

// GeminiEnabled returns true if the Gemini API is configured
func (c *AIConfig) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// OpenAIEnabled returns true if the OpenAI API is configured
func (c *AIConfig) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// ModelEndpoint returns the full Gemini endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
