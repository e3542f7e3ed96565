package ai

// ModelInfo is the little the CLI needs to know about a model: how much
// prompt fits and what it costs. Prices are indicative only.
type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"gemini-1.5-flash":          {Name: "gemini-1.5-flash", Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.000075, OutputPerK: 0.0003},
	"gemini-1.5-pro":            {Name: "gemini-1.5-pro", Provider: ProviderGemini, ContextTokens: 2000000, InputPerK: 0.00125, OutputPerK: 0.005},
	"google/gemini-flash-1.5":   {Name: "google/gemini-flash-1.5", Provider: ProviderOpenRouter, ContextTokens: 1000000, InputPerK: 0.000075, OutputPerK: 0.0003},
	"openai/gpt-4o-mini":        {Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"anthropic/claude-3-haiku":  {Name: "anthropic/claude-3-haiku", Provider: ProviderOpenRouter, ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
	"deepseek/deepseek-r1:free": {Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter, ContextTokens: 128000},
	"llama3.1:8b":               {Name: "llama3.1:8b", Provider: ProviderOllama, ContextTokens: 8192},
	"qwen2.5:7b-instruct":       {Name: "qwen2.5:7b-instruct", Provider: ProviderOllama, ContextTokens: 32768},
}

var defaultModels = map[string]string{
	ProviderGemini:     "gemini-1.5-flash",
	ProviderOpenRouter: "google/gemini-flash-1.5",
	ProviderOllama:     "llama3.1:8b",
}

// DefaultModel returns the model used when none is configured for provider.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// LookupModel returns catalog metadata for a model name.
func LookupModel(name string) (ModelInfo, bool) {
	m, ok := models[name]
	return m, ok
}

// EstimateCostUSD estimates the cost of a call; ok is false for unknown models.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	m, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	return float64(promptTokens)/1000*m.InputPerK + float64(completionTokens)/1000*m.OutputPerK, true
}

// PromptBudget caps limit by the model's context window, keeping a quarter
// of the window free for the answer. limit <= 0 means "no explicit cap".
func PromptBudget(model string, limit int) int {
	m, ok := LookupModel(model)
	if !ok || m.ContextTokens <= 0 {
		return limit
	}
	window := m.ContextTokens * 3 / 4
	if limit <= 0 || limit > window {
		return window
	}
	return limit
}
