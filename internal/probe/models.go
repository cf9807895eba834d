// Package probe answers environment questions the validator and the API
// cannot answer from the document alone: does a path exist, is an API key
// accepted by its provider, which models are reachable. All network checks
// are timeout-bounded and report failure as a value, not a panic.
package probe

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenRouter Provider = "openrouter"
)

// ModelInfo describes one supported model.
type ModelInfo struct {
	Name                    string   `json:"name"`
	Provider                Provider `json:"provider"`
	DisplayName             string   `json:"display_name"`
	Description             string   `json:"description"`
	SupportsFunctionCalling bool     `json:"supports_function_calling"`
	MaxTokens               int      `json:"max_tokens"`
	CostPer1KTokens         float64  `json:"cost_per_1k_tokens"`
}

// supportedModels is the static catalogue of models the backend knows how
// to configure. Order is display order.
var supportedModels = []ModelInfo{
	{
		Name:                    "gpt-4-turbo",
		Provider:                ProviderOpenAI,
		DisplayName:             "GPT-4 Turbo",
		Description:             "Latest GPT-4 model with improved performance and lower cost",
		SupportsFunctionCalling: true,
		MaxTokens:               128000,
		CostPer1KTokens:         0.01,
	},
	{
		Name:                    "gpt-4",
		Provider:                ProviderOpenAI,
		DisplayName:             "GPT-4",
		Description:             "Most capable OpenAI model, great for complex reasoning",
		SupportsFunctionCalling: true,
		MaxTokens:               8192,
		CostPer1KTokens:         0.03,
	},
	{
		Name:                    "gpt-3.5-turbo",
		Provider:                ProviderOpenAI,
		DisplayName:             "GPT-3.5 Turbo",
		Description:             "Fast and cost-effective model for most tasks",
		SupportsFunctionCalling: true,
		MaxTokens:               16385,
		CostPer1KTokens:         0.001,
	},
	{
		Name:                    "gpt-4o",
		Provider:                ProviderOpenAI,
		DisplayName:             "GPT-4o",
		Description:             "Optimized version of GPT-4 with better performance",
		SupportsFunctionCalling: true,
		MaxTokens:               128000,
		CostPer1KTokens:         0.005,
	},
	{
		Name:                    "gpt-4o-mini",
		Provider:                ProviderOpenAI,
		DisplayName:             "GPT-4o Mini",
		Description:             "Compact version of GPT-4o, faster and more affordable",
		SupportsFunctionCalling: true,
		MaxTokens:               128000,
		CostPer1KTokens:         0.0002,
	},
	{
		Name:                    "claude-3-5-sonnet-20241022",
		Provider:                ProviderAnthropic,
		DisplayName:             "Claude 3.5 Sonnet",
		Description:             "Most intelligent Claude model with excellent coding abilities",
		SupportsFunctionCalling: true,
		MaxTokens:               200000,
		CostPer1KTokens:         0.003,
	},
	{
		Name:                    "claude-3.5-sonnet",
		Provider:                ProviderAnthropic,
		DisplayName:             "Claude 3.5 Sonnet (Alias)",
		Description:             "Alias for the latest Claude 3.5 Sonnet model",
		SupportsFunctionCalling: true,
		MaxTokens:               200000,
		CostPer1KTokens:         0.003,
	},
	{
		Name:                    "claude-3-7-sonnet-20250219",
		Provider:                ProviderAnthropic,
		DisplayName:             "Claude 3.7 Sonnet",
		Description:             "Latest Claude 3.7 model with enhanced capabilities",
		SupportsFunctionCalling: true,
		MaxTokens:               200000,
		CostPer1KTokens:         0.003,
	},
	{
		Name:                    "claude-3.7-sonnet",
		Provider:                ProviderAnthropic,
		DisplayName:             "Claude 3.7 Sonnet (Alias)",
		Description:             "Alias for the latest Claude 3.7 Sonnet model",
		SupportsFunctionCalling: true,
		MaxTokens:               200000,
		CostPer1KTokens:         0.003,
	},
	{
		Name:                    "claude-3-sonnet-20240229",
		Provider:                ProviderAnthropic,
		DisplayName:             "Claude 3 Sonnet",
		Description:             "Balanced model offering good performance and speed",
		SupportsFunctionCalling: true,
		MaxTokens:               200000,
		CostPer1KTokens:         0.003,
	},
	{
		Name:                    "claude-3-haiku-20240307",
		Provider:                ProviderAnthropic,
		DisplayName:             "Claude 3 Haiku",
		Description:             "Fastest Claude model, optimized for speed and cost",
		SupportsFunctionCalling: true,
		MaxTokens:               200000,
		CostPer1KTokens:         0.00025,
	},
	{
		Name:            "meta-llama/llama-3.1-405b-instruct",
		Provider:        ProviderOpenRouter,
		DisplayName:     "Llama 3.1 405B Instruct",
		Description:     "Meta's largest and most capable Llama model",
		MaxTokens:       131072,
		CostPer1KTokens: 0.003,
	},
	{
		Name:            "meta-llama/llama-3.1-70b-instruct",
		Provider:        ProviderOpenRouter,
		DisplayName:     "Llama 3.1 70B Instruct",
		Description:     "High-performance Llama model with good balance of capabilities and cost",
		MaxTokens:       131072,
		CostPer1KTokens: 0.0008,
	},
	{
		Name:            "mistralai/mistral-7b-instruct",
		Provider:        ProviderOpenRouter,
		DisplayName:     "Mistral 7B Instruct",
		Description:     "Efficient and capable model from Mistral AI",
		MaxTokens:       32768,
		CostPer1KTokens: 0.0001,
	},
	{
		Name:            "google/gemini-pro-1.5",
		Provider:        ProviderOpenRouter,
		DisplayName:     "Gemini Pro 1.5",
		Description:     "Google's advanced multimodal model via OpenRouter",
		MaxTokens:       2097152,
		CostPer1KTokens: 0.0025,
	},
}

// SupportedModels returns the full catalogue in display order.
func SupportedModels() []ModelInfo {
	return supportedModels
}

// ModelsByProvider filters the catalogue for one provider.
func ModelsByProvider(p Provider) []ModelInfo {
	var out []ModelInfo
	for _, m := range supportedModels {
		if m.Provider == p {
			out = append(out, m)
		}
	}
	return out
}

// ModelByName looks up a model by its exact catalogue name.
func ModelByName(name string) (ModelInfo, bool) {
	for _, m := range supportedModels {
		if m.Name == name {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ProviderForModel infers the provider from a catalogue name.
func ProviderForModel(name string) (Provider, bool) {
	m, ok := ModelByName(name)
	if !ok {
		return "", false
	}
	return m.Provider, true
}

// RecommendedModels returns catalogue entries recommended for a task type.
// Unknown task types get the general-purpose set.
func RecommendedModels(taskType string) []ModelInfo {
	var names []string
	switch taskType {
	case "coding":
		names = []string{"claude-3-5-sonnet-20241022", "gpt-4-turbo", "gpt-4o"}
	case "feedback", "reporting":
		names = []string{"gpt-4-turbo", "claude-3-5-sonnet-20241022", "gpt-4"}
	case "budget":
		names = []string{"gpt-3.5-turbo", "claude-3-haiku-20240307", "gpt-4o-mini"}
	default:
		names = []string{"gpt-4-turbo", "claude-3-5-sonnet-20241022", "gpt-4o"}
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []ModelInfo
	for _, m := range supportedModels {
		if wanted[m.Name] {
			out = append(out, m)
		}
	}
	return out
}

// EstimateExperimentCost estimates the USD cost of a typical experiment
// with this model: 20 code-generation iterations, 20 feedback rounds, and
// one report, counting input and output tokens.
func EstimateExperimentCost(m ModelInfo) float64 {
	tokens := 20*2000*2 + 20*1000*2 + 3000*2
	cost := float64(tokens) / 1000 * m.CostPer1KTokens
	// Round to cents.
	return float64(int(cost*100+0.5)) / 100
}
