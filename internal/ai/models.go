package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ModelInfo is what the reasoner needs to know about a model.
type ModelInfo struct {
	Name          string `json:"name"`
	ContextTokens int    `json:"context_tokens"` // approximate context window
}

var modelsMu sync.RWMutex

var defaultModels = map[string]ModelInfo{
	ProviderOpenRouter: {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	ProviderOllama:     {Name: "llama3.1:8b", ContextTokens: 8192},
	ProviderOpenAI:     {Name: "gpt-4o-mini", ContextTokens: 128000},
	ProviderAnthropic:  {Name: "claude-3-5-haiku-latest", ContextTokens: 200000},
}

var knownModels = map[string]ModelInfo{
	"openai/gpt-4o":               {Name: "openai/gpt-4o", ContextTokens: 128000},
	"anthropic/claude-3.5-sonnet": {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000},
	"deepseek/deepseek-r1:free":   {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
	"gpt-4o":                      {Name: "gpt-4o", ContextTokens: 128000},
	"claude-sonnet-4-5":           {Name: "claude-sonnet-4-5", ContextTokens: 200000},
	"llama3.2:3b":                 {Name: "llama3.2:3b", ContextTokens: 8192},
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string { return defaultModels[provider].Name }

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	modelsMu.RLock()
	defer modelsMu.RUnlock()
	if mi, ok := knownModels[name]; ok {
		return mi, true
	}
	for _, mi := range defaultModels {
		if mi.Name == name {
			return mi, true
		}
	}
	return ModelInfo{}, false
}

// Models returns a copy of the model catalog, including provider defaults.
func Models() map[string]ModelInfo {
	modelsMu.RLock()
	defer modelsMu.RUnlock()
	out := make(map[string]ModelInfo, len(knownModels)+len(defaultModels))
	for _, mi := range defaultModels {
		out[mi.Name] = mi
	}
	for k, mi := range knownModels {
		out[k] = mi
	}
	return out
}

// LoadModelsFromJSON reads a catalog file: an object keyed by model name.
func LoadModelsFromJSON(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, mi := range m {
		if mi.ContextTokens <= 0 {
			return nil, fmt.Errorf("model %s: context_tokens must be positive", k)
		}
		if mi.Name == "" {
			mi.Name = k
			m[k] = mi
		}
	}
	return m, nil
}

// MergeModels adds or replaces catalog entries.
func MergeModels(m map[string]ModelInfo) {
	modelsMu.Lock()
	defer modelsMu.Unlock()
	for k, mi := range m {
		knownModels[k] = mi
	}
}

// CountTokens estimates the number of tokens in text at about four
// characters per token.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly fit within limit tokens.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	return string(runes[:charLimit])
}
