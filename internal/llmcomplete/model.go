package llmcomplete

import (
	"fmt"
	"strings"
)

// ModelID is a user-visible ID for a model. It is NOT (necessarily) the same as the model id sent to the API: "gpt-5-low" sends "gpt-5" with low reasoning effort.
// Consumers can register their own with AddCustomModel, which bundles a provider model and a set of parameters.
type ModelID string

const ModelIDUnknown ModelID = ""

// ProviderID identifies an API provider. Only OpenAI-shaped APIs are supported; other OpenAI-compatible endpoints are reached by a custom model with an
// APIEndpointURL override.
type ProviderID string

const (
	ProviderIDUnknown ProviderID = ""
	ProviderIDOpenAI  ProviderID = "openai"
)

// AllProvidersIDs are all provider ids.
var AllProvidersIDs = []ProviderID{ProviderIDOpenAI}

type providerInfo struct {
	id          ProviderID
	apiKeyEnv   string // ex: "$OPENAI_API_KEY"
	endpoint    string
	endpointEnv string
}

var providers = []providerInfo{
	{id: ProviderIDOpenAI, apiKeyEnv: "$OPENAI_API_KEY", endpoint: "https://api.openai.com/v1", endpointEnv: "$OPENAI_BASE_URL"},
}

func findProvider(id ProviderID) *providerInfo {
	for i := range providers {
		if providers[i].id == id {
			return &providers[i]
		}
	}
	return nil
}

type model struct {
	// User visible ID (eg, they'd type --model some-id)
	id ModelID

	providerID ProviderID
	modelID    string // sent to the API

	costPer1MIn     float64
	costPer1MOut    float64
	contextWindow   int
	maxOutputTokens int // the model's own output limit

	isDefault bool // true if this is the default model for the provider

	ModelOverrides
}

// ModelOverrides are per-model parameters. Zero values mean "use the default".
type ModelOverrides struct {
	APIActualKey    string // ex: "123-456"
	APIKeyEnv       string // ex: "$OPENAI_API_KEY" or "OPENAI_API_KEY"
	APIEndpointURL  string // ex: "https://api.openai.com/v1"
	ReasoningEffort string // ex: "medium"
	MaxOutputTokens int    // cap on completion tokens (including reasoning tokens)
}

// builtinModel describes a model the API serves directly.
type builtinModel struct {
	id            string
	costIn        float64
	costOut       float64
	contextWindow int
	maxOutput     int
	canReason     bool
}

var openAIModels = []builtinModel{
	{id: "gpt-5", costIn: 1.25, costOut: 10, contextWindow: 400_000, maxOutput: 128_000, canReason: true},
	{id: "gpt-5-mini", costIn: 0.25, costOut: 2, contextWindow: 400_000, maxOutput: 128_000, canReason: true},
	{id: "gpt-5-nano", costIn: 0.05, costOut: 0.4, contextWindow: 400_000, maxOutput: 128_000, canReason: true},
	{id: "gpt-4.1", costIn: 2, costOut: 8, contextWindow: 1_047_576, maxOutput: 32_768},
	{id: "gpt-4.1-mini", costIn: 0.4, costOut: 1.6, contextWindow: 1_047_576, maxOutput: 32_768},
	{id: "gpt-4.1-nano", costIn: 0.1, costOut: 0.4, contextWindow: 1_047_576, maxOutput: 32_768},
	{id: "gpt-4o-mini", costIn: 0.15, costOut: 0.6, contextWindow: 128_000, maxOutput: 16_384},
}

// defaultOpenAIModel is the default model. Proofreading is a light task, so it's the mini model rather than the flagship.
const defaultOpenAIModel = "gpt-5-mini"

var availableModels []model

func init() {
	var models []model
	for _, b := range openAIModels {
		m := model{
			id:              ModelID(b.id),
			providerID:      ProviderIDOpenAI,
			modelID:         b.id,
			costPer1MIn:     b.costIn,
			costPer1MOut:    b.costOut,
			contextWindow:   b.contextWindow,
			maxOutputTokens: b.maxOutput,
			isDefault:       b.id == defaultOpenAIModel,
		}
		models = append(models, m)

		if b.canReason {
			for _, effort := range []string{"minimal", "low", "medium", "high"} {
				withEffort := m
				withEffort.id = ModelID(b.id + "-" + effort)
				withEffort.isDefault = false
				withEffort.ReasoningEffort = effort
				models = append(models, withEffort)
			}
		}
	}
	availableModels = models
}

func ModelIDIsValid(id ModelID) bool {
	_, ok := getModelByID(id)
	return ok
}

func DefaultModelIDForProvider(providerID ProviderID) ModelID {
	for _, m := range availableModels {
		if m.providerID == providerID && m.isDefault {
			return m.id
		}
	}
	return ModelIDUnknown
}

func ProviderIDForModelID(id ModelID) ProviderID {
	if m, ok := getModelByID(id); ok {
		return m.providerID
	}
	return ProviderIDUnknown
}

// AddCustomModel adds a model under id. providerModelID is the model sent to the API (ex: "gpt-5"); if it's a known model, pricing and limits are copied from it.
//
// It returns an error if id, providerID, or providerModelID is empty, the provider is unknown, or id is already registered.
func AddCustomModel(id ModelID, providerID ProviderID, providerModelID string, overrides ModelOverrides) error {
	if id == "" {
		return fmt.Errorf("model ID cannot be empty")
	}
	if providerID == "" {
		return fmt.Errorf("provider ID cannot be empty")
	}
	if providerModelID == "" {
		return fmt.Errorf("provider model ID cannot be empty")
	}
	if ModelIDIsValid(id) {
		return fmt.Errorf("model ID already exists: %s", id)
	}
	if findProvider(providerID) == nil {
		return fmt.Errorf("provider not found: %s", providerID)
	}

	m := model{id: id, providerID: providerID, modelID: providerModelID, ModelOverrides: overrides}
	if base, ok := getModelByID(ModelID(normalizeModelForCost(providerModelID))); ok && base.providerID == providerID {
		m.costPer1MIn, m.costPer1MOut = base.costPer1MIn, base.costPer1MOut
		m.contextWindow, m.maxOutputTokens = base.contextWindow, base.maxOutputTokens
	}
	availableModels = append(availableModels, m)
	return nil
}

func getModelByID(id ModelID) (model, bool) {
	for _, m := range availableModels {
		if m.id == id {
			return m, true
		}
	}
	return model{}, false
}

func modelOrDefault(id ModelID) model {
	if m, ok := getModelByID(id); ok {
		return m
	}
	if m, ok := getModelByID(DefaultModelIDForProvider(ProviderIDOpenAI)); ok {
		return m
	}
	if len(availableModels) > 0 {
		return availableModels[0]
	}
	return model{}
}

// AvailableModelIDs returns the list of user-visible model IDs registered with llmcomplete.
func AvailableModelIDs() []ModelID {
	ids := make([]ModelID, 0, len(availableModels))
	for _, m := range availableModels {
		ids = append(ids, m.id)
	}
	return ids
}

// ModelIDOrDefault returns id if it is valid. Otherwise it returns the default OpenAI model.
func ModelIDOrDefault(id ModelID) ModelID {
	return modelOrDefault(id).id
}

// MaxOutputTokens returns the model's output-token limit: the MaxOutputTokens override if set, else the model's own limit (0 if unknown).
func MaxOutputTokens(id ModelID) int {
	m := modelOrDefault(id)
	if m.MaxOutputTokens > 0 {
		return m.MaxOutputTokens
	}
	return m.maxOutputTokens
}

// ContextWindow returns the model's context window in tokens (0 if unknown).
func ContextWindow(id ModelID) int {
	return modelOrDefault(id).contextWindow
}

func normalizeModelForCost(model string) string {
	parts := strings.Split(model, "-")
	if len(parts) <= 1 {
		return model
	}

	last := parts[len(parts)-1]
	if len(last) == 8 {
		allDigits := true
		for _, r := range last {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return strings.Join(parts[:len(parts)-1], "-")
		}
	}
	// ex: "gpt-4.1-nano-2025-04-14"
	if len(parts) > 3 && len(parts[len(parts)-3]) == 4 && len(parts[len(parts)-2]) == 2 && len(last) == 2 {
		return strings.Join(parts[:len(parts)-3], "-")
	}

	if last == "latest" {
		return strings.Join(parts[:len(parts)-1], "-")
	}

	return model
}
