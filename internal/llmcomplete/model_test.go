package llmcomplete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ModelID constants used in tests
const (
	ModelIDGPT5      ModelID = "gpt-5"
	ModelIDGPT5Mini  ModelID = "gpt-5-mini"
	ModelIDGPT5Nano  ModelID = "gpt-5-nano"
	ModelIDGPT41Nano ModelID = "gpt-4.1-nano"
)

// withCustomModel adds a custom model, runs fn, then restores availableModels.
func withCustomModel(t *testing.T, id ModelID, providerID ProviderID, providerModelID string, overrides ModelOverrides, fn func()) {
	t.Helper()
	// Snapshot and restore global state for isolation
	saved := append([]model(nil), availableModels...)
	defer func() { availableModels = saved }()

	require.NoError(t, AddCustomModel(id, providerID, providerModelID, overrides))
	fn()
}

func TestProviders(t *testing.T) {
	assert.Contains(t, AllProvidersIDs, ProviderIDOpenAI)
	assert.Equal(t, "OPENAI_API_KEY", ProviderKeyEnvVars()[ProviderIDOpenAI])
}

func TestBuiltinModels(t *testing.T) {
	assert.Equal(t, ModelIDGPT5Mini, DefaultModelIDForProvider(ProviderIDOpenAI))
	assert.True(t, ModelIDIsValid(ModelIDGPT5))
	assert.True(t, ModelIDIsValid("gpt-5-low"))
	assert.False(t, ModelIDIsValid("gpt-4.1-low"), "non-reasoning models have no effort variants")

	m, ok := getModelByID("gpt-5-high")
	require.True(t, ok)
	assert.Equal(t, "gpt-5", m.modelID)
	assert.Equal(t, "high", m.ReasoningEffort)
	assert.False(t, m.isDefault)

	assert.Equal(t, ModelIDGPT5Mini, ModelIDOrDefault("not-a-model"))
	assert.Equal(t, ModelIDGPT5, ModelIDOrDefault(ModelIDGPT5))
	assert.Equal(t, ProviderIDOpenAI, ProviderIDForModelID(ModelIDGPT41Nano))
	assert.Equal(t, ProviderIDUnknown, ProviderIDForModelID("nope"))
	assert.Contains(t, AvailableModelIDs(), ModelIDGPT5Nano)
}

func TestMaxOutputTokens(t *testing.T) {
	assert.Equal(t, 32_768, MaxOutputTokens(ModelIDGPT41Nano))
	assert.Equal(t, 1_047_576, ContextWindow(ModelIDGPT41Nano))

	withCustomModel(t, "capped", ProviderIDOpenAI, "gpt-4.1-nano", ModelOverrides{MaxOutputTokens: 500}, func() {
		assert.Equal(t, 500, MaxOutputTokens("capped"))
		assert.Equal(t, 1_047_576, ContextWindow("capped"))
	})
}

func TestAddCustomModel(t *testing.T) {
	withCustomModel(t, "test-model", ProviderIDOpenAI, "gpt-test", ModelOverrides{ReasoningEffort: "low"}, func() {
		require.True(t, ModelIDIsValid("test-model"), "Model should be valid after adding")
		require.Equal(t, ProviderIDOpenAI, ProviderIDForModelID("test-model"))

		// Test duplicate ID error
		err := AddCustomModel("test-model", ProviderIDOpenAI, "gpt-test-2", ModelOverrides{})
		require.Error(t, err)
	})
	assert.False(t, ModelIDIsValid("test-model"))

	// Test empty ID error
	err := AddCustomModel("", ProviderIDOpenAI, "gpt-test", ModelOverrides{})
	require.Error(t, err)

	// Test empty provider ID error
	err = AddCustomModel("test-model-3", ProviderID(""), "gpt-test", ModelOverrides{})
	require.Error(t, err)

	// Test non-existent provider error
	err = AddCustomModel("test-model-4", ProviderID("nonexistent"), "gpt-test", ModelOverrides{})
	require.Error(t, err)

	// Test empty model ID error
	err = AddCustomModel("test-model-5", ProviderIDOpenAI, "", ModelOverrides{})
	require.Error(t, err)
}

func TestAddCustomModelOverrides(t *testing.T) {
	customID := ModelID("local-proofer")
	params := ModelOverrides{APIEndpointURL: "http://localhost:8080/v1", ReasoningEffort: "medium"}

	withCustomModel(t, customID, ProviderIDOpenAI, "gpt-5-2025-08-07", params, func() {
		found, ok := getModelByID(customID)
		require.True(t, ok)
		assert.False(t, found.isDefault, "expected isDefault=false for custom model")
		assert.Equal(t, params, found.ModelOverrides)
		assert.Equal(t, 1.25, found.costPer1MIn, "pricing copied from the dated model's base")
	})
}

func TestNormalizeModelForCost(t *testing.T) {
	assert.Equal(t, "gpt-5", normalizeModelForCost("gpt-5-20250807"))
	assert.Equal(t, "gpt-4.1-nano", normalizeModelForCost("gpt-4.1-nano-2025-04-14"))
	assert.Equal(t, "gpt-5", normalizeModelForCost("gpt-5-latest"))
	assert.Equal(t, "gpt-5-mini", normalizeModelForCost("gpt-5-mini"))
	assert.Equal(t, "o3", normalizeModelForCost("o3"))
}
