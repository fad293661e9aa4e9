package llmcomplete

import "strings"

// configuredProviderKeys holds map of provider -> actual api key, set with ConfigureProviderKey.
// Not thread safe.
var configuredProviderKeys = map[ProviderID]string{}

func ConfigureProviderKey(providerID ProviderID, key string) {
	configuredProviderKeys[providerID] = key
}

// HasDefaultKey returns true if the current env has a value for the provider's default key.
func HasDefaultKey(providerID ProviderID) bool {
	provider := findProvider(providerID)
	if provider == nil {
		return false
	}
	return getEnvWithPossibleDollar(provider.apiKeyEnv) != ""
}

// HasKey returns true if a key is configured for the provider or present in its env var.
func HasKey(providerID ProviderID) bool {
	return configuredProviderKeys[providerID] != "" || HasDefaultKey(providerID)
}

// ProviderKeyEnvVars returns a map of provider id to env var (without $) for all providers in AllProvidersIDs.
func ProviderKeyEnvVars() map[ProviderID]string {
	envVars := make(map[ProviderID]string, len(AllProvidersIDs))
	for _, providerID := range AllProvidersIDs {
		if provider := findProvider(providerID); provider != nil {
			envVars[providerID] = strings.TrimLeft(provider.apiKeyEnv, "$")
		}
	}
	return envVars
}
