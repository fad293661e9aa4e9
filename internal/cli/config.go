package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/codalotl/proofreader/internal/llmcomplete"
	"github.com/codalotl/proofreader/internal/proofread"
	"github.com/codalotl/proofreader/internal/q/cascade"
	"github.com/codalotl/proofreader/internal/revise"
	"github.com/codalotl/proofreader/internal/suggest"
)

// Config is proofreader's configuration loaded from a cascade of sources. Keys are the lowercased field names (the json tags).
type Config struct {
	ProviderKeys ProviderKeys `json:"providerkeys"`

	// Model is a model ID (see `proofreader config` for the default). With ReasoningEffort or BaseURL set, it is instead the model name sent to the API.
	Model           string `json:"model"`
	ReasoningEffort string `json:"reasoningeffort,omitempty"`
	BaseURL         string `json:"baseurl,omitempty"`

	// MaxOutputTokens caps each response. 0 sizes the cap from the text.
	MaxOutputTokens int `json:"maxoutputtokens,omitempty"`

	StaticPrompt string `json:"staticprompt,omitempty"`

	PreserveQuotes         bool   `json:"preservequotes"`
	PreserveBlockquotes    bool   `json:"preserveblockquotes"`
	PreserveStraightQuotes bool   `json:"preservestraightquotes"`
	TruncationNote         string `json:"truncationnote,omitempty"`

	Markers suggest.Markers `json:"markers"`
}

type ProviderKeys struct {
	OpenAI string `json:"openai"`
}

const configDir = ".proofreader"

func configDefaults() map[string]any {
	m := suggest.DefaultMarkers()
	return map[string]any{
		"preservestraightquotes": true,
		"markers.addopen":        m.AddOpen,
		"markers.addclose":       m.AddClose,
		"markers.delopen":        m.DelOpen,
		"markers.delclose":       m.DelClose,
	}
}

// newConfigLoader returns the loader for, from low to high priority: defaults, the user's config.json, the nearest project config.json, the nearest project
// config.toml, and the environment.
func newConfigLoader() *cascade.Loader {
	return cascade.New().
		WithDefaults(configDefaults()).
		WithFile(cascade.InUserConfigDirectory(filepath.Join(configDir, "config.json"))).
		WithNearestFile(filepath.Join(configDir, "config.json"), "").
		WithNearestFile(filepath.Join(configDir, "config.toml"), "").
		WithEnv(map[string]string{
			"providerkeys.openai": "OPENAI_API_KEY",
			"model":               "PROOFREADER_MODEL",
			"maxoutputtokens":     "PROOFREADER_MAX_OUTPUT_TOKENS",
			"reasoningeffort":     "PROOFREADER_REASONING_EFFORT",
		})
}

// loadConfig loads and validates the configuration. It also returns the names of the sources that contributed to it.
func loadConfig() (Config, []string, error) {
	var cfg Config
	loader := newConfigLoader()
	if err := loader.StrictlyLoad(&cfg); err != nil {
		return Config{}, nil, fmt.Errorf("load configuration: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, nil, err
	}
	return cfg, loader.Loaded(), nil
}

func validateConfig(cfg Config) error {
	if err := cfg.Markers.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: markers: %w", err)
	}
	if cfg.MaxOutputTokens < 0 {
		return fmt.Errorf("invalid configuration: maxoutputtokens must be >= 0 (got %d)", cfg.MaxOutputTokens)
	}
	switch cfg.ReasoningEffort {
	case "", "minimal", "low", "medium", "high":
	default:
		return fmt.Errorf("invalid configuration: reasoningeffort must be one of minimal, low, medium, high (got %q)", cfg.ReasoningEffort)
	}
	if !cfg.customModel() && cfg.Model != "" && !llmcomplete.ModelIDIsValid(llmcomplete.ModelID(cfg.Model)) {
		return fmt.Errorf("invalid configuration: unknown model %q (available: %s)", cfg.Model, joinModelIDs(llmcomplete.AvailableModelIDs()))
	}
	return nil
}

func joinModelIDs(ids []llmcomplete.ModelID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}

func (cfg Config) customModel() bool {
	return cfg.ReasoningEffort != "" || cfg.BaseURL != ""
}

// modelID returns the model to revise with, registering a custom model when the config overrides model parameters.
func (cfg Config) modelID() (llmcomplete.ModelID, error) {
	if !cfg.customModel() {
		return llmcomplete.ModelIDOrDefault(llmcomplete.ModelID(cfg.Model)), nil
	}

	apiModel := cfg.Model
	if apiModel == "" {
		apiModel = string(llmcomplete.DefaultModelIDForProvider(llmcomplete.ProviderIDOpenAI))
	}
	id := llmcomplete.ModelID(fmt.Sprintf("configured:%s:%s:%s", apiModel, cfg.ReasoningEffort, cfg.BaseURL))
	if llmcomplete.ModelIDIsValid(id) {
		return id, nil
	}
	err := llmcomplete.AddCustomModel(id, llmcomplete.ProviderIDOpenAI, apiModel, llmcomplete.ModelOverrides{
		ReasoningEffort: cfg.ReasoningEffort,
		APIEndpointURL:  cfg.BaseURL,
	})
	if err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}
	return id, nil
}

func (cfg Config) serviceOptions() proofread.Options {
	return proofread.Options{
		Markers:                cfg.Markers,
		PreserveQuotes:         cfg.PreserveQuotes,
		PreserveBlockquotes:    cfg.PreserveBlockquotes,
		PreserveStraightQuotes: cfg.PreserveStraightQuotes,
		TruncationNote:         cfg.TruncationNote,
	}
}

func (cfg Config) reviseOptions(modelID llmcomplete.ModelID) revise.Options {
	return revise.Options{
		Model:           modelID,
		StaticPrompt:    cfg.StaticPrompt,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Markers:         cfg.Markers,
	}
}

// redacted returns cfg with secrets masked, for printing.
func (cfg Config) redacted() Config {
	if k := cfg.ProviderKeys.OpenAI; k != "" {
		if len(k) > 8 {
			cfg.ProviderKeys.OpenAI = k[:3] + "…" + k[len(k)-4:]
		} else {
			cfg.ProviderKeys.OpenAI = "…"
		}
	}
	return cfg
}

func writeConfigJSON(w io.Writer, cfg Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(cfg.redacted())
}
