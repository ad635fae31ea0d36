package config

const (
	defaultAPIListen = ":8733"
	defaultMCPListen = ":8734"

	defaultClientAPITarget = "http://localhost:8733"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "engram"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultLLMProvider = "ollama"

	defaultCaptureMode = "heuristic"
	defaultNamespace   = "engram"
	defaultTopK        = 5

	defaultRelevanceThreshold = 0.35
	defaultUpdateThreshold    = 0.72
	defaultDeleteThreshold    = 0.45
	defaultDedupThreshold     = 0.95

	defaultMinFactLength = 20
	defaultMaxFactLength = 2000

	defaultEventsProvider = "nop"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		MCP: MCPConfig{
			Listen: defaultMCPListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
		},
		Memory: MemoryConfig{
			Capture:            defaultCaptureMode,
			Namespace:          defaultNamespace,
			TopK:               defaultTopK,
			RelevanceThreshold: defaultRelevanceThreshold,
			UpdateThreshold:    defaultUpdateThreshold,
			DeleteThreshold:    defaultDeleteThreshold,
			DedupThreshold:     defaultDedupThreshold,
			MinFactLength:      defaultMinFactLength,
			MaxFactLength:      defaultMaxFactLength,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
		},
	}
}
