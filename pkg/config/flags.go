package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --namespace
// on "engram recall", "engram capture", and "engram search").
type Flag struct {
	// Name is the long flag name (e.g. "namespace").
	Name string

	// Shorthand is the one-letter short flag (e.g. "n"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "memory.namespace").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPIListen       = "api-listen"
	FlagMCPListen       = "mcp-listen"
	FlagAPITarget       = "api-target"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagVectorStoreColl = "vector-store-collection"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagLLMProvider     = "llm-provider"
	FlagLLMModel        = "llm-model"
	FlagLLMTarget       = "llm-target"
	FlagCapture         = "capture"
	FlagNamespace       = "namespace"
	FlagEventsProvider  = "events-provider"
	FlagEventsTopic     = "events-topic"

	// Standalone subcommand variants use "listen" as the flag name
	// but bind to different viper keys depending on the service.
	FlagAPIListenStandalone = "api-listen-standalone"
	FlagMCPListenStandalone = "mcp-listen-standalone"
)

// DefaultFlags is the canonical registry used by the serve commands. The
// standalone listen variants reuse the plain "listen" flag name but bind to
// their own service's viper key.
var DefaultFlags = FlagSet{
	FlagAPIListen:       {Name: "api-listen", Shorthand: "a", ViperKey: "api.listen", Description: "Address for the REST API server to listen on"},
	FlagMCPListen:       {Name: "mcp-listen", Shorthand: "m", ViperKey: "mcp.listen", Description: "Address for the MCP server to listen on"},
	FlagAPITarget:       {Name: "api-target", ViperKey: "client.api_target", Description: "Engram API server URL"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider (sqlite, chroma, qdrant)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store target (URL, host:port, or database path)"},
	FlagVectorStoreColl: {Name: "vector-store-collection", ViperKey: "vector_store.collection", Description: "Vector store collection name"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (e.g. ollama)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name (e.g. nomic-embed-text)"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding vector dimensions"},
	FlagLLMProvider:     {Name: "llm-provider", ViperKey: "llm.provider", Description: "LLM provider for llm capture mode (openai, anthropic, ollama)"},
	FlagLLMModel:        {Name: "llm-model", ViperKey: "llm.model", Description: "LLM model for llm capture mode"},
	FlagLLMTarget:       {Name: "llm-target", ViperKey: "llm.target", Description: "LLM provider base URL override"},
	FlagCapture:         {Name: "capture", ViperKey: "memory.capture", Description: "Fact extraction strategy (heuristic or llm)"},
	FlagNamespace:       {Name: "namespace", Shorthand: "n", ViperKey: "memory.namespace", Description: "Memory namespace"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Memory change event backend (nop or kafka)"},
	FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Memory change event topic"},

	FlagAPIListenStandalone: {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the REST API server to listen on"},
	FlagMCPListenStandalone: {Name: "listen", Shorthand: "l", ViperKey: "mcp.listen", Description: "Address for the MCP server to listen on"},
}

// StackFlagKeys are the registry keys every serve variant shares for memory
// stack construction.
var StackFlagKeys = []string{
	FlagVectorStoreProv,
	FlagVectorStoreTgt,
	FlagVectorStoreColl,
	FlagEmbeddingProv,
	FlagEmbeddingTgt,
	FlagEmbeddingModel,
	FlagEmbeddingDims,
	FlagLLMProvider,
	FlagLLMModel,
	FlagLLMTarget,
	FlagCapture,
	FlagNamespace,
	FlagEventsProvider,
	FlagEventsTopic,
}

// StackFlagValues receives the parsed values of the shared stack flags.
// The values only matter to cobra; after BindRegisteredFlags the resolved
// configuration is read back through viper.
type StackFlagValues struct {
	VectorStoreProvider   string
	VectorStoreTarget     string
	VectorStoreCollection string

	EmbeddingProvider   string
	EmbeddingTarget     string
	EmbeddingModel      string
	EmbeddingDimensions uint

	LLMProvider string
	LLMModel    string
	LLMTarget   string

	Capture   string
	Namespace string

	EventsProvider string
	EventsTopic    string
}

// AddStackFlags registers the shared memory stack flags on cmd.
func AddStackFlags(cmd *cobra.Command, fs FlagSet, vals *StackFlagValues) {
	AddStringFlag(cmd, fs, FlagVectorStoreProv, &vals.VectorStoreProvider)
	AddStringFlag(cmd, fs, FlagVectorStoreTgt, &vals.VectorStoreTarget)
	AddStringFlag(cmd, fs, FlagVectorStoreColl, &vals.VectorStoreCollection)
	AddStringFlag(cmd, fs, FlagEmbeddingProv, &vals.EmbeddingProvider)
	AddStringFlag(cmd, fs, FlagEmbeddingTgt, &vals.EmbeddingTarget)
	AddStringFlag(cmd, fs, FlagEmbeddingModel, &vals.EmbeddingModel)
	AddUintFlag(cmd, fs, FlagEmbeddingDims, &vals.EmbeddingDimensions)
	AddStringFlag(cmd, fs, FlagLLMProvider, &vals.LLMProvider)
	AddStringFlag(cmd, fs, FlagLLMModel, &vals.LLMModel)
	AddStringFlag(cmd, fs, FlagLLMTarget, &vals.LLMTarget)
	AddStringFlag(cmd, fs, FlagCapture, &vals.Capture)
	AddStringFlag(cmd, fs, FlagNamespace, &vals.Namespace)
	AddStringFlag(cmd, fs, FlagEventsProvider, &vals.EventsProvider)
	AddStringFlag(cmd, fs, FlagEventsTopic, &vals.EventsTopic)
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
