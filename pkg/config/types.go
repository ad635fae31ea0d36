package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent engram configuration stored as config.toml
// in the .engram/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	MCP         MCPConfig         `toml:"mcp"`
	Client      ClientConfig      `toml:"client"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	LLM         LLMConfig         `toml:"llm"`
	Memory      MemoryConfig      `toml:"memory"`
	Events      EventsConfig      `toml:"events"`
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// engram server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// LLMConfig holds completion backend settings for LLM-backed extraction and
// reconciliation.
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// MemoryConfig holds memory layer settings.
type MemoryConfig struct {
	// Capture selects the extraction strategy: "heuristic" or "llm".
	Capture   string `toml:"capture,omitempty"`
	Namespace string `toml:"namespace,omitempty"`
	TopK      int    `toml:"top_k,omitempty"`

	RelevanceThreshold float32 `toml:"relevance_threshold,omitempty"`
	UpdateThreshold    float32 `toml:"update_threshold,omitempty"`
	DeleteThreshold    float32 `toml:"delete_threshold,omitempty"`
	DedupThreshold     float32 `toml:"dedup_threshold,omitempty"`

	MinFactLength int `toml:"min_fact_length,omitempty"`
	MaxFactLength int `toml:"max_fact_length,omitempty"`
}

// EventsConfig holds event stream settings.
type EventsConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of Kafka broker addresses.
	Brokers string `toml:"brokers,omitempty"`

	Topic string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func floatKey(get func(c *Config) *float32, name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			f := *get(c)
			if f == 0 {
				return ""
			}
			return strconv.FormatFloat(float64(f), 'f', -1, 32)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = float32(f)
			return nil
		},
	}
}

func intKey(get func(c *Config) *int, name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			n := *get(c)
			if n == 0 {
				return ""
			}
			return strconv.Itoa(n)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"mcp.listen": {
		get: func(c *Config) string { return c.MCP.Listen },
		set: func(c *Config, v string) error { c.MCP.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.collection": {
		get: func(c *Config) string { return c.VectorStore.Collection },
		set: func(c *Config, v string) error { c.VectorStore.Collection = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.target": {
		get: func(c *Config) string { return c.LLM.Target },
		set: func(c *Config, v string) error { c.LLM.Target = v; return nil },
	},
	"memory.capture": {
		get: func(c *Config) string { return c.Memory.Capture },
		set: func(c *Config, v string) error { c.Memory.Capture = v; return nil },
	},
	"memory.namespace": {
		get: func(c *Config) string { return c.Memory.Namespace },
		set: func(c *Config, v string) error { c.Memory.Namespace = v; return nil },
	},
	"memory.top_k":               intKey(func(c *Config) *int { return &c.Memory.TopK }, "memory.top_k"),
	"memory.relevance_threshold": floatKey(func(c *Config) *float32 { return &c.Memory.RelevanceThreshold }, "memory.relevance_threshold"),
	"memory.update_threshold":    floatKey(func(c *Config) *float32 { return &c.Memory.UpdateThreshold }, "memory.update_threshold"),
	"memory.delete_threshold":    floatKey(func(c *Config) *float32 { return &c.Memory.DeleteThreshold }, "memory.delete_threshold"),
	"memory.dedup_threshold":     floatKey(func(c *Config) *float32 { return &c.Memory.DedupThreshold }, "memory.dedup_threshold"),
	"memory.min_fact_length":     intKey(func(c *Config) *int { return &c.Memory.MinFactLength }, "memory.min_fact_length"),
	"memory.max_fact_length":     intKey(func(c *Config) *int { return &c.Memory.MaxFactLength }, "memory.max_fact_length"),
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
