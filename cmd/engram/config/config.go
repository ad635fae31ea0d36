// Package configcmder provides the config command for managing persistent
// engram configuration stored in the .engram/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent engram configuration.

Configuration is stored as config.toml in the .engram/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values, and ENGRAM_ environment variables sit between the two.

Keys use dotted notation matching the TOML section structure:
  api.listen, mcp.listen, client.api_target,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  llm.provider, llm.model, llm.target,
  memory.capture, memory.namespace, memory.top_k,
  memory.relevance_threshold, memory.update_threshold,
  memory.delete_threshold, memory.dedup_threshold,
  memory.min_fact_length, memory.max_fact_length,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  engram config set <key> <value>   Set a configuration value
  engram config get <key>           Get a configuration value
  engram config list                List all configuration values
  engram config preset <name>       Apply a provider preset

Examples:
  engram config set memory.capture llm
  engram config set llm.provider anthropic
  engram config get vector_store.provider
  engram config preset openai
  engram config list`

const configShortDesc string = "Manage persistent engram configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}
