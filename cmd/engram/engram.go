// Package engramcmder
package engramcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/engram/cmd/engram/auth"
	capturecmder "github.com/papercomputeco/engram/cmd/engram/capture"
	configcmder "github.com/papercomputeco/engram/cmd/engram/config"
	forgetcmder "github.com/papercomputeco/engram/cmd/engram/forget"
	initcmder "github.com/papercomputeco/engram/cmd/engram/init"
	recallcmder "github.com/papercomputeco/engram/cmd/engram/recall"
	remembercmder "github.com/papercomputeco/engram/cmd/engram/remember"
	searchcmder "github.com/papercomputeco/engram/cmd/engram/search"
	servecmder "github.com/papercomputeco/engram/cmd/engram/serve"
	versioncmder "github.com/papercomputeco/engram/cmd/version"
)

const engramLongDesc string = `Engram is a long-term memory layer for conversational agents.

Run services using:
  engram serve api     Run the REST API server
  engram serve mcp     Run the MCP server
  engram serve         Run both servers together

Work with memories through a running server:
  engram recall        Fetch memories relevant to a prompt
  engram capture       Extract and store facts from a conversation turn
  engram remember      Store one fact directly
  engram search        Search stored memories
  engram forget        Delete a memory`

const engramShortDesc string = "Engram - Agent Memory"

func NewEngramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engram",
		Short: engramShortDesc,
		Long:  engramLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .engram directory location")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(capturecmder.NewCaptureCmd())
	cmd.AddCommand(remembercmder.NewRememberCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(forgetcmder.NewForgetCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
