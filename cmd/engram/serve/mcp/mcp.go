// Package mcpcmder provides the standalone MCP server cobra command.
package mcpcmder

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apimcp "github.com/papercomputeco/engram/api/mcp"
	"github.com/papercomputeco/engram/pkg/config"
	"github.com/papercomputeco/engram/pkg/logger"
	memoryutils "github.com/papercomputeco/engram/pkg/memory/utils"
)

type mcpCommander struct {
	listen string
	noop   bool
	stack  config.StackFlagValues

	configDir string
	debug     bool
	cfg       *config.Config
	logger    *zap.Logger
}

const mcpLongDesc string = `Run the Engram MCP server.

Exposes the memory tools (memory_recall, memory_store, memory_search,
memory_forget) over the Model Context Protocol's streamable HTTP transport
for agents that consume memory as tool calls.

Use --noop to serve an MCP endpoint with no tools registered, for clients
that require the endpoint to exist while memory is disabled.`

const mcpShortDesc string = "Run the Engram MCP server"

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			keys := append([]string{config.FlagMCPListenStandalone}, config.StackFlagKeys...)
			config.BindRegisteredFlags(v, cmd, config.DefaultFlags, keys)

			cmder.cfg = config.ConfigFromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagMCPListenStandalone, &cmder.listen)
	config.AddStackFlags(cmd, config.DefaultFlags, &cmder.stack)
	cmd.Flags().BoolVar(&cmder.noop, "noop", false, "Serve an MCP endpoint with no tools registered")

	return cmd
}

func (c *mcpCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.noop {
		server, err := apimcp.NewServer(apimcp.Config{Noop: true})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}

		c.logger.Info("starting MCP server with no tools",
			zap.String("listen", c.cfg.MCP.Listen),
		)
		return server.Run(c.cfg.MCP.Listen)
	}

	stack, err := memoryutils.NewStack(&memoryutils.NewStackOpts{
		Config:    c.cfg,
		ConfigDir: c.configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer stack.Close()

	server, err := apimcp.NewServer(apimcp.Config{
		Memory: stack.Manager,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	c.logger.Info("starting MCP server",
		zap.String("listen", c.cfg.MCP.Listen),
		zap.String("vector_store", c.cfg.VectorStore.Provider),
		zap.String("namespace", c.cfg.Memory.Namespace),
	)

	return server.Run(c.cfg.MCP.Listen)
}
