// Package servecmder provides the serve command with subcommands for running services.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/api"
	apimcp "github.com/papercomputeco/engram/api/mcp"
	"github.com/papercomputeco/engram/api/worker"
	apicmder "github.com/papercomputeco/engram/cmd/engram/serve/api"
	mcpcmder "github.com/papercomputeco/engram/cmd/engram/serve/mcp"
	"github.com/papercomputeco/engram/pkg/config"
	"github.com/papercomputeco/engram/pkg/logger"
	memoryutils "github.com/papercomputeco/engram/pkg/memory/utils"
)

type ServeCommander struct {
	apiListen string
	mcpListen string
	stack     config.StackFlagValues

	configDir string
	debug     bool
	cfg       *config.Config
	logger    *zap.Logger
}

const serveLongDesc string = `Run Engram services.

Use subcommands to run individual services or all services together:
  engram serve         Run both the REST API and MCP servers together
  engram serve api     Run just the REST API server
  engram serve mcp     Run just the MCP server

Both servers share one memory stack: embedder, vector store, optional LLM
capture backend, and event publisher.`

const serveShortDesc string = "Run Engram services"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			keys := append([]string{config.FlagAPIListen, config.FlagMCPListen}, config.StackFlagKeys...)
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

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagMCPListen, &cmder.mcpListen)
	config.AddStackFlags(cmd, config.DefaultFlags, &cmder.stack)

	cmd.AddCommand(apicmder.NewAPICmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	// Create the shared memory stack
	stack, err := memoryutils.NewStack(&memoryutils.NewStackOpts{
		Config:    c.cfg,
		ConfigDir: c.configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer stack.Close()

	pool, err := worker.NewPool(&worker.Config{
		Capturer: stack.Manager,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating capture worker pool: %w", err)
	}
	defer pool.Close()

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
	}, stack.Manager, pool, c.logger)

	mcpServer, err := apimcp.NewServer(apimcp.Config{
		Memory: stack.Manager,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	c.logger.Info("starting engram services",
		zap.String("api_listen", c.cfg.API.Listen),
		zap.String("mcp_listen", c.cfg.MCP.Listen),
		zap.String("vector_store", c.cfg.VectorStore.Provider),
		zap.String("capture", c.cfg.Memory.Capture),
		zap.String("namespace", c.cfg.Memory.Namespace),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go func() {
		if err := mcpServer.Run(c.cfg.MCP.Listen); err != nil {
			errChan <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		if err := mcpServer.Shutdown(); err != nil {
			c.logger.Warn("MCP server shutdown failed", zap.Error(err))
		}
		if err := apiServer.Shutdown(); err != nil {
			c.logger.Warn("API server shutdown failed", zap.Error(err))
		}
		return nil
	}
}
