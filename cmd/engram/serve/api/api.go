// Package apicmder provides the standalone REST API server cobra command.
package apicmder

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/engram/api"
	"github.com/papercomputeco/engram/api/worker"
	"github.com/papercomputeco/engram/pkg/config"
	"github.com/papercomputeco/engram/pkg/logger"
	memoryutils "github.com/papercomputeco/engram/pkg/memory/utils"
)

type apiCommander struct {
	listen string
	stack  config.StackFlagValues

	configDir string
	debug     bool
	cfg       *config.Config
	logger    *zap.Logger
}

const apiLongDesc string = `Run the Engram REST API server.

Serves recall, capture, and the direct memory operations over HTTP. Captures
run on a background worker so the agent's turn is never blocked on fact
extraction.`

const apiShortDesc string = "Run the Engram REST API server"

func NewAPICmd() *cobra.Command {
	cmder := &apiCommander{}

	cmd := &cobra.Command{
		Use:   "api",
		Short: apiShortDesc,
		Long:  apiLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			keys := append([]string{config.FlagAPIListenStandalone}, config.StackFlagKeys...)
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

	config.AddStringFlag(cmd, config.DefaultFlags, config.FlagAPIListenStandalone, &cmder.listen)
	config.AddStackFlags(cmd, config.DefaultFlags, &cmder.stack)

	return cmd
}

func (c *apiCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

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

	server := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
	}, stack.Manager, pool, c.logger)

	c.logger.Info("starting API server",
		zap.String("listen", c.cfg.API.Listen),
		zap.String("vector_store", c.cfg.VectorStore.Provider),
		zap.String("capture", c.cfg.Memory.Capture),
	)

	return server.Run()
}
