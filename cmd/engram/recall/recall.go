// Package recallcmder provides the recall command for fetching relevant
// memories from a running Engram API server.
package recallcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/engram/api"
	"github.com/papercomputeco/engram/pkg/cliui"
	"github.com/papercomputeco/engram/pkg/config"
)

const recallLongDesc string = `Fetch memories relevant to a prompt.

Sends the prompt to a running Engram API server and prints the recalled
memory block, ready for injection into an agent's context. Prints nothing
when no stored memory clears the relevance threshold.

Use --raw to print the block exactly as it would be injected, without
terminal rendering. This is the form to use when piping into a prompt.

Examples:
  engram recall "what editor setup does the user like?"
  engram recall "deploy steps for the billing service" --raw
  engram recall "project goals" --api-target http://localhost:8733`

const recallShortDesc string = "Fetch memories relevant to a prompt"

type recallCommander struct {
	prompt    string
	raw       bool
	apiTarget string
}

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	cmd := &cobra.Command{
		Use:   "recall <prompt>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			cmder.prompt = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the raw memory block without terminal rendering")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Engram API server URL")

	return cmd
}

func (c *recallCommander) run() error {
	block, err := RecallAPI(c.apiTarget, c.prompt)
	if err != nil {
		return err
	}

	if block == "" {
		if !c.raw {
			fmt.Printf("\n  %s No relevant memories.\n\n", cliui.DimStyle.Render("●"))
		}
		return nil
	}

	if c.raw {
		fmt.Println(block)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(block)
	if err != nil {
		// Fall back to the raw block when the terminal renderer fails.
		fmt.Println(block)
		return nil
	}

	fmt.Print(rendered)
	return nil
}

// RecallAPI calls the engram recall endpoint and returns the memory block.
func RecallAPI(apiTarget, prompt string) (string, error) {
	recallURL, err := url.Parse(apiTarget)
	if err != nil {
		return "", fmt.Errorf("invalid API target URL: %w", err)
	}
	recallURL.Path = "/v1/recall"

	payload, err := json.Marshal(api.RecallRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encoding recall request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodPost, recallURL.String(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating recall request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Engram API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("recall request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.RecallResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return "", fmt.Errorf("failed to parse recall response: %w", err)
	}

	return output.Context, nil
}
