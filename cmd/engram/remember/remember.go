// Package remembercmder provides the remember command for storing one fact
// directly through a running Engram API server.
package remembercmder

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
	"github.com/papercomputeco/engram/pkg/memory"
)

const rememberLongDesc string = `Store one fact directly, bypassing extraction.

The text is persisted as-is with tool-invocation provenance. Use --category
to label it; uncategorized facts default to "general".

Categories: preference, decision, project, technical, fact, general

Examples:
  engram remember "prefers rebase over merge for feature branches"
  engram remember "the staging cluster lives in eu-west-1" --category technical`

const rememberShortDesc string = "Store one fact directly"

type rememberCommander struct {
	text      string
	category  string
	apiTarget string
}

func NewRememberCmd() *cobra.Command {
	cmder := &rememberCommander{}

	cmd := &cobra.Command{
		Use:   "remember <text>",
		Short: rememberShortDesc,
		Long:  rememberLongDesc,
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
			cmder.text = args[0]
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.category, "category", "c", "", "Category label for the fact")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Engram API server URL")

	return cmd
}

func (c *rememberCommander) run() error {
	rec, err := StoreAPI(c.apiTarget, c.text, c.category)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Remembered %s %s\n",
		cliui.SuccessMark,
		cliui.CategoryStyle.Render("["+string(rec.Category)+"]"),
		cliui.ValueStyle.Render(rec.Text),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("id: "+rec.ID))
	return nil
}

// StoreAPI persists one fact through the engram memories endpoint.
func StoreAPI(apiTarget, text, category string) (*memory.Record, error) {
	storeURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	storeURL.Path = "/v1/memories"

	payload, err := json.Marshal(api.StoreRequest{Text: text, Category: category})
	if err != nil {
		return nil, fmt.Errorf("encoding store request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodPost, storeURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating store request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Engram API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("store request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var rec memory.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse store response: %w", err)
	}

	return &rec, nil
}
