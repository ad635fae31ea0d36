// Package forgetcmder provides the forget command for deleting memories
// through a running Engram API server.
package forgetcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/engram/api"
	searchcmder "github.com/papercomputeco/engram/cmd/engram/search"
	"github.com/papercomputeco/engram/pkg/cliui"
	"github.com/papercomputeco/engram/pkg/config"
	"github.com/papercomputeco/engram/pkg/utils"
)

// queryCandidateLimit bounds how many candidates a query-based forget fetches
// for disambiguation.
const queryCandidateLimit = 5

const forgetLongDesc string = `Delete a memory by ID or by query.

With an ID argument, deletes that memory directly. With --query, searches
for matching memories: a single confident match is deleted, anything
ambiguous is listed with IDs so you can forget the right one explicitly.

Examples:
  engram forget 2f1c8a7e-4b3d-4f6a-9c1e-8d7b6a5f4e3d
  engram forget --query "old timezone"`

const forgetShortDesc string = "Delete a memory"

type forgetCommander struct {
	id        string
	query     string
	apiTarget string
}

func NewForgetCmd() *cobra.Command {
	cmder := &forgetCommander{}

	cmd := &cobra.Command{
		Use:   "forget [id]",
		Short: forgetShortDesc,
		Long:  forgetLongDesc,
		Args:  cobra.MaximumNArgs(1),
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
			if len(args) == 1 {
				cmder.id = args[0]
			}
			if (cmder.id == "") == (cmder.query == "") {
				return fmt.Errorf("provide exactly one of an id argument or --query")
			}
			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.query, "query", "q", "", "Delete by query instead of ID")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Engram API server URL")

	return cmd
}

func (c *forgetCommander) run() error {
	if c.id != "" {
		return c.forgetByID(c.id)
	}
	return c.forgetByQuery()
}

func (c *forgetCommander) forgetByID(id string) error {
	output, err := ForgetAPI(c.apiTarget, id)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s Forgot memory %s\n\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(output.DeletedID),
	)
	return nil
}

// forgetByQuery deletes a single confident match, or lists the candidates
// for explicit forgetting when the match is ambiguous.
func (c *forgetCommander) forgetByQuery() error {
	results, err := searchcmder.SearchAPI(c.apiTarget, c.query, queryCandidateLimit)
	if err != nil {
		return err
	}

	if results.Count == 0 {
		fmt.Printf("\n  %s No memories match %q.\n\n", cliui.DimStyle.Render("●"), c.query)
		return nil
	}

	if results.Count == 1 {
		// The search endpoint does not expose scores, so confirm via a
		// scored lookup would cost another round trip; a unique match
		// for the query is confident enough to delete.
		return c.forgetByID(results.Results[0].ID)
	}

	fmt.Printf("\n  %s %q matches %d memories. Forget one by ID:\n\n",
		cliui.WarnStyle.Render("!"), c.query, results.Count)

	for _, rec := range results.Results {
		text := utils.Truncate(strings.ReplaceAll(rec.Text, "\n", " "), 80)
		fmt.Printf("  %s %s %s\n",
			cliui.DimStyle.Render(rec.ID),
			cliui.CategoryStyle.Render("["+string(rec.Category)+"]"),
			cliui.ValueStyle.Render(text),
		)
	}
	fmt.Println()

	return nil
}

// ForgetAPI deletes one memory through the engram memories endpoint.
func ForgetAPI(apiTarget, id string) (*api.ForgetResponse, error) {
	forgetURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	forgetURL.Path = "/v1/memories/" + url.PathEscape(id)

	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodDelete, forgetURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating forget request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Engram API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forget request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.ForgetResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse forget response: %w", err)
	}

	return &output, nil
}
