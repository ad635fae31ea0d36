// Package searchcmder provides the search command for semantic search over
// stored memories.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/engram/pkg/cliui"
	"github.com/papercomputeco/engram/pkg/config"
	"github.com/papercomputeco/engram/pkg/logger"
	"github.com/papercomputeco/engram/pkg/memory"
	"github.com/papercomputeco/engram/pkg/utils"
)

const searchLongDesc string = `Search stored memories via the Engram API.

Returns the most relevant memories for the query text, ranked by similarity.
Requires a running Engram API server.

Use --quiet to output only memory IDs, one per line. This is useful for
piping into engram forget.

Examples:
  engram search "editor preferences"
  engram search "deployment" --top 10
  engram search "old timezone" --quiet
  engram forget $(engram search "stale fact" --quiet --top 1)`

const searchShortDesc string = "Search stored memories"

// SearchOutput is the engram search endpoint's response shape.
type SearchOutput struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []memory.Record `json:"results"`
}

type searchCommander struct {
	query string
	topK  int
	quiet bool

	apiTarget string

	debug  bool
	logger *slog.Logger
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of results to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only memory IDs, one per line (for piping)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Engram API server URL")

	return cmd
}

func (c *searchCommander) run() error {
	c.logger = logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))
	c.logger.Debug("searching memories", "api_target", c.apiTarget, "top_k", c.topK)

	output, err := SearchAPI(c.apiTarget, c.query, c.topK)
	if err != nil {
		return err
	}

	if output.Count == 0 {
		if !c.quiet {
			fmt.Println("No memories found.")
		}
		return nil
	}

	if c.quiet {
		for _, rec := range output.Results {
			fmt.Println(rec.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		cliui.KeyStyle.Render("Memories for:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%q", output.Query)),
	)

	for i, rec := range output.Results {
		printResult(i+1, rec)
	}

	return nil
}

func printResult(rank int, rec memory.Record) {
	text := utils.Truncate(strings.ReplaceAll(rec.Text, "\n", " "), 100)

	fmt.Printf("  %s %s %s\n",
		cliui.ScoreStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.CategoryStyle.Render("["+string(rec.Category)+"]"),
		cliui.ValueStyle.Render(text),
	)

	meta := "id: " + rec.ID
	if !rec.CapturedAt.IsZero() {
		meta += "  captured: " + rec.CapturedAt.Format("2006-01-02")
	}
	if !rec.UpdatedAt.IsZero() {
		meta += "  updated: " + rec.UpdatedAt.Format("2006-01-02")
	}
	fmt.Printf("     %s\n\n", cliui.DimStyle.Render(meta))
}

// SearchAPI calls the engram search endpoint and returns the parsed output.
// Exported so other commands (e.g. forget by query) can reuse it.
func SearchAPI(apiTarget, query string, topK int) (*SearchOutput, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/v1/memories/search"
	q := searchURL.Query()
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(topK))
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
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
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output SearchOutput
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
