// Package capturecmder provides the capture command for extracting and
// storing facts from a conversation turn through a running Engram API server.
package capturecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/engram/api"
	"github.com/papercomputeco/engram/pkg/cliui"
	"github.com/papercomputeco/engram/pkg/config"
	"github.com/papercomputeco/engram/pkg/logger"
	"github.com/papercomputeco/engram/pkg/memory"
)

const captureLongDesc string = `Extract and store facts from a conversation turn.

Reads a turn transcript as JSON from a file argument or stdin and submits it
to a running Engram API server for fact extraction and reconciliation. The
transcript is an array of messages:

  [
    {"role": "user", "text": "I prefer dark mode in all my editors"},
    {"role": "assistant", "text": "Noted. I'll assume dark themes."}
  ]

By default the server queues the capture and acknowledges immediately. Use
--wait to run it on the request path and report what changed.

Examples:
  engram capture turn.json
  cat turn.json | engram capture
  engram capture turn.json --wait`

const captureShortDesc string = "Extract and store facts from a conversation turn"

type captureCommander struct {
	path      string
	wait      bool
	apiTarget string

	debug  bool
	logger *slog.Logger
}

func NewCaptureCmd() *cobra.Command {
	cmder := &captureCommander{}

	cmd := &cobra.Command{
		Use:   "capture [file]",
		Short: captureShortDesc,
		Long:  captureLongDesc,
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
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.path = args[0]
			}

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVarP(&cmder.wait, "wait", "w", false, "Run the capture synchronously and report stats")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Engram API server URL")

	return cmd
}

func (c *captureCommander) run() error {
	c.logger = logger.New(logger.WithPretty(true), logger.WithDebug(c.debug))

	messages, err := readTranscript(c.path)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return fmt.Errorf("transcript holds no messages")
	}

	c.logger.Debug("submitting turn", "api_target", c.apiTarget, "messages", len(messages), "wait", c.wait)

	var output *api.CaptureResponse
	if c.wait {
		// Synchronous captures run extraction and reconciliation on the
		// request path, which can take a moment with an LLM backend.
		err = cliui.Step(os.Stdout, "Capturing turn", func() error {
			output, err = CaptureAPI(c.apiTarget, messages, true)
			return err
		})
	} else {
		output, err = CaptureAPI(c.apiTarget, messages, false)
	}
	if err != nil {
		return err
	}

	if output.Queued {
		fmt.Printf("\n  %s Capture queued %s\n\n",
			cliui.SuccessMark,
			cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(messages))),
		)
		return nil
	}

	total := output.Added + output.Updated + output.Deleted + output.Unchanged
	if total == 0 {
		fmt.Printf("\n  %s Nothing captured from this turn.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Printf("\n  %s Captured turn: %s added, %s updated, %s deleted, %s unchanged\n\n",
		cliui.SuccessMark,
		cliui.ValueStyle.Render(fmt.Sprintf("%d", output.Added)),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", output.Updated)),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", output.Deleted)),
		cliui.DimStyle.Render(fmt.Sprintf("%d", output.Unchanged)),
	)
	return nil
}

// readTranscript loads turn messages from the given path, or stdin when the
// path is empty or "-".
func readTranscript(path string) ([]memory.Message, error) {
	var data []byte
	var err error

	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading transcript from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading transcript: %w", err)
		}
	}

	var messages []memory.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}

	return messages, nil
}

// CaptureAPI submits one turn to the engram capture endpoint.
func CaptureAPI(apiTarget string, messages []memory.Message, sync bool) (*api.CaptureResponse, error) {
	captureURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	captureURL.Path = "/v1/capture"

	payload, err := json.Marshal(api.CaptureRequest{Messages: messages, Sync: sync})
	if err != nil {
		return nil, fmt.Errorf("encoding capture request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodPost, captureURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating capture request: %w", err)
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("capture request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var output api.CaptureResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("failed to parse capture response: %w", err)
	}

	return &output, nil
}
