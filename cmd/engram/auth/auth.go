// Package authcmder provides the auth command for storing API credentials.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/engram/pkg/cliui"
	"github.com/papercomputeco/engram/pkg/credentials"
)

const authLongDesc string = `Store API credentials for LLM providers.

Credentials are stored in credentials.toml in the .engram/ directory and
used by LLM-backed fact extraction and reconciliation when capture mode
is set to "llm".

Supported providers: openai, anthropic

Examples:
  engram auth openai               Prompt for OpenAI API key
  engram auth anthropic            Prompt for Anthropic API key
  engram auth --list               List stored credentials
  engram auth --remove openai      Remove stored OpenAI credentials
  engram auth --import codex       Import the key from an existing codex login
  engram auth --import opencode    Import keys from an existing opencode login
  echo $KEY | engram auth openai   Pipe API key from stdin`

const authShortDesc string = "Store API credentials for LLM providers"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string
	var importFlag string

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			switch {
			case listFlag:
				return runList(configDir)
			case removeFlag != "":
				return runRemove(removeFlag, configDir)
			case importFlag != "":
				return runImport(importFlag, configDir)
			default:
				if len(args) == 0 {
					return fmt.Errorf("provider argument required\n\nSupported providers: %s",
						strings.Join(credentials.SupportedProviders(), ", "))
				}
				return runAuth(args[0], configDir)
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored credentials")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove stored credentials for a provider")
	cmd.Flags().StringVar(&importFlag, "import", "", "Import credentials from an existing agent login (codex, opencode)")

	return cmd
}

func runAuth(provider, configDir string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	if !credentials.IsSupportedProvider(provider) {
		return fmt.Errorf("unsupported provider: %q\n\nSupported providers: %s",
			provider, strings.Join(credentials.SupportedProviders(), ", "))
	}

	apiKey, err := readAPIKey(provider)
	if err != nil {
		return err
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.SetKey(provider, apiKey); err != nil {
		return err
	}

	envVar := credentials.EnvVarForProvider(provider)
	fmt.Printf("\n  %s Stored %s credentials %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(provider),
		cliui.DimStyle.Render("(resolves as "+envVar+")"),
	)

	return nil
}

func runList(configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	providers, err := mgr.ListProviders()
	if err != nil {
		return err
	}

	if len(providers) == 0 {
		fmt.Printf("\n  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Printf("  Use 'engram auth <provider>' to store credentials.\n")
		fmt.Printf("  Supported providers: %s\n\n", strings.Join(credentials.SupportedProviders(), ", "))
		return nil
	}

	fmt.Printf("\n  %s\n\n", cliui.KeyStyle.Render("Stored credentials"))
	for _, p := range providers {
		envVar := credentials.EnvVarForProvider(p)
		if envVar != "" {
			fmt.Printf("  %s  %s  %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(p),
				cliui.DimStyle.Render("→ "+envVar),
			)
		} else {
			fmt.Printf("  %s  %s\n", cliui.SuccessMark, cliui.NameStyle.Render(p))
		}
	}
	fmt.Println()

	return nil
}

func runRemove(provider, configDir string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveKey(provider); err != nil {
		return err
	}

	fmt.Printf("\n  %s Removed %s credentials.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(provider))

	return nil
}

// runImport seeds engram credentials from an existing agent CLI login so the
// key never has to be retyped.
func runImport(source, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(source)) {
	case "codex":
		return importCodex(mgr)
	case "opencode":
		return importOpenCode(mgr)
	default:
		return fmt.Errorf("unsupported import source: %q (expected codex or opencode)", source)
	}
}

func importCodex(mgr *credentials.Manager) error {
	data, path := credentials.ReadCodexAuthFile()
	if data == nil {
		return errors.New("no codex auth file found (~/.codex/auth.json)")
	}

	key, ok := credentials.ExtractCodexAPIKey(data)
	if !ok {
		return fmt.Errorf("no API key found in %s", path)
	}

	if err := mgr.SetKey("openai", key); err != nil {
		return err
	}

	fmt.Printf("\n  %s Imported %s credentials %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render("openai"),
		cliui.DimStyle.Render("(from "+path+")"),
	)
	return nil
}

func importOpenCode(mgr *credentials.Manager) error {
	data, path := credentials.ReadOpenCodeAuthFile()
	if data == nil {
		return errors.New("no opencode auth file found")
	}

	imported := 0
	for _, provider := range credentials.SupportedProviders() {
		key, ok := credentials.ExtractOpenCodeAPIKey(data, provider)
		if !ok {
			continue
		}
		if err := mgr.SetKey(provider, key); err != nil {
			return err
		}
		fmt.Printf("\n  %s Imported %s credentials %s\n",
			cliui.SuccessMark,
			cliui.NameStyle.Render(provider),
			cliui.DimStyle.Render("(from "+path+")"),
		)
		imported++
	}

	if imported == 0 {
		return fmt.Errorf("no usable API keys found in %s", path)
	}

	fmt.Println()
	return nil
}

// readAPIKey reads an API key from stdin. If stdin is a pipe, it reads the
// first line. Otherwise, it prompts interactively with hidden input.
func readAPIKey(provider string) (string, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return "", fmt.Errorf("checking stdin: %w", err)
	}

	// Piped input
	if (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return scanner.Text(), nil
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return "", errors.New("no input received on stdin")
	}

	// Interactive terminal
	envVar := credentials.EnvVarForProvider(provider)
	fmt.Printf("Enter API key for %s (%s): ", provider, envVar)

	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println() // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}

	return string(keyBytes), nil
}
