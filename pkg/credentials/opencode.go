package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReadOpenCodeAuthFile reads ~/.local/share/opencode/auth.json and returns its
// contents and path. Returns nil, "" if the file cannot be read.
func ReadOpenCodeAuthFile() ([]byte, string) {
	// OpenCode stores auth at $XDG_DATA_HOME/opencode/auth.json,
	// defaulting to ~/.local/share/opencode/auth.json.
	var dataDir string
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		dataDir = xdg
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, ""
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	authPath := filepath.Join(dataDir, "opencode", "auth.json")
	data, err := os.ReadFile(authPath)
	if err != nil {
		return nil, ""
	}

	return data, authPath
}

// ExtractOpenCodeAPIKey pulls the stored API key for a provider out of the
// opencode auth JSON so an existing opencode login can seed engram
// credentials. Only "api" type entries carry a usable key.
// Returns "", false if the JSON cannot be processed or holds no key.
func ExtractOpenCodeAPIKey(data []byte, provider string) (string, bool) {
	var auth map[string]struct {
		Type string `json:"type"`
		Key  string `json:"key"`
	}
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", false
	}

	entry, ok := auth[provider]
	if !ok || entry.Type != "api" || entry.Key == "" {
		return "", false
	}

	return entry.Key, true
}
