package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReadCodexAuthFile reads ~/.codex/auth.json and returns its contents and path.
// Returns nil, "" if the file cannot be read.
func ReadCodexAuthFile() ([]byte, string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, ""
	}

	authPath := filepath.Join(home, ".codex", "auth.json")
	data, err := os.ReadFile(authPath)
	if err != nil {
		return nil, ""
	}

	return data, authPath
}

// ExtractCodexAPIKey pulls OPENAI_API_KEY out of the codex auth JSON so an
// existing codex login can seed engram credentials without retyping the key.
// Returns "", false if the JSON cannot be processed or holds no key.
func ExtractCodexAPIKey(data []byte) (string, bool) {
	var auth struct {
		OpenAIAPIKey string `json:"OPENAI_API_KEY"`
	}
	if err := json.Unmarshal(data, &auth); err != nil {
		return "", false
	}

	if auth.OpenAIAPIKey == "" {
		return "", false
	}

	return auth.OpenAIAPIKey, true
}
