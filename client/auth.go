package client

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// CopilotAuth holds the long-lived GitHub OAuth token exchanged for the
// short-lived bearer token on every request.
type CopilotAuth struct {
	oauthToken string
}

// appEntry is one entry of the github-copilot apps.json file, keyed by
// "github.com:<app-id>".
type appEntry struct {
	OAuthToken string `json:"oauth_token"`
}

// LoadAuth reads the Copilot OAuth token from the apps.json file written
// by the GitHub Copilot editor plugins.
func LoadAuth(path string) (*CopilotAuth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file %s: %w", path, err)
	}

	var apps map[string]appEntry
	if err := json.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}

	// Deterministic pick when several apps are registered.
	keys := make([]string, 0, len(apps))
	for k := range apps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if token := apps[k].OAuthToken; token != "" {
			return &CopilotAuth{oauthToken: token}, nil
		}
	}
	return nil, fmt.Errorf("no oauth token in %s", path)
}

// Token returns the OAuth token.
func (a *CopilotAuth) Token() string {
	return a.oauthToken
}
