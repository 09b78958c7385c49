// GitHub Copilot provider.
//
// Copilot authenticates in two steps: the editor OAuth token is exchanged
// at the token endpoint for a short-lived bearer token, which then
// authorizes the completion request. The completion response is a raw
// "data: …\n\n" event stream handed to the stream decoder.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/stream"
)

const (
	copilotTokenURL      = "https://api.github.com/copilot_internal/v2/token"
	copilotCompletionURL = "https://api.githubcopilot.com/chat/completions"
	copilotModelsURL     = "https://api.githubcopilot.com/models"

	// Copilot rejects requests without a recognized agent.
	copilotUserAgent = "curl/8.7.1"

	editorVersion       = "Neovim/0.11.1"
	editorPluginVersion = "pilotchat"
	integrationID       = "vscode-chat"
)

// CopilotProvider implements Provider for the GitHub Copilot chat API.
type CopilotProvider struct {
	auth       *CopilotAuth
	httpClient *http.Client

	// Endpoints are fields so tests can point them at a local server.
	tokenURL      string
	completionURL string
	modelsURL     string
}

// NewCopilotProvider creates a Copilot provider using auth for the token
// exchange.
func NewCopilotProvider(auth *CopilotAuth) *CopilotProvider {
	return &CopilotProvider{
		auth:          auth,
		httpClient:    &http.Client{},
		tokenURL:      copilotTokenURL,
		completionURL: copilotCompletionURL,
		modelsURL:     copilotModelsURL,
	}
}

// Name returns the provider name.
func (p *CopilotProvider) Name() string {
	return "copilot"
}

// completionBody is the request payload for the completion endpoint.
type completionBody struct {
	Temperature float32        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
	Model       string         `json:"model"`
	Stream      bool           `json:"stream"`
	Messages    []chat.Message `json:"messages"`
}

// tokenResponse carries the short-lived bearer token.
type tokenResponse struct {
	Token string `json:"token"`
}

// Stream sends the completion request and returns a source decoding the
// response event stream.
func (p *CopilotProvider) Stream(ctx context.Context, req Request) (stream.Source, error) {
	bearer, err := p.exchangeToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(completionBody{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Model:       req.Model,
		Stream:      true,
		Messages:    req.Messages,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	requestID := uuid.NewString()
	zap.L().Info("sending completion request",
		zap.String("request_id", requestID),
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.completionURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	p.setHeaders(httpReq, bearer)
	httpReq.Header.Set("X-Request-Id", requestID)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		zap.L().Error("completion request rejected",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("completion request: status %d: %s", resp.StatusCode, detail)
	}

	return stream.NewEventSource(resp.Body), nil
}

// Models lists the model ids available to this account.
func (p *CopilotProvider) Models(ctx context.Context) ([]string, error) {
	bearer, err := p.exchangeToken(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.modelsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	p.setHeaders(httpReq, bearer)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("models request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("models request: status %d", resp.StatusCode)
	}

	var parsed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// exchangeToken trades the OAuth token for a short-lived bearer token.
func (p *CopilotProvider) exchangeToken(ctx context.Context) (string, error) {
	if p.auth == nil || p.auth.Token() == "" {
		return "", fmt.Errorf("copilot oauth token not available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Authorization", "token "+p.auth.Token())
	req.Header.Set("User-Agent", copilotUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: status %d", resp.StatusCode)
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("token exchange: empty token")
	}
	return parsed.Token, nil
}

func (p *CopilotProvider) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Copilot-Integration-Id", integrationID)
	req.Header.Set("Editor-Version", editorVersion)
	req.Header.Set("Editor-Plugin-Version", editorPluginVersion)
	req.Header.Set("User-Agent", copilotUserAgent)
}

// Verify CopilotProvider implements Provider and ModelLister
var (
	_ Provider    = (*CopilotProvider)(nil)
	_ ModelLister = (*CopilotProvider)(nil)
)
