// Package bot implements the outbound Bot Connector client and the
// Adaptive Card builders Share Now sends through it.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"go.uber.org/zap"
)

// ErrNotRetryable marks connector failures that retrying cannot fix
// (4xx responses other than 429)
var ErrNotRetryable = errors.New("connector request not retryable")

// tokenTenant is the fixed tenant the Bot Framework issues service tokens from
const tokenTenant = "botframework.com"

// tokenScope is the client-credentials scope for connector calls
const tokenScope = "https://api.botframework.com/.default"

// Connector sends activities to Teams conversations through the Bot
// Framework Connector REST API.
type Connector interface {
	// SendToConversation posts an activity to the given conversation.
	// Delivery is retried with exponential backoff on 429 and 5xx.
	SendToConversation(ctx context.Context, serviceURL, conversationID string, activity *domain.Activity) error
}

// HTTPConnector is the production Connector implementation
type HTTPConnector struct {
	cfg        *config.BotConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewConnector creates a connector using the bot's app registration
func NewConnector(cfg *config.BotConfig, logger *zap.Logger) *HTTPConnector {
	return &HTTPConnector{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SendToConversation posts an activity to the conversation's activities
// endpoint, retrying transient failures up to the configured attempt cap.
func (c *HTTPConnector) SendToConversation(ctx context.Context, serviceURL, conversationID string, activity *domain.Activity) error {
	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		strings.TrimRight(serviceURL, "/"),
		url.PathEscape(conversationID),
	)

	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	maxAttempts := c.cfg.MaxDeliveryAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := c.cfg.RetryBackoffDuration()
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.post(ctx, endpoint, payload)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrNotRetryable) {
			return lastErr
		}

		c.logger.Warn("connector delivery failed",
			zap.String("conversation_id", conversationID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(lastErr),
		)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return fmt.Errorf("delivery failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *HTTPConnector) post(ctx context.Context, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// An empty app id means emulator mode, same as the authenticator:
	// no service token is attached
	if c.cfg.AppId != "" {
		token, err := c.getToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to get connector token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connector request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("connector returned %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("%w: connector returned %d: %s", ErrNotRetryable, resp.StatusCode, string(body))
}

// getToken returns a cached service token, refreshing it via the
// client-credentials grant shortly before expiry
func (c *HTTPConnector) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-1*time.Minute)) {
		return c.token, nil
	}

	tokenURL := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tokenTenant)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.cfg.AppId)
	data.Set("client_secret", c.cfg.AppPassword)
	data.Set("scope", tokenScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return c.token, nil
}
