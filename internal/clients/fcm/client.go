package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/glowplan/selfcare-backend/internal/logger"
	"github.com/glowplan/selfcare-backend/internal/utils"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// Client fans a push notification out to a user's registered device tokens
// through the FCM HTTP v1 API.
type Client interface {
	SendMulticast(ctx context.Context, req MulticastRequest) (*MulticastResult, error)
}

type MulticastRequest struct {
	Tokens       []string
	Notification Notification
	Data         map[string]string
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// MulticastResult reports per-recipient fan-out. A partial failure still
// counts as a delivered reminder when at least one token succeeded.
type MulticastResult struct {
	SuccessCount int
	FailureCount int
}

type Config struct {
	ProjectID string
	BaseURL   string
	Timeout   time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("FCM_TIMEOUT_SECONDS", 10, log)
	return Config{
		ProjectID: strings.TrimSpace(os.Getenv("FCM_PROJECT_ID")),
		BaseURL:   strings.TrimSpace(os.Getenv("FCM_BASE_URL")),
		Timeout:   time.Duration(timeoutSec) * time.Second,
	}
}

func NewFromEnv(ctx context.Context, log *logger.Logger) (Client, error) {
	cfg := ConfigFromEnv(log)
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("missing FCM_PROJECT_ID")
	}
	creds, err := google.FindDefaultCredentials(ctx, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("fcm credentials: %w", err)
	}
	return New(log, cfg, creds.TokenSource)
}

func New(log *logger.Logger, cfg Config, tokenSource oauth2.TokenSource) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("fcm: project id required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://fcm.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if tokenSource != nil {
		httpClient.Transport = &oauth2.Transport{Source: tokenSource}
	}

	return &client{
		log:        log.With("client", "FCMClient"),
		cfg:        cfg,
		httpClient: httpClient,
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// --- FCM HTTP v1 wire types ---

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string            `json:"token"`
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *androidConfig    `json:"android,omitempty"`
	APNS         *apnsConfig       `json:"apns,omitempty"`
}

type androidConfig struct {
	Priority string `json:"priority,omitempty"`
}

type apnsConfig struct {
	Headers map[string]string `json:"headers,omitempty"`
	Payload map[string]any    `json:"payload,omitempty"`
}

// SendMulticast sends one message per token. The v1 API has no multicast
// endpoint, so the batch is a sequential fan-out; individual token failures
// are tallied, not returned.
func (c *client) SendMulticast(ctx context.Context, req MulticastRequest) (*MulticastResult, error) {
	if len(req.Tokens) == 0 {
		return &MulticastResult{}, nil
	}

	result := &MulticastResult{}
	var lastErr error
	for _, token := range req.Tokens {
		if err := c.sendOne(ctx, token, req); err != nil {
			result.FailureCount++
			lastErr = err
			c.log.Debug("push token send failed", "error", err)
			continue
		}
		result.SuccessCount++
	}
	if result.SuccessCount == 0 && lastErr != nil {
		return result, fmt.Errorf("fcm: all %d tokens failed: %w", len(req.Tokens), lastErr)
	}
	return result, nil
}

func (c *client) sendOne(ctx context.Context, token string, req MulticastRequest) error {
	payload := sendRequest{
		Message: message{
			Token:        token,
			Notification: req.Notification,
			Data:         req.Data,
			Android:      &androidConfig{Priority: "high"},
			APNS: &apnsConfig{
				Headers: map[string]string{"apns-priority": "10"},
				Payload: map[string]any{"aps": map[string]any{"sound": "default"}},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.cfg.BaseURL, c.cfg.ProjectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("fcm: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
