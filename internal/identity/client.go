// Package identity resolves bearer tokens to usernames through the identity provider.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PoolHeader carries the identity pool the token must belong to
const PoolHeader = "X-Identity-Pool-Id"

// Config holds identity provider settings
type Config struct {
	Endpoint string
	PoolID   string
	Timeout  time.Duration
}

// Client calls the provider's userinfo endpoint
type Client struct {
	endpoint   string
	poolID     string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("identity endpoint is required")
	}
	if strings.TrimSpace(cfg.PoolID) == "" {
		return nil, errors.New("identity pool id is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		endpoint:   endpoint,
		poolID:     cfg.PoolID,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type userInfo struct {
	Username string `json:"username"`
}

// Resolve returns the username the token was issued to
func (c *Client) Resolve(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/userinfo", nil)
	if err != nil {
		return "", fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(PoolHeader, c.poolID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read userinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decode userinfo response: %w", err)
	}
	if info.Username == "" {
		return "", errors.New("userinfo response has no username")
	}
	return info.Username, nil
}

// PerCallService builds a fresh Client for every resolution instead of sharing one
// handle for the process lifetime.
type PerCallService struct {
	cfg Config
}

func NewPerCallService(cfg Config) (*PerCallService, error) {
	if _, err := NewClient(cfg); err != nil {
		return nil, err
	}
	return &PerCallService{cfg: cfg}, nil
}

func (s *PerCallService) Resolve(ctx context.Context, token string) (string, error) {
	client, err := NewClient(s.cfg)
	if err != nil {
		return "", err
	}
	return client.Resolve(ctx, token)
}
