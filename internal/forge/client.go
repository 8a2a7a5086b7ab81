// Package forge is the REST client for the issue-tracking platform: posting
// issue comments (the bot's only user-visible output) and reading files from
// repositories through the contents API.
package forge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Commenter is the slice of the forge the gateway needs for replies.
type Commenter interface {
	PostComment(ctx context.Context, owner, repo string, issueNumber int, body string) error
}

// Client talks to the forge REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// SetHTTPClient overrides the transport (for testing).
func (c *Client) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

// PostComment creates one comment on an issue thread.
func (c *Client) PostComment(ctx context.Context, owner, repo string, issueNumber int, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, issueNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create comment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post comment: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// GetFileContents reads a file via the contents API. The forge returns file
// bodies base64-encoded.
func (c *Client) GetFileContents(ctx context.Context, owner, repo, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create contents request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get contents %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get contents %s: unexpected status %d", path, resp.StatusCode)
	}

	var result struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode contents response: %w", err)
	}
	if result.Type != "file" {
		return nil, fmt.Errorf("contents %s: not a file (%s)", path, result.Type)
	}

	// Content arrives base64-encoded, possibly with embedded newlines.
	cleaned := strings.ReplaceAll(result.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode contents %s: %w", path, err)
	}
	return data, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
