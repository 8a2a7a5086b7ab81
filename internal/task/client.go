package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotFound is returned by Get when the task service has no record for the
// issue. A transport or server failure is never mapped to ErrNotFound.
var ErrNotFound = errors.New("task not found")

// Store is the slice of the task service the event processor needs.
type Store interface {
	Get(ctx context.Context, issueID int64) (*Task, error)
	Create(ctx context.Context, req CreateRequest) (*Task, error)
	UpdateScore(ctx context.Context, issueID int64, title string, score int) error
	UpdateStatus(ctx context.Context, issueID int64, status Status, student, candidate string) error
	SearchByMentor(ctx context.Context, repoID int64, mentor string) ([]Task, error)
}

// CreateRequest carries the fields the task service needs to open a task.
type CreateRequest struct {
	Repo        string `json:"repo"`
	Owner       string `json:"owner"`
	IssueNumber int    `json:"issue_number"`
	RepoID      int64  `json:"repo_id"`
	IssueID     int64  `json:"issue_id"`
	Score       int    `json:"score"`
	Mentor      string `json:"mentor_login"`
	IssueTitle  string `json:"issue_title"`
	IssueLink   string `json:"issue_link"`
}

// Client talks to the external task service over REST.
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

func (c *Client) Get(ctx context.Context, issueID int64) (*Task, error) {
	var t Task
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/task/issue/%d", issueID), nil, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodPost, "/task/new", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateScore(ctx context.Context, issueID int64, title string, score int) error {
	req := struct {
		IssueID int64  `json:"issue_id"`
		Title   string `json:"issue_title"`
		Score   int    `json:"score"`
	}{issueID, title, score}
	return c.do(ctx, http.MethodPost, "/task/update-score", req, nil)
}

// UpdateStatus moves the task and rewrites both role slots. The service
// stores student_login and candidate_login exactly as sent, so both fields
// are always present: an assignment request puts the requester in
// candidate_login with student_login empty, approval moves the login into
// student_login, and deny clears both.
func (c *Client) UpdateStatus(ctx context.Context, issueID int64, status Status, student, candidate string) error {
	req := struct {
		IssueID   int64  `json:"issue_id"`
		Status    Status `json:"task_status"`
		Student   string `json:"student_login"`
		Candidate string `json:"candidate_login"`
	}{issueID, status, student, candidate}
	return c.do(ctx, http.MethodPost, "/task/update-status", req, nil)
}

func (c *Client) SearchByMentor(ctx context.Context, repoID int64, mentor string) ([]Task, error) {
	req := struct {
		RepoID int64  `json:"repo_id"`
		Mentor string `json:"mentor_login"`
	}{repoID, mentor}
	var tasks []Task
	if err := c.do(ctx, http.MethodPost, "/task/search", req, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("task service %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("task service %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode task service response: %w", err)
		}
	}
	return nil
}
