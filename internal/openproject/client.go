package openproject

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to an OpenProject instance. Authentication uses the API-key
// scheme: basic auth with the literal user "apikey".
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates an OpenProject client for the given instance URL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProjects returns all projects visible to the API key.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var col collection[Project]
	if err := c.do(ctx, http.MethodGet, "/api/v3/projects", nil, nil, &col); err != nil {
		return nil, err
	}
	return col.Embedded.Elements, nil
}

// ListWorkPackages returns work packages matching the given filters,
// newest first, capped at pageSize.
func (c *Client) ListWorkPackages(ctx context.Context, filters []Filter, pageSize int) ([]WorkPackage, error) {
	query := url.Values{}
	encoded, err := encodeFilters(filters)
	if err != nil {
		return nil, fmt.Errorf("encode filters: %w", err)
	}
	if encoded != "" {
		query.Set("filters", encoded)
	}
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(pageSize))
	}
	query.Set("sortBy", `[["id","desc"]]`)

	var col collection[WorkPackage]
	if err := c.do(ctx, http.MethodGet, "/api/v3/work_packages", query, nil, &col); err != nil {
		return nil, err
	}
	return col.Embedded.Elements, nil
}

// GetWorkPackage fetches one work package by ID.
func (c *Client) GetWorkPackage(ctx context.Context, id int) (*WorkPackage, error) {
	var wp WorkPackage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v3/work_packages/%d", id), nil, nil, &wp); err != nil {
		return nil, err
	}
	return &wp, nil
}

// CreateWorkPackage creates a work package in the given project. typeID is
// optional; zero lets the instance pick its default type.
func (c *Client) CreateWorkPackage(ctx context.Context, projectID int, subject, description string, typeID int) (*WorkPackage, error) {
	links := map[string]any{}
	if typeID > 0 {
		links["type"] = map[string]string{"href": fmt.Sprintf("/api/v3/types/%d", typeID)}
	}
	body := map[string]any{
		"subject": subject,
	}
	if description != "" {
		body["description"] = Formattable{Format: "markdown", Raw: description}
	}
	if len(links) > 0 {
		body["_links"] = links
	}

	var wp WorkPackage
	path := fmt.Sprintf("/api/v3/projects/%d/work_packages", projectID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, &wp); err != nil {
		return nil, err
	}
	return &wp, nil
}

// WorkPackageUpdate holds the mutable fields of an update. Nil pointers are
// left untouched.
type WorkPackageUpdate struct {
	Subject     *string
	Description *string
	StatusID    *int
}

// UpdateWorkPackage patches a work package. It fetches the current lock
// version first, as the API rejects updates without one.
func (c *Client) UpdateWorkPackage(ctx context.Context, id int, update WorkPackageUpdate) (*WorkPackage, error) {
	current, err := c.GetWorkPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"lockVersion": current.LockVersion,
	}
	if update.Subject != nil {
		body["subject"] = *update.Subject
	}
	if update.Description != nil {
		body["description"] = Formattable{Format: "markdown", Raw: *update.Description}
	}
	if update.StatusID != nil {
		body["_links"] = map[string]any{
			"status": map[string]string{"href": fmt.Sprintf("/api/v3/statuses/%d", *update.StatusID)},
		}
	}

	var wp WorkPackage
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v3/work_packages/%d", id), nil, body, &wp); err != nil {
		return nil, err
	}
	return &wp, nil
}

// ListTypes returns the available work package types.
func (c *Client) ListTypes(ctx context.Context) ([]Type, error) {
	var col collection[Type]
	if err := c.do(ctx, http.MethodGet, "/api/v3/types", nil, nil, &col); err != nil {
		return nil, err
	}
	return col.Embedded.Elements, nil
}

// ListStatuses returns the available work package statuses.
func (c *Client) ListStatuses(ctx context.Context) ([]Status, error) {
	var col collection[Status]
	if err := c.do(ctx, http.MethodGet, "/api/v3/statuses", nil, nil, &col); err != nil {
		return nil, err
	}
	return col.Embedded.Elements, nil
}

// ListUsers returns the instance's users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var col collection[User]
	if err := c.do(ctx, http.MethodGet, "/api/v3/users", nil, nil, &col); err != nil {
		return nil, err
	}
	return col.Embedded.Elements, nil
}

// do performs one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openproject %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readErrorMessage(resp.Body)
		c.logger.Warn("openproject request failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return fmt.Errorf("openproject %s %s: HTTP %d: %s", method, path, resp.StatusCode, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openproject %s %s: decode response: %w", method, path, err)
	}
	return nil
}

// readErrorMessage extracts the API's error message from a failure body.
func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(data))
}
