// Package domains talks to the custom-domain provider and verifies DNS ownership.
package domains

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultVercelURL = "https://api.vercel.com"

// Provider registers custom domains with the hosting platform.
type Provider interface {
	Add(ctx context.Context, domain string) error
	// Verify asks the provider to re-check DNS and reports the outcome.
	Verify(ctx context.Context, domain string) (bool, error)
	Remove(ctx context.Context, domain string) error
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("domain provider returned %d %s: %s", e.Status, e.Code, e.Message)
}

type VercelClient struct {
	baseURL   string
	token     string
	projectID string
	teamID    string
	http      *http.Client
}

type VercelOption func(*VercelClient)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) VercelOption {
	return func(c *VercelClient) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) VercelOption {
	return func(c *VercelClient) { c.http = h }
}

func NewVercelClient(token, projectID, teamID string, opts ...VercelOption) *VercelClient {
	c := &VercelClient{
		baseURL:   defaultVercelURL,
		token:     token,
		projectID: projectID,
		teamID:    teamID,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *VercelClient) Add(ctx context.Context, domain string) error {
	body, err := json.Marshal(map[string]string{"name": domain})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/v10/projects/%s/domains", url.PathEscape(c.projectID)), body, nil)
}

func (c *VercelClient) Verify(ctx context.Context, domain string) (bool, error) {
	var out struct {
		Verified bool `json:"verified"`
	}
	path := fmt.Sprintf("/v9/projects/%s/domains/%s/verify", url.PathEscape(c.projectID), url.PathEscape(domain))
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return false, err
	}
	return out.Verified, nil
}

// Remove deletes the domain. A domain the provider does not know is already removed.
func (c *VercelClient) Remove(ctx context.Context, domain string) error {
	path := fmt.Sprintf("/v9/projects/%s/domains/%s", url.PathEscape(c.projectID), url.PathEscape(domain))
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *VercelClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	u := c.baseURL + path
	if c.teamID != "" {
		u += "?teamId=" + url.QueryEscape(c.teamID)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling domain provider: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(data, &payload)
		return &APIError{Status: resp.StatusCode, Code: payload.Error.Code, Message: payload.Error.Message}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding provider response: %w", err)
		}
	}
	return nil
}
