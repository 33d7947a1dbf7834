package apiclient

import "github.com/relaydoc/relaydoc/internal/cli/health"

// Liveness calls GET /health.
func (c *Client) Liveness() (*health.Response, error) {
	var status health.Response
	if err := c.get("/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Readiness calls GET /health/ready.
func (c *Client) Readiness() (*health.Response, error) {
	var status health.Response
	if err := c.get("/health/ready", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
