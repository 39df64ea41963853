// Package client is the HTTP client the CLI uses to talk to a crew
// daemon. It mirrors the daemon's JSON API one method per endpoint.
package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/driftworks/crew/internal/config"
	"github.com/driftworks/crew/internal/journal"
	"github.com/driftworks/crew/internal/model"
	"github.com/driftworks/crew/internal/web"
)

// Client talks to one daemon.
type Client struct {
	base string
	http *resty.Client
}

// New creates a client for the daemon at addr (host:port or URL).
func New(addr string) *Client {
	base := addr
	if base == "" {
		base = config.DefaultListen
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: base,
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

type apiError struct {
	Error string `json:"error"`
}

// fail turns a non-2xx response into an error carrying the daemon's
// message.
func fail(resp *resty.Response) error {
	if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status(), e.Error)
	}
	return fmt.Errorf("%s: %s", resp.Status(), resp.String())
}

// CreateRun creates a run, optionally starting it immediately.
func (c *Client) CreateRun(goal, targetDir string, maxWorkers int, start bool) (*model.Run, error) {
	var run model.Run
	resp, err := c.http.R().
		SetBody(web.CreateRunRequest{Goal: goal, TargetDir: targetDir, MaxWorkers: maxWorkers, Start: start}).
		SetResult(&run).
		SetError(&apiError{}).
		Post("/api/runs")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, fail(resp)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (c *Client) ListRuns() ([]*model.Run, error) {
	var runs []*model.Run
	resp, err := c.http.R().
		SetResult(&runs).
		SetError(&apiError{}).
		Get("/api/runs")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fail(resp)
	}
	return runs, nil
}

// GetRun fetches one run by ID.
func (c *Client) GetRun(id string) (*model.Run, error) {
	var run model.Run
	resp, err := c.http.R().
		SetResult(&run).
		SetError(&apiError{}).
		Get("/api/runs/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fail(resp)
	}
	return &run, nil
}

// transition posts one state-change endpoint and returns the updated
// run.
func (c *Client) transition(id, op string) (*model.Run, error) {
	var run model.Run
	resp, err := c.http.R().
		SetResult(&run).
		SetError(&apiError{}).
		Post("/api/runs/" + id + "/" + op)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fail(resp)
	}
	return &run, nil
}

// StartRun starts an idle or paused run.
func (c *Client) StartRun(id string) (*model.Run, error) { return c.transition(id, "start") }

// StopRun aborts a run and marks it stopped.
func (c *Client) StopRun(id string) (*model.Run, error) { return c.transition(id, "stop") }

// PauseRun suspends an active run.
func (c *Client) PauseRun(id string) (*model.Run, error) { return c.transition(id, "pause") }

// ResumeRun restarts a paused or stopped run.
func (c *Client) ResumeRun(id string) (*model.Run, error) { return c.transition(id, "resume") }

// Health reports daemon and provider health.
func (c *Client) Health() ([]config.ProviderHealth, error) {
	var body struct {
		Status    string                  `json:"status"`
		Providers []config.ProviderHealth `json:"providers"`
	}
	resp, err := c.http.R().
		SetResult(&body).
		SetError(&apiError{}).
		Get("/api/health")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fail(resp)
	}
	return body.Providers, nil
}

// Journal tails recorded events, optionally filtered to one run.
func (c *Client) Journal(runID string, limit int) ([]journal.Entry, error) {
	var entries []journal.Entry
	req := c.http.R().
		SetResult(&entries).
		SetError(&apiError{})
	if runID != "" {
		req.SetQueryParam("run", runID)
	}
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}
	resp, err := req.Get("/api/journal")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fail(resp)
	}
	return entries, nil
}
