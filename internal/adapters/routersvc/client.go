// Package routersvc is the HTTP client for an external routing service.
package routersvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"

	"github.com/okian/overcall/internal/domain/model"
	"github.com/okian/overcall/internal/domain/routing"
)

// Sentinel errors.
var (
	ErrStatus     = errors.New("router service returned non-success status")
	ErrNotObject  = errors.New("router service response is not a JSON object")
	ErrInvalidURL = errors.New("router service url is empty")
)

const maxResponseBytes = 1 << 20

// routeRequest is the body sent to the router service.
type routeRequest struct {
	Signals      model.Signals      `json:"signals"`
	MatchContext model.MatchContext `json:"matchContext"`
	Context      routeContext       `json:"context"`
}

type routeContext struct {
	RequestID       string          `json:"requestId,omitempty"`
	Mode            string          `json:"mode"`
	RequestedIntent string          `json:"requestedIntent,omitempty"`
	Telemetry       model.Telemetry `json:"telemetry"`
	RosterSize      int             `json:"rosterSize"`
}

// Client implements routing.RemoteRouter.
type Client struct {
	url    string
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// New creates a router service client.
func New(url string, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if u, err := neturl.Parse(url); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}
	c := &Client{url: url, client: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Route asks the service for a proposal. Validation is left to routing.Adopt.
func (c *Client) Route(ctx context.Context, req model.NormalizedRequest) (routing.Proposal, error) { //nolint:gocritic // hugeParam
	body, err := json.Marshal(routeRequest{
		Signals:      req.Signals,
		MatchContext: req.Match,
		Context: routeContext{
			RequestID:       req.RequestID,
			Mode:            string(req.Mode),
			RequestedIntent: req.RequestedIntent,
			Telemetry:       req.Telemetry,
			RosterSize:      len(req.Roster),
		},
	})
	if err != nil {
		return routing.Proposal{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return routing.Proposal{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return routing.Proposal{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return routing.Proposal{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return routing.Proposal{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return routing.Proposal{}, ErrNotObject
	}
	return routing.ProposalFromMap(obj), nil
}
