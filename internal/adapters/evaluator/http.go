// Package evaluator calls specialist evaluators over HTTP.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
)

// maxResponseBytes caps how much of an evaluator reply is read.
const maxResponseBytes = 1 << 20

// HTTPEvaluator POSTs an EvaluatorRequest to a fixed URL and decodes the verdict.
type HTTPEvaluator struct {
	agent   types.Agent
	url     string
	client  *http.Client
	headers http.Header
	log     logger.Logger
}

// NewHTTPEvaluator creates an evaluator for agent at url. Deadlines come from the caller's context.
func NewHTTPEvaluator(agent types.Agent, url string, opts ...Option) (*HTTPEvaluator, error) {
	url = strings.TrimSpace(url)
	if !validURL(url) {
		return nil, fmt.Errorf("%w: %s: %q", ErrInvalidURL, agent, url)
	}
	e := &HTTPEvaluator{
		agent:   agent,
		url:     url,
		client:  &http.Client{},
		headers: http.Header{},
		log:     logger.Get().Named("evaluator." + string(agent)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Agent returns the agent this evaluator serves.
func (e *HTTPEvaluator) Agent() types.Agent { return e.agent }

// Evaluate implements fanout.Evaluator.
func (e *HTTPEvaluator) Evaluate(ctx context.Context, req types.EvaluatorRequest) (types.Verdict, error) { //nolint:gocritic // hugeParam
	body, err := json.Marshal(req)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return types.Verdict{}, err
	}
	for k, vs := range e.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return types.Verdict{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.Verdict{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.Verdict{}, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return types.Verdict{}, ErrNotObject
	}
	e.log.Debug(ctx, "evaluator answered",
		logger.String("request_id", req.RequestID),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)))
	return ParseVerdict(obj), nil
}

// validURL accepts absolute http(s) URLs with a host.
func validURL(raw string) bool {
	u, err := neturl.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
