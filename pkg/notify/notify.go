// Package notify posts extraction reports to HTTP endpoints.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccollicutt/lamptest/pkg/config"
	"github.com/ccollicutt/lamptest/pkg/output"
)

// DefaultTimeout applies when a target has no timeout.
const DefaultTimeout = config.DefaultNotifyTimeout

// UserAgent is sent with every request.
const UserAgent = "lamptest-notify"

// maxResponseBody caps how much of a response body is kept.
const maxResponseBody = 64 * 1024

// Notifier posts reports as JSON.
type Notifier struct {
	httpClient *http.Client
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		if c != nil {
			n.httpClient = c
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Delivery is the outcome of posting one report.
type Delivery struct {
	Target     string
	StatusCode int
	Body       string
	Duration   time.Duration
	Err        error
}

// OK reports whether the endpoint accepted the report with a 2xx status.
func (d *Delivery) OK() bool {
	return d.Err == nil && d.StatusCode >= 200 && d.StatusCode < 300
}

// ShouldSend reports whether trigger fires for an extraction that failed or not.
func ShouldSend(trigger config.NotifyTrigger, failed bool) bool {
	switch trigger {
	case config.NotifyAlways:
		return true
	case config.NotifyNever:
		return false
	default:
		return failed
	}
}

// Send posts report to target regardless of its trigger.
func (n *Notifier) Send(ctx context.Context, report *output.Report, target config.NotifyConfig) *Delivery {
	start := time.Now()
	d := &Delivery{Target: target.Label()}
	defer func() { d.Duration = time.Since(start) }()

	payload, err := json.Marshal(report)
	if err != nil {
		d.Err = fmt.Errorf("encoding report: %w", err)
		return d
	}

	timeout := target.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(payload))
	if err != nil {
		d.Err = fmt.Errorf("creating request: %w", err)
		return d
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if target.Token != "" {
		req.Header.Set("Authorization", "Bearer "+target.Token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		d.Err = fmt.Errorf("posting report: %w", err)
		return d
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		d.Err = fmt.Errorf("reading response: %w", err)
		return d
	}
	d.StatusCode = resp.StatusCode
	d.Body = string(body)
	if resp.StatusCode >= 400 {
		d.Err = fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return d
}

// Notify posts report to every target whose trigger fires and returns one
// Delivery per attempt, in target order.
func (n *Notifier) Notify(ctx context.Context, report *output.Report, targets []config.NotifyConfig) []*Delivery {
	var deliveries []*Delivery
	for _, t := range targets {
		if !ShouldSend(t.Trigger, report.Failed()) {
			continue
		}
		deliveries = append(deliveries, n.Send(ctx, report, t))
	}
	return deliveries
}
