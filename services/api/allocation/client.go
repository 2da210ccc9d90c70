// Package allocation calls the allocation computation service that turns
// consent conditions into allocation time series.
package allocation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/observability"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

const serviceName = "allocation"

// Client implements pipeline.Allocator over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates an allocation service client posting to url.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

type request struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Freq     string   `json:"freq"`
	Target   string   `json:"target"`
	Consents []string `json:"consents"`
}

type response struct {
	Data []record `json:"data"`
}

type record struct {
	Consent    string  `json:"crc"`
	Wap        string  `json:"wap"`
	Date       string  `json:"date"`
	Allocation float64 `json:"allo"`
}

// AllocationTS returns the allocation of every consent in req per
// abstraction point and period. No request is sent for an empty consent set.
func (c *Client) AllocationTS(ctx context.Context, req pipeline.AllocationRequest) ([]pipeline.AllocationRecord, error) {
	if len(req.Consents) == 0 {
		return []pipeline.AllocationRecord{}, nil
	}

	body, err := json.Marshal(request{
		From:     req.Range.From.Format(pipeline.DateLayout),
		To:       req.Range.To.Format(pipeline.DateLayout),
		Freq:     req.Freq,
		Target:   req.Target,
		Consents: req.Consents,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	out, err := c.doRequest(ctx, body)
	c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
		c.logger.Warn("allocation request failed", zap.Int("consents", len(req.Consents)), zap.Error(err))
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]pipeline.AllocationRecord, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("allocation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("allocation: unexpected status %s: %s", resp.Status, msg)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]pipeline.AllocationRecord, 0, len(payload.Data))
	for _, r := range payload.Data {
		date, err := parseDate(r.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, pipeline.AllocationRecord{
			Consent:    r.Consent,
			Wap:        r.Wap,
			Date:       date,
			Allocation: r.Allocation,
		})
	}
	return out, nil
}

// parseDate accepts a calendar day or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(pipeline.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return pipeline.Day(t), nil
}
