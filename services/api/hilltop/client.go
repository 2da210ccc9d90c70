// Package hilltop reads sampled time series from a Hilltop hydrological web
// service.
package hilltop

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/observability"
	"github.com/Data-to-Knowledge/ecan-lowflows-dash-app/services/api/pipeline"
)

const (
	serviceName = "hilltop"
	timeLayout  = "2006-01-02T15:04:05"
)

// ErrService is returned when the service answers with an <Error> body.
var ErrService = errors.New("hilltop service error")

// DTLMethod decides how values reported below or above a detection limit
// are turned into numbers.
type DTLMethod string

const (
	// DTLNone keeps the detection limit itself.
	DTLNone DTLMethod = "none"
	// DTLStandard halves "<x" values and multiplies ">x" values by 1.5.
	DTLStandard DTLMethod = "standard"
)

// Client implements pipeline.SampleSource against one Hilltop file.
type Client struct {
	baseURL    string
	hts        string
	dtl        DTLMethod
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a client for {baseURL}/{hts}.
func NewClient(baseURL, hts string, dtl DTLMethod, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *Client {
	if dtl == "" {
		dtl = DTLNone
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		hts:        hts,
		dtl:        dtl,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// GetData returns the samples of one measurement at one site within r.
func (c *Client) GetData(ctx context.Context, site, measurement string, r pipeline.DateRange) ([]pipeline.Point, error) {
	params := url.Values{
		"Service":     {"Hilltop"},
		"Request":     {"GetData"},
		"Site":        {site},
		"Measurement": {measurement},
		"From":        {r.From.Format(pipeline.DateLayout)},
		"To":          {r.To.Format(pipeline.DateLayout)},
	}
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(c.hts), params.Encode())

	start := time.Now()
	points, err := c.doRequest(ctx, u, site)
	c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
		c.logger.Warn("hilltop request failed",
			zap.String("site", site),
			zap.String("measurement", measurement),
			zap.Error(err),
		)
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()
	return points, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL, site string) ([]pipeline.Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hilltop request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("hilltop: unexpected status %s: %s", resp.Status, body)
	}

	var doc document
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if msg := strings.TrimSpace(doc.Error); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrService, msg)
	}

	points := make([]pipeline.Point, 0)
	for _, m := range doc.Measurements {
		name := m.SiteName
		if name == "" {
			name = site
		}
		for _, e := range m.Data.Entries {
			t, err := time.Parse(timeLayout, strings.TrimSpace(e.T))
			if err != nil {
				return nil, fmt.Errorf("parse time %q: %w", e.T, err)
			}
			v, ok, err := c.value(e.I1)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			points = append(points, pipeline.Point{SiteID: name, Time: t, Value: v})
		}
	}
	return points, nil
}

// value parses one item, applying the detection-limit method. Blank items
// are skipped.
func (c *Client) value(raw string) (float64, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, nil
	}

	factor := 1.0
	switch {
	case strings.HasPrefix(s, "<"):
		s = strings.TrimSpace(s[1:])
		if c.dtl == DTLStandard {
			factor = 0.5
		}
	case strings.HasPrefix(s, ">"):
		s = strings.TrimSpace(s[1:])
		if c.dtl == DTLStandard {
			factor = 1.5
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse value %q: %w", raw, err)
	}
	return v * factor, true, nil
}

// Hilltop GetData response types.

type document struct {
	XMLName      xml.Name      `xml:"Hilltop"`
	Error        string        `xml:"Error"`
	Measurements []measurement `xml:"Measurement"`
}

type measurement struct {
	SiteName string `xml:"SiteName,attr"`
	Data     data   `xml:"Data"`
}

type data struct {
	Entries []element `xml:"E"`
}

type element struct {
	T  string `xml:"T"`
	I1 string `xml:"I1"`
}
