// Package mlservice calls the external flood prediction model over HTTP.
package mlservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/floodcast/floodcast-api/internal/observability"
	"github.com/floodcast/floodcast-api/internal/retry"
)

// Client asks the prediction model whether a location floods in a given month.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a prediction service client. timeout bounds each attempt,
// not the whole retried call.
func NewClient(baseURL string, timeout time.Duration, policy retry.Policy, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		policy:  policy,
		metrics: metrics,
		logger:  logger,
	}
}

// Predict resolves monthName and queries GET /predict. Connection failures,
// timeouts and 5xx answers are retried under the client's policy; anything
// else fails at once. Every failure after month resolution wraps domain.ErrUpstream.
func (c *Client) Predict(ctx context.Context, year int, monthName string, lat, lon float64) (domain.ModelOutput, error) {
	month, err := domain.MonthNumber(monthName)
	if err != nil {
		return domain.ModelOutput{}, err
	}

	params := url.Values{
		"year":      {strconv.Itoa(year)},
		"month":     {strconv.Itoa(month)},
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	fullURL := c.baseURL + "/predict?" + params.Encode()

	var out domain.ModelOutput
	attempts, err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.doRequest(ctx, fullURL)
		return err
	}, func(err error, wait time.Duration) {
		c.logger.Warn("prediction request failed, retrying",
			"error", err,
			"wait", wait,
		)
	})
	c.metrics.MLAttempts.Add(float64(attempts))

	if err != nil {
		c.metrics.MLRequests.WithLabelValues("error").Inc()
		c.logger.Error("prediction request failed", "attempts", attempts, "error", err)
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		return domain.ModelOutput{}, err
	}

	c.metrics.MLRequests.WithLabelValues("success").Inc()
	c.logger.Debug("prediction received", "attempts", attempts, "regency", out.RegencyName)
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.ModelOutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.ModelOutput{}, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.MLRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.ModelOutput{}, fmt.Errorf("prediction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("prediction service error: status %d: %s", resp.StatusCode, body)
		if resp.StatusCode >= http.StatusInternalServerError {
			return domain.ModelOutput{}, err
		}
		return domain.ModelOutput{}, retry.Permanent(err)
	}

	var predResp response
	if err := json.NewDecoder(resp.Body).Decode(&predResp); err != nil {
		return domain.ModelOutput{}, retry.Permanent(fmt.Errorf("%w: decode response: %w", domain.ErrUpstream, err))
	}
	out, err := predResp.toModelOutput()
	if err != nil {
		return domain.ModelOutput{}, retry.Permanent(err)
	}
	return out, nil
}

// Prediction service response types.

type response struct {
	Success    *bool     `json:"success"`
	Prediction *float64  `json:"prediction"`
	Metadata   *metadata `json:"metadata"`
}

type metadata struct {
	District *district `json:"district"`
}

type district struct {
	Name2 *string `json:"NAME_2"` // regency
	Name3 *string `json:"NAME_3"` // district
}

func (r response) toModelOutput() (domain.ModelOutput, error) {
	if r.Success == nil || !*r.Success {
		return domain.ModelOutput{}, fmt.Errorf("%w: service reported failure", domain.ErrUpstream)
	}
	if r.Prediction == nil {
		return domain.ModelOutput{}, fmt.Errorf("%w: missing prediction", domain.ErrUpstream)
	}
	if r.Metadata == nil || r.Metadata.District == nil ||
		r.Metadata.District.Name2 == nil || r.Metadata.District.Name3 == nil {
		return domain.ModelOutput{}, fmt.Errorf("%w: missing district metadata", domain.ErrUpstream)
	}
	return domain.ModelOutput{
		PredictedLabel:  *r.Prediction == 1,
		RegencyName:     *r.Metadata.District.Name2,
		RawDistrictName: *r.Metadata.District.Name3,
	}, nil
}
