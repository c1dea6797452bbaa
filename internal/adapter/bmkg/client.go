package bmkg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoForecast is returned when BMKG answers without any forecast entries,
// which is how it reports an unknown adm4 code.
var ErrNoForecast = errors.New("bmkg returned no forecast data")

// Client fetches public weather forecasts from the BMKG API.
// It implements weather.Fetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a BMKG forecast client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// FetchForecast returns the raw forecast document for one kelurahan (adm4 code).
// The document is passed through unchanged.
func (c *Client) FetchForecast(ctx context.Context, adm4 string) (json.RawMessage, error) {
	u := c.baseURL + "/publik/prakiraan-cuaca?" + url.Values{"adm4": {adm4}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request %s: %w", adm4, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bmkg API error: status %d: %s", resp.StatusCode, body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var doc forecast
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(doc.Data) == 0 {
		c.logger.Debug("empty forecast", "adm4", adm4)
		return nil, fmt.Errorf("%w for %s", ErrNoForecast, adm4)
	}
	return json.RawMessage(raw), nil
}

// forecast is the part of the BMKG response the client inspects.
type forecast struct {
	Data []json.RawMessage `json:"data"`
}
