// Package weather assembles BMKG forecast snapshots for the Jabodetabek areas.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/floodcast/floodcast-api/internal/observability"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	snapshotKey = "snapshot"

	defaultFanOutTimeout = 2 * time.Minute

	msgAllFailed = "Gagal mengambil semua data cuaca. Periksa kode adm4 atau koneksi."
	msgSomeFail  = "Gagal mengambil data cuaca untuk: %s."
)

// Area is one forecast location.
type Area struct {
	Name string
	Adm4 string
}

// Fetcher retrieves the raw forecast document for an adm4 code.
type Fetcher interface {
	FetchForecast(ctx context.Context, adm4 string) (json.RawMessage, error)
}

// Snapshot is the GET /api/weather response. Error is nil when every area succeeded.
type Snapshot struct {
	Data   map[string]json.RawMessage `json:"data"`
	Failed []string                   `json:"failed"`
	Error  *string                    `json:"error"`
}

// Options tunes request pacing and caching.
type Options struct {
	// Interval is the minimum spacing between upstream requests. Zero disables pacing.
	Interval time.Duration
	// CacheTTL is how long a complete snapshot is served from memory. Zero disables caching.
	CacheTTL time.Duration
	// Timeout bounds one shared fan-out. Zero means two minutes.
	Timeout time.Duration
}

// Service fans out over the configured areas one request at a time.
type Service struct {
	fetcher Fetcher
	areas   []Area
	limiter *rate.Limiter
	timeout time.Duration
	cache   *cache.Cache
	group   singleflight.Group
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a weather Service.
func NewService(fetcher Fetcher, areas []Area, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	s := &Service{
		fetcher: fetcher,
		areas:   areas,
		limiter: rate.NewLimiter(limit, 1),
		timeout: opts.Timeout,
		logger:  logger,
		metrics: metrics,
	}
	if s.timeout <= 0 {
		s.timeout = defaultFanOutTimeout
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// Snapshot returns the forecasts of every area. Areas that could not be
// fetched are listed in Failed; that is not an error. Concurrent callers
// share one fan-out, which runs detached from any single caller. An error is
// returned when ctx ends before that fan-out completes, or when the fan-out
// exceeds Options.Timeout.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(snapshotKey); ok {
			if snap, ok := cached.(Snapshot); ok {
				s.metrics.WeatherCache.WithLabelValues("hit").Inc()
				return snap, nil
			}
		}
		s.metrics.WeatherCache.WithLabelValues("miss").Inc()
	}

	ch := s.group.DoChan(snapshotKey, func() (any, error) {
		fanOutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.collect(fanOutCtx)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, fmt.Errorf("weather snapshot abandoned: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

func (s *Service) collect(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Data:   make(map[string]json.RawMessage, len(s.areas)),
		Failed: []string{},
	}

	for _, area := range s.areas {
		if err := s.limiter.Wait(ctx); err != nil {
			return Snapshot{}, fmt.Errorf("weather fan-out interrupted: %w", err)
		}
		doc, err := s.fetcher.FetchForecast(ctx, area.Adm4)
		if err != nil {
			s.logger.Warn("weather fetch failed", "area", area.Name, "adm4", area.Adm4, "error", err)
			s.metrics.WeatherFetches.WithLabelValues("failed").Inc()
			snap.Failed = append(snap.Failed, area.Name)
			continue
		}
		s.metrics.WeatherFetches.WithLabelValues("success").Inc()
		snap.Data[area.Name] = doc
	}

	switch {
	case len(snap.Failed) == 0:
		if s.cache != nil {
			s.cache.Set(snapshotKey, snap, cache.DefaultExpiration)
		}
	case len(snap.Failed) == len(s.areas):
		msg := msgAllFailed
		snap.Error = &msg
	default:
		msg := fmt.Sprintf(msgSomeFail, strings.Join(snap.Failed, ", "))
		snap.Error = &msg
	}
	return snap, nil
}
