package weather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/floodcast/floodcast-api/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
	times []time.Time
}

func (f *fakeFetcher) FetchForecast(_ context.Context, adm4 string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, adm4)
	f.times = append(f.times, time.Now())
	if f.fail[adm4] {
		return nil, errors.New("timeout")
	}
	return json.RawMessage(`{"data":[{"adm4":"` + adm4 + `"}]}`), nil
}

// gatedFetcher holds every fetch until release is closed.
type gatedFetcher struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedFetcher) FetchForecast(ctx context.Context, adm4 string) (json.RawMessage, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return json.RawMessage(`{"data":[{"adm4":"` + adm4 + `"}]}`), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var testAreas = []Area{
	{Name: "Jakarta Pusat", Adm4: "31.71.01.1001"},
	{Name: "Bogor", Adm4: "32.71.01.1001"},
	{Name: "Depok", Adm4: "32.76.01.1001"},
}

func newTestService(f Fetcher, opts Options) (*Service, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return NewService(f, testAreas, opts, slog.New(slog.NewTextHandler(io.Discard, nil)), m), m
}

func TestSnapshot_AllSucceed(t *testing.T) {
	f := &fakeFetcher{}
	svc, m := newTestService(f, Options{})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Data, 3)
	assert.JSONEq(t, `{"data":[{"adm4":"32.71.01.1001"}]}`, string(snap.Data["Bogor"]))
	assert.Empty(t, snap.Failed)
	assert.Nil(t, snap.Error)
	assert.Equal(t, []string{"31.71.01.1001", "32.71.01.1001", "32.76.01.1001"}, f.calls)
	assert.InDelta(t, 3, testutil.ToFloat64(m.WeatherFetches.WithLabelValues("success")), 0)

	out, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"failed":[]`)
	assert.Contains(t, string(out), `"error":null`)
}

func TestSnapshot_PartialFailure(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"32.71.01.1001": true, "32.76.01.1001": true}}
	svc, m := newTestService(f, Options{})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Data, 1)
	assert.Equal(t, []string{"Bogor", "Depok"}, snap.Failed)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "Gagal mengambil data cuaca untuk: Bogor, Depok.", *snap.Error)
	assert.InDelta(t, 2, testutil.ToFloat64(m.WeatherFetches.WithLabelValues("failed")), 0)
}

func TestSnapshot_AllFail(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"31.71.01.1001": true, "32.71.01.1001": true, "32.76.01.1001": true}}
	svc, _ := newTestService(f, Options{})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Data)
	require.NotNil(t, snap.Error)
	assert.Equal(t, "Gagal mengambil semua data cuaca. Periksa kode adm4 atau koneksi.", *snap.Error)
}

func TestSnapshot_PacesRequests(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newTestService(f, Options{Interval: 30 * time.Millisecond})

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, f.times, 3)
	for i := 1; i < len(f.times); i++ {
		assert.GreaterOrEqual(t, f.times[i].Sub(f.times[i-1]), 25*time.Millisecond)
	}
}

func TestSnapshot_CachesCompleteSnapshots(t *testing.T) {
	f := &fakeFetcher{}
	svc, m := newTestService(f, Options{CacheTTL: time.Minute})

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.calls, 3)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WeatherCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.WeatherCache.WithLabelValues("miss")), 0)
}

func TestSnapshot_DoesNotCachePartialSnapshots(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"32.71.01.1001": true}}
	svc, _ := newTestService(f, Options{CacheTTL: time.Minute})

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Len(t, f.calls, 6)
}

func TestSnapshot_ContextCancelled(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newTestService(f, Options{Interval: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Snapshot(ctx)
	require.Error(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Len(t, f.calls, 1)
}

func TestSnapshot_FanOutTimeout(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newTestService(f, Options{Interval: time.Hour, Timeout: 50 * time.Millisecond})

	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather fan-out interrupted")
}

func TestSnapshot_OneCallerCancellingDoesNotFailOthers(t *testing.T) {
	g := newGatedFetcher()
	svc, _ := newTestService(g, Options{})

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(ctxA)
		errA <- err
	}()
	<-g.entered

	type result struct {
		snap Snapshot
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		snap, err := svc.Snapshot(context.Background())
		resB <- result{snap, err}
	}()
	// Let B join the in-flight fan-out before A leaves.
	time.Sleep(20 * time.Millisecond)

	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)

	close(g.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Len(t, b.snap.Data, 3)
	assert.Empty(t, b.snap.Failed)
	assert.Nil(t, b.snap.Error)
	assert.Equal(t, int32(3), g.calls.Load())
}

func TestSnapshot_AbandonedFanOutStillFillsCache(t *testing.T) {
	g := newGatedFetcher()
	svc, m := newTestService(g, Options{CacheTTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(ctx)
		errc <- err
	}()
	<-g.entered
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	close(g.release)
	require.Eventually(t, func() bool {
		_, err := svc.Snapshot(context.Background())
		return err == nil && testutil.ToFloat64(m.WeatherCache.WithLabelValues("hit")) >= 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), g.calls.Load())
}
