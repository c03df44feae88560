package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"series-explorer/src/helpers"
	"series-explorer/src/logger"
	"series-explorer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *models.MNetworkConfig {
	return &models.MNetworkConfig{
		RequestTimeout:     2 * time.Second,
		MaxRetries:         2,
		RetryDelay:         time.Millisecond,
		ConcurrentRequests: 4,
		RateLimitRPS:       1000,
		RateLimitBurst:     100,
		UserAgent:          "series-explorer-test",
		BreakerMaxFailures: 50,
		BreakerTimeout:     time.Minute,
	}
}

func TestGet_SendsParamsAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/UNRATE", r.URL.Path)
		assert.Equal(t, "2021-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "m", r.URL.Query().Get("frequency"))
		assert.Equal(t, "series-explorer-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	nm := NewAsyncNetworkManager(testConfig(), logger.NewLogger("test"))
	body, err := nm.Get(context.Background(), srv.URL+"/api/data/UNRATE", map[string]string{"start": "2021-01-01", "frequency": "m"})

	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`["UNRATE"]`))
	}))
	defer srv.Close()

	nm := NewAsyncNetworkManager(testConfig(), logger.NewLogger("test"))
	body, err := nm.Get(context.Background(), srv.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, `["UNRATE"]`, string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestGet_ClientErrorIsFinal(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Series 'NOPE' not found"}`))
	}))
	defer srv.Close()

	nm := NewAsyncNetworkManager(testConfig(), logger.NewLogger("test"))
	_, err := nm.Get(context.Background(), srv.URL, nil)

	var statusErr *helpers.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "Series 'NOPE' not found", statusErr.Message)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestGet_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	nm := NewAsyncNetworkManager(testConfig(), logger.NewLogger("test"))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := nm.Get(ctx, srv.URL, nil)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestGet_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 0
	cfg.BreakerMaxFailures = 2
	nm := NewAsyncNetworkManager(cfg, logger.NewLogger("test"))

	for i := 0; i < 2; i++ {
		_, err := nm.Get(context.Background(), srv.URL, nil)
		require.Error(t, err)
	}

	_, err := nm.Get(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, helpers.ErrCircuitOpen)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits), "open breaker short-circuits the request")
}

func TestGet_ClientTimeoutIsRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RequestTimeout = 30 * time.Millisecond
	nm := NewAsyncNetworkManager(cfg, logger.NewLogger("test"))

	_, err := nm.Get(context.Background(), srv.URL, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, helpers.ErrRequestTimeout)
	assert.False(t, errors.Is(err, context.DeadlineExceeded), "a client timeout is not the caller's deadline")
	var netErr *helpers.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.EqualValues(t, cfg.MaxRetries+1, atomic.LoadInt32(&hits))
}

func TestGet_ClientTimeoutsTripBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RequestTimeout = 30 * time.Millisecond
	cfg.MaxRetries = 0
	cfg.BreakerMaxFailures = 2
	nm := NewAsyncNetworkManager(cfg, logger.NewLogger("test"))

	for i := 0; i < 2; i++ {
		_, err := nm.Get(context.Background(), srv.URL, nil)
		require.ErrorIs(t, err, helpers.ErrRequestTimeout)
	}

	_, err := nm.Get(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, helpers.ErrCircuitOpen)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestGet_CallerDeadlineIsFinal(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	nm := NewAsyncNetworkManager(testConfig(), logger.NewLogger("test"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := nm.Get(ctx, srv.URL, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}
