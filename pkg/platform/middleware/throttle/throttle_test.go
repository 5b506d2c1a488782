package throttle

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"smartparking/pkg/requestcontext"
)

func newLimiter(burst int) *Limiter {
	return New(Config{Rate: rate.Every(time.Hour), Burst: burst, IdleTTL: time.Minute}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAllowIsPerKey(t *testing.T) {
	l := newLimiter(2)
	defer l.Stop()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestMiddlewareReturns429(t *testing.T) {
	l := newLimiter(1)
	defer l.Stop()
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", nil)
		req = req.WithContext(requestcontext.WithClientMetadata(req.Context(), "198.51.100.4", "ua"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, serve().Code)
	w := serve()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestSweepDropsIdleVisitors(t *testing.T) {
	l := newLimiter(1)
	defer l.Stop()
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("10.0.0.1")

	l.now = func() time.Time { return now.Add(2 * time.Minute) }
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.visitors)
}
