package rank

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, h http.HandlerFunc) (*Service, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	s := NewService(discardLogger(), srv.URL+"/roles")
	s.retryDelay = time.Millisecond
	return s, &calls
}

func TestRolesOfXUID(t *testing.T) {
	s, calls := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/roles/2535400000000001", r.URL.Path)
		_, _ = io.WriteString(w, `["111","222"]`)
	})

	roles, err := s.RolesOfXUID(context.Background(), "2535400000000001")
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, roles)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRolesOfXUIDNotFound(t *testing.T) {
	s, calls := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := s.RolesOfXUID(context.Background(), "1")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.EqualValues(t, 1, calls.Load(), "not found is not retried")
}

func TestRolesOfXUIDRetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	s, calls := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `["111"]`)
	})

	roles, err := s.RolesOfXUID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"111"}, roles)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRolesOfXUIDGivesUp(t *testing.T) {
	s, calls := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := s.RolesOfXUID(context.Background(), "1")
	assert.ErrorIs(t, err, ErrServer)
	assert.EqualValues(t, maxRetries+1, calls.Load())
}

func TestRolesOfXUIDClientError(t *testing.T) {
	s, calls := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := s.RolesOfXUID(context.Background(), "1")
	assert.ErrorIs(t, err, ErrServer)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRolesOfXUIDBadBody(t *testing.T) {
	s, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"roles":`)
	})

	_, err := s.RolesOfXUID(context.Background(), "1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestRolesOfXUIDCancelledWhileWaiting(t *testing.T) {
	s, _ := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	s.retryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.RolesOfXUID(ctx, "1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestErrorKey(t *testing.T) {
	assert.Equal(t, "rank.error.not.linked", ErrorKey(ErrUserNotFound))
	assert.Equal(t, "rank.error.server", ErrorKey(ErrServer))
	assert.Equal(t, "rank.error.timeout", ErrorKey(ErrTimeout))
	assert.Equal(t, "rank.error.unknown", ErrorKey(assert.AnError))
}
