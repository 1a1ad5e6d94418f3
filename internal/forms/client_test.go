package forms

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func formFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "form.json"))
	require.NoError(t, err)
	return data
}

func newTestClient(url string, logger *zap.Logger) *Client {
	c := NewClient(logger, "secret-token")
	c.APIURL = url
	c.RetryBase = time.Millisecond
	return c
}

func TestFetchForm(t *testing.T) {
	body := formFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/jobs/job-42/screening-form", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	form, err := newTestClient(srv.URL+"/", nil).FetchForm(context.Background(), " job-42 ")
	require.NoError(t, err)
	assert.Equal(t, "form-backend", form.ID)
	assert.Len(t, form.Questions, 3)
}

func TestFetchFormGzip(t *testing.T) {
	body := formFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, contentEncoding, r.Header.Get("Accept-Encoding"))
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write(body)
		_ = gz.Close()
	}))
	defer srv.Close()

	form, err := newTestClient(srv.URL, nil).FetchForm(context.Background(), "job-42")
	require.NoError(t, err)
	assert.Equal(t, "job-42", form.JobID)
}

func TestFetchFormRetriesServerErrors(t *testing.T) {
	body := formFixture(t)
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	form, err := newTestClient(srv.URL, zap.New(core)).FetchForm(context.Background(), "job-42")
	require.NoError(t, err)
	assert.Equal(t, "form-backend", form.ID)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, logs.FilterMessage("retrying portal request").Len())
}

func TestFetchFormGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	c.MaxRetries = 2

	_, err := c.FetchForm(context.Background(), "job-42")
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestFetchFormDoesNotRetryClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrFormNotFound)
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, nil).FetchForm(context.Background(), "job-42")
			require.Error(t, err)
			assert.Equal(t, int32(1), calls.Load())
			tt.check(t, err)
		})
	}
}

func TestFetchFormInvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"questions": "none"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).FetchForm(context.Background(), "job-42")
	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestFetchFormRequiresJobID(t *testing.T) {
	_, err := NewClient(nil, "").FetchForm(context.Background(), "  ")
	assert.Error(t, err)
}

func TestFetchFormCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	c.RetryBase = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchForm(ctx, "job-42")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
