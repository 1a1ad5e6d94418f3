package forms

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eclipseagency/jobly/internal/screening"
	"github.com/eclipseagency/jobly/internal/utils"
)

const (
	apiURL    = "http://localhost:8080"
	userAgent = "eclipseagency/jobly"
	formPath  = "/api/jobs/%s/screening-form"

	contentType     = "application/json"
	contentEncoding = "gzip"

	defaultMaxRetries = 3
	defaultRetryBase  = 500 * time.Millisecond
	maxRetryDelay     = 5 * time.Second
)

// ErrFormNotFound is returned when the job has no active screening form.
var ErrFormNotFound = errors.New("screening form not found")

// StatusError is a non-retryable portal response.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

// Client loads active screening forms from the job portal.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	MaxRetries int
	RetryBase  time.Duration
}

func NewClient(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     logger,
		UserAgent:  userAgent,
		MaxRetries: defaultMaxRetries,
		RetryBase:  defaultRetryBase,
	}
}

// FetchForm returns the active form snapshot for jobID.
func (c *Client) FetchForm(ctx context.Context, jobID string) (*screening.Form, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("job id is required")
	}

	endpoint := strings.TrimRight(c.APIURL, "/") + fmt.Sprintf(formPath, url.PathEscape(jobID))

	data, err := c.getWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch form for job %s: %w", jobID, err)
	}

	form, err := ParseForm(data)
	if err != nil {
		return nil, fmt.Errorf("form for job %s: %w", jobID, err)
	}

	c.logger.Debug("form fetched",
		zap.String("job_id", jobID),
		zap.String("form_id", form.ID),
		zap.Int("questions", len(form.Questions)),
	)
	return form, nil
}

func (c *Client) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := utils.Backoff(attempt, c.RetryBase, maxRetryDelay)
			c.logger.Info("retrying portal request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := utils.WaitFor(ctx, delay); err != nil {
				return nil, err
			}
		}

		data, err := c.get(ctx, endpoint)
		if err == nil {
			return data, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.MaxRetries+1, lastErr)
}

func retryable(err error) bool {
	if errors.Is(err, ErrFormNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.Header.Set("Accept", contentType)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrFormNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
}
