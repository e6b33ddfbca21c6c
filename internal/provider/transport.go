package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pictor-cli/internal/domain"
)

const (
	// transportRetries is the fixed retry count for network errors and 5xx
	// responses, applied transparently beneath the polling engine's own
	// attempt budget.
	transportRetries = 3
	retryInitialWait = 500 * time.Millisecond

	// Outbound pacing shared by all concurrent pipelines, poll snapshots
	// included.
	requestsPerSecond = 8
	requestBurst      = 16
)

// session holds the only mutable client state: the cached credentials and
// the resolved project id. A 401 response invalidates the token so later
// calls fail fast instead of hammering the API.
type session struct {
	mu          sync.Mutex
	token       string
	cookie      string
	invalidated bool
	projectID   string
}

func newSession(token, cookie, projectID string) *session {
	return &session{token: token, cookie: cookie, projectID: projectID}
}

func (s *session) credentials() (token, cookie string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated {
		return "", "", domain.NewError(domain.KindAuthentication, "cached token was invalidated by an earlier 401 response")
	}
	if s.token == "" {
		return "", "", domain.NewError(domain.KindAuthentication, "authorization token is required")
	}
	return s.token, s.cookie, nil
}

func (s *session) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = true
}

func (s *session) cachedProject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

func (s *session) cacheProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = id
}

// apiResponse is a successfully received (2xx) upstream response.
type apiResponse struct {
	status      int
	body        []byte
	contentType string
}

// transport issues authenticated requests against the upstream base URL.
// It retries network errors and 5xx responses with exponential backoff and
// paces outbound requests with a shared rate limiter; everything above it
// sees either a 2xx response or a taxonomy error.
type transport struct {
	baseURL string
	client  *http.Client
	session *session
	headers map[string]string
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newTransport(cfg domain.ClientConfig, logger *zap.Logger) *transport {
	return &transport{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		session: newSession(cfg.Token, cfg.Cookie, cfg.ProjectID),
		headers: cfg.Headers,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		logger:  logger,
	}
}

func (t *transport) getJSON(ctx context.Context, path string) ([]byte, error) {
	resp, err := t.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

func (t *transport) postJSON(ctx context.Context, path string, body []byte) ([]byte, error) {
	resp, err := t.do(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

func (t *transport) getBinary(ctx context.Context, path, accept string) (*apiResponse, error) {
	return t.do(ctx, http.MethodGet, path, nil, map[string]string{"Accept": accept})
}

func (t *transport) do(ctx context.Context, method, path string, body []byte, extra map[string]string) (*apiResponse, error) {
	op := method + " " + path

	token, cookie, err := t.session.credentials()
	if err != nil {
		return nil, err
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, domain.EnsureKnown(err, op)
	}

	var result *apiResponse
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(domain.NewError(domain.KindRequest, "building request").WithOp(op).WithCause(err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
		for k, v := range extra {
			req.Header.Set(k, v)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			t.logger.Debug("transport error, retrying", zap.String("op", op), zap.Error(err))
			return err // network errors are retryable
		}
		defer resp.Body.Close()
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			t.session.invalidate()
			return backoff.Permanent(domain.NewError(domain.KindAuthentication, "upstream rejected credentials").
				WithStatus(resp.StatusCode).WithOp(op))
		case resp.StatusCode >= 500:
			t.logger.Debug("server error, retrying", zap.String("op", op), zap.Int("status", resp.StatusCode))
			return domain.NewError(domain.KindRequest, fmt.Sprintf("server error: %s", truncate(respBody))).
				WithStatus(resp.StatusCode).WithOp(op)
		case resp.StatusCode >= 300:
			return backoff.Permanent(domain.NewError(domain.KindRequest, fmt.Sprintf("unexpected status: %s", truncate(respBody))).
				WithStatus(resp.StatusCode).WithOp(op))
		}

		result = &apiResponse{
			status:      resp.StatusCode,
			body:        respBody,
			contentType: resp.Header.Get("Content-Type"),
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = retryInitialWait
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, transportRetries), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, domain.EnsureKnown(err, op)
	}
	return result, nil
}

// truncate keeps error messages readable when upstream returns a large body.
func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
