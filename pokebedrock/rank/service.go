package rank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTimeout      = errors.New("request timed out")
	ErrServer       = errors.New("server error")
)

const (
	maxRetries     = 3
	requestTimeout = 5 * time.Second
)

// Service fetches the external roles of players from the role API.
type Service struct {
	url string

	client     *http.Client
	log        *slog.Logger
	retryDelay time.Duration
}

// NewService ...
func NewService(log *slog.Logger, url string) *Service {
	return &Service{
		url: url,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		log:        log,
		retryDelay: time.Second,
	}
}

// RolesOfXUID returns the role IDs of the player with the given XUID.
// Timeouts, rate limits and 5xx responses are retried up to maxRetries times.
func (s *Service) RolesOfXUID(ctx context.Context, xuid string) ([]string, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, time.Duration(attempt)*s.retryDelay); err != nil {
				return nil, err
			}
		}

		roles, retry, err := s.fetch(ctx, xuid)
		if err == nil {
			s.log.Debug("Fetched roles", "xuid", xuid, "roles", roles)
			return roles, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	if errors.Is(lastErr, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %w", ErrTimeout, lastErr)
	}
	return nil, lastErr
}

// fetch performs a single request. retry reports whether a failure may be
// temporary.
func (s *Service) fetch(ctx context.Context, xuid string) (roles []string, retry bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", s.url, xuid), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, isTemporaryError(err), fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("failed to read response: %w", err)
		}
		if err = json.Unmarshal(body, &roles); err != nil {
			return nil, false, fmt.Errorf("failed to parse roles: %w", err)
		}
		return roles, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrUserNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, errors.New("rate limited")
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server returned %d: %w", resp.StatusCode, ErrServer)
	default:
		return nil, false, fmt.Errorf("server returned %d: %w", resp.StatusCode, ErrServer)
	}
}

// wait sleeps for d or until ctx is done.
func (s *Service) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isTemporaryError ...
func isTemporaryError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ErrorKey returns the locale key describing a role fetch error to a player.
func ErrorKey(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "rank.error.not.linked"
	case errors.Is(err, ErrTimeout):
		return "rank.error.timeout"
	case errors.Is(err, ErrServer):
		return "rank.error.server"
	default:
		return "rank.error.unknown"
	}
}
