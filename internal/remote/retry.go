package remote

import (
	"context"
	"errors"
	"time"

	"github.com/consync/consync/internal/logging"
)

const retryBaseDelay = 2 * time.Second

// RetryingService wraps a Service and implements the retry policy of spec
// §4.9/§7: RateLimited (respecting a retry-after hint, else exponential
// backoff base 2s), transient Network, and 5xx Server are retried up to
// maxRetries times; Auth, Forbidden, NotFound, Conflict, and Validation are
// never retried. Keeping this as a decorator (rather than baking retries
// into the executor) lets C8 stay a pure sequential plan walker.
type RetryingService struct {
	inner      Service
	maxRetries int
	sleep      func(context.Context, time.Duration) error
	log        logging.Logger
}

// NewRetryingService wraps inner with the retry policy, capped at
// maxRetries attempts beyond the first.
func NewRetryingService(inner Service, maxRetries int) *RetryingService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryingService{
		inner:      inner,
		maxRetries: maxRetries,
		sleep:      sleepContext,
		log:        logging.NoOp(),
	}
}

// WithLogger sets the logger used to report retry attempts. Defaults to a
// no-op logger when never called.
func (s *RetryingService) WithLogger(l logging.Logger) *RetryingService {
	s.log = l
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func backoffDelay(err error, attempt int) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	delay := retryBaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// call runs op, retrying per policy; op is invoked at least once unless
// ctx is already done.
func (s *RetryingService) call(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == s.maxRetries {
			s.log.Error(lastErr, "retries exhausted", "attempts", attempt+1)
			return &APIError{Kind: ErrMaxRetriesExceeded, Message: lastErr.Error()}
		}
		delay := backoffDelay(lastErr, attempt)
		s.log.Info("retrying after error", "attempt", attempt+1, "delay", delay.String(), "cause", lastErr.Error())
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastErr
}

func (s *RetryingService) GetSpace(ctx context.Context, spaceKey string) (Space, error) {
	var out Space
	err := s.call(ctx, func() error {
		var opErr error
		out, opErr = s.inner.GetSpace(ctx, spaceKey)
		return opErr
	})
	return out, err
}

func (s *RetryingService) GetPage(ctx context.Context, pageID string) (Page, error) {
	var out Page
	err := s.call(ctx, func() error {
		var opErr error
		out, opErr = s.inner.GetPage(ctx, pageID)
		return opErr
	})
	return out, err
}

func (s *RetryingService) GetPageByTitle(ctx context.Context, spaceKey, title string) (Page, bool, error) {
	var out Page
	var found bool
	err := s.call(ctx, func() error {
		var opErr error
		out, found, opErr = s.inner.GetPageByTitle(ctx, spaceKey, title)
		return opErr
	})
	return out, found, err
}

func (s *RetryingService) CreatePage(ctx context.Context, input PageInput) (Page, error) {
	var out Page
	err := s.call(ctx, func() error {
		var opErr error
		out, opErr = s.inner.CreatePage(ctx, input)
		return opErr
	})
	return out, err
}

func (s *RetryingService) UpdatePage(ctx context.Context, pageID string, input PageInput) (Page, error) {
	var out Page
	err := s.call(ctx, func() error {
		var opErr error
		out, opErr = s.inner.UpdatePage(ctx, pageID, input)
		return opErr
	})
	return out, err
}

func (s *RetryingService) DeletePage(ctx context.Context, pageID string) error {
	return s.call(ctx, func() error {
		return s.inner.DeletePage(ctx, pageID)
	})
}

func (s *RetryingService) MovePage(ctx context.Context, pageID, newParentID string) (Page, error) {
	var out Page
	err := s.call(ctx, func() error {
		var opErr error
		out, opErr = s.inner.MovePage(ctx, pageID, newParentID)
		return opErr
	})
	return out, err
}

func (s *RetryingService) TestConnection(ctx context.Context) error {
	return s.call(ctx, func() error {
		return s.inner.TestConnection(ctx)
	})
}
