package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultRetryDelay is the pause between the first attempt and the retry.
const DefaultRetryDelay = 5 * time.Second

// Options configure a Service.
type Options struct {
	// KeyProviders are tried in order until one succeeds.
	KeyProviders []KeyProvider
	// Cache receives keys from the first successful provider. Optional.
	Cache KeyCache
	// Mappings is optional; when set, empty mappings count as a failure.
	Mappings MappingsProvider
	// RetryDelay defaults to DefaultRetryDelay.
	RetryDelay time.Duration
}

// Service acquires a Bundle with one retry.
type Service struct {
	logger *zap.Logger
	opts   Options
}

// NewService creates a provisioning service.
func NewService(logger *zap.Logger, opts Options) *Service {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Service{logger: logger, opts: opts}
}

// Acquire makes one attempt, waits RetryDelay and makes one more. A cancelled
// context is returned as is; any other failure wraps ErrUnavailable.
func (s *Service) Acquire(ctx context.Context) (*Bundle, error) {
	bundle, err := s.attempt(ctx)
	if err == nil {
		return bundle, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.logger.Warn("Provisioning failed, retrying",
		zap.Error(err),
		zap.Duration("delay", s.opts.RetryDelay),
	)

	timer := time.NewTimer(s.opts.RetryDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	bundle, err = s.attempt(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return bundle, nil
}

func (s *Service) attempt(ctx context.Context) (*Bundle, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{Keys: keys}
	if s.opts.Mappings == nil {
		return bundle, nil
	}

	mappings, err := s.opts.Mappings.Mappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load mappings: %w", err)
	}
	if mappings.Empty() {
		return nil, errors.New("mappings are empty")
	}
	bundle.Mappings = mappings
	return bundle, nil
}

func (s *Service) keys(ctx context.Context) (*Keys, error) {
	if len(s.opts.KeyProviders) == 0 {
		return nil, errors.New("no key providers configured")
	}

	var errs []error
	for _, p := range s.opts.KeyProviders {
		keys, err := p.Keys(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Debug("Key provider failed", zap.String("provider", p.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		s.logger.Info("Keys acquired",
			zap.String("provider", p.Name()),
			zap.String("build", keys.Build),
			zap.Int("dynamic_keys", len(keys.DynamicKeys)),
		)
		if s.opts.Cache != nil {
			if err := s.opts.Cache.Store(ctx, keys); err != nil {
				s.logger.Warn("Failed to update key cache", zap.Error(err))
			}
		}
		return keys, nil
	}
	return nil, fmt.Errorf("failed to acquire keys: %w", errors.Join(errs...))
}
