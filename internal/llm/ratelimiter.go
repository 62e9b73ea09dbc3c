package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"golang.org/x/time/rate"
)

// RateLimitedProvider spaces calls to a cloud backend so a burst of
// questions from the HTTP API stays under the account's request quota.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows rpm calls per minute, all of which may be
// spent at once.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if r.limiter.Tokens() < 1 {
		log.Debug().Str("provider", r.provider.Name()).Msg("request quota spent, waiting")
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", r.provider.Name(), err)
	}
	return r.provider.Complete(ctx, req)
}
