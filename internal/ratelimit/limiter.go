package ratelimit

import (
	"context"
	"os"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APIFeishu represents the Feishu open platform (auth and Bitable)
	APIFeishu API = "feishu"
	// APIDeepSeek represents the DeepSeek chat completions API
	APIDeepSeek API = "deepseek"
	// APIGemini represents the Gemini API
	APIGemini API = "gemini"
)

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

var (
	instance *Limiter
	once     sync.Once
)

// GetLimiter returns the singleton rate limiter instance
func GetLimiter() *Limiter {
	once.Do(func() {
		instance = &Limiter{
			limiters: make(map[API]*rate.Limiter),
		}
		instance.initLimiters()
	})
	return instance
}

// initLimiters initializes rate limiters for each API with conservative defaults
func (l *Limiter) initLimiters() {
	if os.Getenv("GO_TESTING") == "1" || isTestMode() {
		l.limiters[APIFeishu] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIDeepSeek] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIGemini] = rate.NewLimiter(rate.Inf, 1)
		return
	}

	// Feishu Bitable record listing allows 20 requests per second per app
	l.limiters[APIFeishu] = rate.NewLimiter(rate.Limit(20), 1)

	// One question at a time is the norm; this only guards against bursts
	l.limiters[APIDeepSeek] = rate.NewLimiter(rate.Limit(1), 2)

	// Gemini free tier: 15 requests per minute
	l.limiters[APIGemini] = rate.NewLimiter(rate.Limit(15.0/60.0), 1)
}

// isTestMode checks if we're running in test mode
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return false
}

// SetLimit replaces the limit for an API
func (l *Limiter) SetLimit(api API, limit rate.Limit, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[api] = rate.NewLimiter(limit, burst)
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return true
	}

	return limiter.Allow()
}
