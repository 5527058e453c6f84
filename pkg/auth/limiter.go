package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// fallbacks when the security config leaves rate limiting unset
const (
	defaultRPS   = 5
	defaultBurst = 10
)

// limiterPool keeps one token bucket per API key (or client IP for
// unauthenticated callers). Buckets are created lazily and never evicted;
// the key space is bounded by the configured keys plus observed IPs.
type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg SecConfig
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}
