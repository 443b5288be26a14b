package ingest

import (
	"context"
	"net/url"
	"sync"
	"time"
)

const (
	// MaxConcurrencyPerDomain limits parallel requests to one organizer host.
	MaxConcurrencyPerDomain = 2
	// DelayBetweenDomainRequests spaces out requests to the same host.
	DelayBetweenDomainRequests = 500 * time.Millisecond
)

// domainLimiter bounds concurrent and back-to-back requests per host.
type domainLimiter struct {
	mu          sync.Mutex
	semaphores  map[string]chan struct{}
	lastRequest map[string]time.Time
	delay       time.Duration
}

func newDomainLimiter(delay time.Duration) *domainLimiter {
	return &domainLimiter{
		semaphores:  make(map[string]chan struct{}),
		lastRequest: make(map[string]time.Time),
		delay:       delay,
	}
}

// acquire blocks until the host has a free slot and the minimum delay
// since its last request has passed.
func (dl *domainLimiter) acquire(ctx context.Context, host string) error {
	dl.mu.Lock()
	sem, ok := dl.semaphores[host]
	if !ok {
		sem = make(chan struct{}, MaxConcurrencyPerDomain)
		dl.semaphores[host] = sem
	}
	dl.mu.Unlock()

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	dl.mu.Lock()
	last := dl.lastRequest[host]
	dl.mu.Unlock()

	if last.IsZero() {
		return nil
	}
	if wait := dl.delay - time.Since(last); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			<-sem
			return ctx.Err()
		}
	}
	return nil
}

// release frees the host's slot and records the request time.
func (dl *domainLimiter) release(host string) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.lastRequest[host] = time.Now()
	if sem, ok := dl.semaphores[host]; ok {
		<-sem
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
