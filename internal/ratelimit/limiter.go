// Package ratelimit implements the per-client rate limiter (spec §4.6),
// a direct port of original_source/Adarsh/server/rate_limiter.py's
// sliding-window-plus-minimum-gap algorithm.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxRequestsPerWindow mirrors RateLimiter.max_requests_per_window.
	maxRequestsPerWindow = 2
	// window mirrors RateLimiter.time_window (seconds).
	window = 60 * time.Second
	// minGap mirrors RateLimiter.min_delay_between_requests (seconds).
	minGap = 5 * time.Second

	// globalBurstRate and globalBurstSize bound the aggregate rate of
	// download-API calls across every client combined, a coarser guard
	// in front of the per-IP sliding window below: the per-IP limiter
	// alone does nothing to stop many distinct IPs from hammering the
	// upstream at once.
	globalBurstRate = 20 // requests/sec sustained
	globalBurstSize = 40 // requests in an instantaneous burst
)

// Limiter tracks recent request timestamps per client IP, exactly as
// the original's ip_requests dict does, plus a process-wide token
// bucket guarding the aggregate rate.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
	burst    *rate.Limiter
}

func New() *Limiter {
	return &Limiter{
		requests: make(map[string][]time.Time),
		now:      time.Now,
		burst:    rate.NewLimiter(rate.Limit(globalBurstRate), globalBurstSize),
	}
}

// CanProceed reports whether ip may start a new request, and if not, a
// human-readable reason mirroring can_proceed's return value.
func (l *Limiter) CanProceed(ip string) (bool, string) {
	if !l.burst.Allow() {
		return false, "too many requests across all clients, try again shortly"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanLocked(ip, now)

	times := l.requests[ip]
	if len(times) > 0 {
		gap := now.Sub(times[len(times)-1])
		if gap < minGap {
			return false, fmt.Sprintf("please wait %.1f seconds before trying again", (minGap - gap).Seconds())
		}
	}
	if len(times) >= maxRequestsPerWindow {
		return false, fmt.Sprintf("too many requests, max %d per %d seconds", maxRequestsPerWindow, int(window.Seconds()))
	}
	return true, ""
}

// AddRequest records a new in-flight request for ip, called once
// CanProceed has allowed it, mirroring add_request.
func (l *Limiter) AddRequest(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests[ip] = append(l.requests[ip], l.now())
}

// RemoveRequest drops the most recent timestamp for ip, called when a
// request that was admitted turns out not to complete, mirroring
// remove_request (used by the original to undo a premature AddRequest).
func (l *Limiter) RemoveRequest(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	times := l.requests[ip]
	if len(times) == 0 {
		return
	}
	l.requests[ip] = times[:len(times)-1]
}

// cleanLocked drops timestamps older than window, mirroring
// clean_old_entries. Callers must hold l.mu.
func (l *Limiter) cleanLocked(ip string, now time.Time) {
	times := l.requests[ip]
	if len(times) == 0 {
		return
	}
	cutoff := now.Add(-window)
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.requests, ip)
	} else {
		l.requests[ip] = kept
	}
}
