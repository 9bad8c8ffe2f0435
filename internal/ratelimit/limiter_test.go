package ratelimit

import (
	"testing"
	"time"
)

func TestCanProceedAllowsFirstRequest(t *testing.T) {
	l := New()
	ok, reason := l.CanProceed("1.2.3.4")
	if !ok {
		t.Fatalf("expected first request to be allowed, got reason %q", reason)
	}
}

func TestCanProceedEnforcesMinGap(t *testing.T) {
	l := New()
	now := time.Now()
	l.now = func() time.Time { return now }

	ok, _ := l.CanProceed("1.2.3.4")
	if !ok {
		t.Fatal("expected first request to be allowed")
	}
	l.AddRequest("1.2.3.4")

	now = now.Add(1 * time.Second)
	ok, reason := l.CanProceed("1.2.3.4")
	if ok {
		t.Fatal("expected second request within min gap to be rejected")
	}
	if reason == "" {
		t.Fatal("expected a rejection reason")
	}
}

func TestCanProceedEnforcesWindowLimit(t *testing.T) {
	l := New()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.AddRequest("1.2.3.4")
	now = now.Add(10 * time.Second)
	l.AddRequest("1.2.3.4")

	now = now.Add(10 * time.Second)
	ok, _ := l.CanProceed("1.2.3.4")
	if ok {
		t.Fatal("expected third request in window to be rejected")
	}
}

func TestCanProceedForgetsOldEntries(t *testing.T) {
	l := New()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.AddRequest("1.2.3.4")
	now = now.Add(70 * time.Second)

	ok, reason := l.CanProceed("1.2.3.4")
	if !ok {
		t.Fatalf("expected request after window to be allowed, got reason %q", reason)
	}
}

func TestRemoveRequestUndoesAdd(t *testing.T) {
	l := New()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.AddRequest("1.2.3.4")
	l.RemoveRequest("1.2.3.4")

	if got := len(l.requests["1.2.3.4"]); got != 0 {
		t.Fatalf("expected no requests remaining, got %d", got)
	}
}

func TestIndependentIPsDoNotInterfere(t *testing.T) {
	l := New()
	now := time.Now()
	l.now = func() time.Time { return now }

	l.AddRequest("1.1.1.1")
	ok, _ := l.CanProceed("2.2.2.2")
	if !ok {
		t.Fatal("expected unrelated IP to be unaffected")
	}
}

func TestCanProceedEnforcesGlobalBurst(t *testing.T) {
	l := New()

	rejected := false
	for i := 0; i < globalBurstSize+10; i++ {
		ip := "10.0.0." + string(rune('A'+i%26))
		if ok, _ := l.CanProceed(ip); !ok {
			rejected = true
			break
		}
	}
	if !rejected {
		t.Fatal("expected the aggregate burst guard to eventually reject a distinct-IP flood")
	}
}
