package linkstore

import (
	"context"
	"testing"
)

func TestMemoryStorePutGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.Put(ctx, 42, 100, Display{FileName: "clip.mp4"}, "", "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rec.Token == "" {
		t.Fatal("expected a non-empty token")
	}

	got, err := s.Get(ctx, rec.Token, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ObjectID != 42 || got.SourceChannelID != 100 || got.Display.FileName != "clip.mp4" {
		t.Errorf("got %+v, want object 42 source 100 file clip.mp4", got)
	}
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "does-not-exist", ""); err != ErrUnknownToken {
		t.Errorf("err = %v, want ErrUnknownToken", err)
	}
}

func TestMemoryStoreTokensAreUnique(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		rec, err := s.Put(ctx, int64(i), 0, Display{}, "", "")
		if err != nil {
			t.Fatalf("Put: %v", err)
		}
		if seen[rec.Token] {
			t.Fatalf("duplicate token generated: %s", rec.Token)
		}
		seen[rec.Token] = true
	}
}

func TestMemoryStoreLen(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Put(ctx, int64(i), 0, Display{}, "", ""); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if got := s.Len(); got != 5 {
		t.Errorf("Len() = %d, want 5", got)
	}
}

func TestMemoryStoreDomainTagIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec, err := s.Put(ctx, 7, 0, Display{}, "web", "")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := s.Get(ctx, rec.Token, "webx"); err != ErrUnknownToken {
		t.Errorf("Get with mismatched domain tag: err = %v, want ErrUnknownToken", err)
	}
	if _, err := s.Get(ctx, rec.Token, "web"); err != nil {
		t.Errorf("Get with matching domain tag: unexpected err %v", err)
	}
	if _, err := s.Get(ctx, rec.Token, ""); err != nil {
		t.Errorf("Get with no required tag: unexpected err %v", err)
	}
}
