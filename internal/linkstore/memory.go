package linkstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-memory Link Indirection Store fallback, used
// when DATABASE_URL is empty (spec §4.2, §6.3). It has process lifetime
// only; nothing here persists a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]LinkRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]LinkRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, objectID, sourceChannelID int64, display Display, domainTag, thumbnailURL string) (LinkRecord, error) {
	token, err := newToken()
	if err != nil {
		return LinkRecord{}, err
	}
	rec := LinkRecord{
		Token:           token,
		ObjectID:        objectID,
		SourceChannelID: sourceChannelID,
		Display:         display,
		DomainTag:       domainTag,
		ThumbnailURL:    thumbnailURL,
		CreatedAt:       s.now(),
	}

	s.mu.Lock()
	s.records[token] = rec
	s.mu.Unlock()
	return rec, nil
}

func (s *MemoryStore) Get(ctx context.Context, token, requireDomainTag string) (LinkRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[token]
	s.mu.RUnlock()
	if !ok {
		return LinkRecord{}, ErrUnknownToken
	}
	if requireDomainTag != "" && rec.DomainTag != "" && rec.DomainTag != requireDomainTag {
		return LinkRecord{}, ErrUnknownToken
	}
	return rec, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Len reports the number of stored records, used in tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
