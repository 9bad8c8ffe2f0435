package tgupstream

import (
	"context"
	"sync"
	"time"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// flushInterval is how often the cache drops every entry, matching the
// original's clean_cache's 30-minute period in custom_dl.py.
const flushInterval = 30 * time.Minute

// Locator resolves an object id to its channel message, the one piece
// of upstream state a DescriptorCache cannot derive on its own. It is
// satisfied by the bin-channel message fetcher built in cmd/mediagate.
// The message's media itself carries the dc_id of the shard holding its
// bytes; the channel's own DC plays no part in that.
type Locator interface {
	LocateMessage(ctx context.Context, objectID int64) (*tg.Message, error)
}

// DescriptorCache is the Descriptor Cache (spec §4.3): an in-process
// map from object id to descriptor, populated lazily and fully flushed
// on a timer rather than per-entry expiry, equivalent to the original's
// cached_file_ids + clean_cache.
type DescriptorCache struct {
	mu      sync.RWMutex
	entries map[int64]*ObjectDescriptor

	locator Locator
	log     *zap.Logger
}

func NewDescriptorCache(locator Locator, log *zap.Logger) *DescriptorCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &DescriptorCache{
		entries: make(map[int64]*ObjectDescriptor),
		locator: locator,
		log:     log,
	}
}

// Locate returns the descriptor for objectID, consulting the cache
// first and falling back to the Locator on a miss (spec §4.3).
func (c *DescriptorCache) Locate(ctx context.Context, objectID int64) (*ObjectDescriptor, error) {
	c.mu.RLock()
	if d, ok := c.entries[objectID]; ok {
		c.mu.RUnlock()
		return d, nil
	}
	c.mu.RUnlock()

	msg, err := c.locator.LocateMessage(ctx, objectID)
	if err != nil {
		return nil, err
	}

	d, err := descriptorFromMessage(objectID, msg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[objectID] = d
	c.mu.Unlock()
	return d, nil
}

// descriptorFromMessage extracts a descriptor from whichever media kind
// the message carries (spec §3's "document or photo").
func descriptorFromMessage(objectID int64, msg *tg.Message) (*ObjectDescriptor, error) {
	media, ok := msg.GetMedia()
	if !ok {
		return nil, ErrFileNotFound
	}
	switch m := media.(type) {
	case *tg.MessageMediaDocument:
		doc, ok := m.Document.AsNotEmpty()
		if !ok {
			return nil, ErrFileNotFound
		}
		return descriptorFromDocument(objectID, doc)
	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.AsNotEmpty()
		if !ok {
			return nil, ErrFileNotFound
		}
		return descriptorFromPhoto(objectID, photo)
	default:
		return nil, ErrFileNotFound
	}
}

// RunJanitor flushes the whole cache every flushInterval until ctx is
// canceled. Called as a goroutine from cmd/mediagate/main.go.
func (c *DescriptorCache) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			n := len(c.entries)
			c.entries = make(map[int64]*ObjectDescriptor)
			c.mu.Unlock()
			c.log.Debug("descriptor cache flushed", zap.Int("entries_dropped", n))
		}
	}
}

// Len reports the current cache size.
func (c *DescriptorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
