package tgupstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// maxImportAttempts bounds the export/import handshake retry loop,
// matching generate_media_session's six attempts in custom_dl.py.
const maxImportAttempts = 6

// Transport-error retries during a chunk read are bounded by
// internal/streaming's maxPartAttempts, since that is the package that
// owns the read loop and its exponential backoff (spec §4.4).

// Session is a live connection to one data center, either the
// identity's home connection or one built from an imported cross-DC
// authorization (spec §4.4, "Home DC" / "Cross-DC" cases).
type Session struct {
	DataCenterID int
	API          *tg.Client
	client       *telegram.Client // nil for the home-DC case; owned by the identity instead
	cancel       context.CancelFunc
}

// SessionPool hands out Sessions per (identity, data center), caching
// cross-DC sessions for reuse and rebuilding them after a transport
// failure, equivalent to ByteStreamer.generate_media_session's
// in-memory session cache.
type SessionPool struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session
	log      *zap.Logger

	// dial constructs a new telegram.Client bound to the given DC, started
	// and ready to accept API calls. Exposed as a field so tests can stub
	// it without a live network connection.
	dial func(ctx context.Context, dcID int) (*telegram.Client, error)
}

type sessionKey struct {
	identity int
	dcID     int
}

// NewSessionPool builds a pool that dials cross-DC sessions with dial.
func NewSessionPool(dial func(ctx context.Context, dcID int) (*telegram.Client, error), log *zap.Logger) *SessionPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionPool{
		sessions: make(map[sessionKey]*Session),
		log:      log,
		dial:     dial,
	}
}

// homeDC is the data center an identity's own client is already
// connected to; callers pass it so Acquire can short-circuit the
// cross-DC handshake when they match.
func (p *SessionPool) Acquire(ctx context.Context, id *Identity, homeDC, targetDC int) (*Session, error) {
	if targetDC == homeDC {
		return &Session{DataCenterID: homeDC, API: id.API}, nil
	}

	key := sessionKey{identity: id.Index, dcID: targetDC}

	p.mu.Lock()
	if s, ok := p.sessions[key]; ok {
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	s, err := p.buildCrossDC(ctx, id, targetDC)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.sessions[key] = s
	p.mu.Unlock()
	return s, nil
}

// buildCrossDC performs the export/import authorization handshake
// described in spec §4.4: export from the identity's home connection,
// dial the target DC, import there. Retried up to maxImportAttempts
// times with a short backoff, mirroring custom_dl.py's retry loop.
func (p *SessionPool) buildCrossDC(ctx context.Context, id *Identity, targetDC int) (*Session, error) {
	var lastErr error
	for attempt := 1; attempt <= maxImportAttempts; attempt++ {
		exported, err := id.API.AuthExportAuthorization(ctx, &tg.AuthExportAuthorizationRequest{
			DCID: targetDC,
		})
		if err != nil {
			lastErr = fmt.Errorf("export authorization: %w", err)
			p.backoff(ctx, attempt)
			continue
		}

		client, err := p.dial(ctx, targetDC)
		if err != nil {
			lastErr = fmt.Errorf("dial dc %d: %w", targetDC, err)
			p.backoff(ctx, attempt)
			continue
		}

		api := client.API()
		_, err = api.AuthImportAuthorization(ctx, &tg.AuthImportAuthorizationRequest{
			ID:    exported.ID,
			Bytes: exported.Bytes,
		})
		if err != nil {
			lastErr = err
			p.backoff(ctx, attempt)
			continue
		}

		p.log.Debug("cross-dc session established",
			zap.Int("identity", id.Index), zap.Int("dc_id", targetDC), zap.Int("attempt", attempt))
		return &Session{DataCenterID: targetDC, API: api, client: client}, nil
	}
	return nil, &AuthInvalidError{DataCenterID: targetDC, Err: lastErr}
}

func (p *SessionPool) backoff(ctx context.Context, attempt int) {
	d := time.Duration(attempt) * 200 * time.Millisecond
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Invalidate drops a cached cross-DC session after a transport error so
// the next Acquire rebuilds it from scratch (spec §4.4's teardown step).
func (p *SessionPool) Invalidate(id *Identity, dcID int) {
	key := sessionKey{identity: id.Index, dcID: dcID}
	p.mu.Lock()
	s, ok := p.sessions[key]
	delete(p.sessions, key)
	p.mu.Unlock()
	if ok && s.client != nil && s.cancel != nil {
		s.cancel()
	}
}
