package tgupstream

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// Identity is one authenticated upstream connection (one bot token) and
// its in-flight request counter, the Go equivalent of the original's
// per-client entry in work_loads (custom_dl.py).
type Identity struct {
	Index    int
	Client   *telegram.Client
	API      *tg.Client
	Self     *tg.User
	HomeDC   int
	inFlight int64
}

// StartRequest increments the identity's in-flight counter and returns a
// function that must be deferred to decrement it on every exit path,
// matching the original's try/finally around work_loads[index].
func (id *Identity) StartRequest() func() {
	atomic.AddInt64(&id.inFlight, 1)
	return func() {
		atomic.AddInt64(&id.inFlight, -1)
	}
}

func (id *Identity) Load() int64 {
	return atomic.LoadInt64(&id.inFlight)
}

// Pool is the Load Balancer over a set of identities (spec §4.4): it
// hands out the least busy identity for each new request.
type Pool struct {
	identities []*Identity
	log        *zap.Logger
}

// NewPool wraps already-connected identities. Connection/auth is done by
// the caller (cmd/mediagate/main.go) since it requires a running client.Run
// loop per identity, which owns its own goroutine lifecycle.
func NewPool(identities []*Identity, log *zap.Logger) (*Pool, error) {
	if len(identities) == 0 {
		return nil, fmt.Errorf("tgupstream: pool requires at least one identity")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{identities: identities, log: log}, nil
}

// Least returns the identity with the smallest in-flight counter,
// matching the original's `min(work_loads, key=work_loads.get)`.
func (p *Pool) Least() *Identity {
	best := p.identities[0]
	for _, id := range p.identities[1:] {
		if id.Load() < best.Load() {
			best = id
		}
	}
	return best
}

// All returns every identity, for liveness reporting (spec's
// supplemented `/` route payload).
func (p *Pool) All() []*Identity {
	return p.identities
}

// Loads reports each identity's current in-flight count, in index order.
func (p *Pool) Loads() []int64 {
	out := make([]int64, len(p.identities))
	for i, id := range p.identities {
		out[i] = id.Load()
	}
	return out
}

// ResolveSelf fetches and caches the identity's own user info, used for
// the liveness route's bot-username reporting.
func ResolveSelf(ctx context.Context, api *tg.Client) (*tg.User, error) {
	full, err := api.UsersGetFullUser(ctx, &tg.InputUserSelf{})
	if err != nil {
		return nil, fmt.Errorf("tgupstream: resolve self: %w", err)
	}
	for _, u := range full.Users {
		if user, ok := u.(*tg.User); ok && user.Self {
			return user, nil
		}
	}
	return nil, fmt.Errorf("tgupstream: resolve self: no self user in response")
}
