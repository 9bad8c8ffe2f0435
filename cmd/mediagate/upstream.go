package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/kalal-stream/mediagate/internal/httpapi"
	"github.com/kalal-stream/mediagate/internal/streaming"
	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// gateway composes the Telegram-facing packages into the single
// httpapi.Upstream the HTTP front depends on. It owns no state of its
// own beyond the collaborators it was built from.
type gateway struct {
	pool       *tgupstream.Pool
	sessions   *tgupstream.SessionPool
	descriptor *tgupstream.DescriptorCache
	binChannel int64
	log        *zap.Logger
}

func newGateway(pool *tgupstream.Pool, sessions *tgupstream.SessionPool, descriptor *tgupstream.DescriptorCache, binChannel int64, log *zap.Logger) *gateway {
	return &gateway{pool: pool, sessions: sessions, descriptor: descriptor, binChannel: binChannel, log: log}
}

func (g *gateway) Descriptor(ctx context.Context, objectID int64) (*tgupstream.ObjectDescriptor, error) {
	return g.descriptor.Locate(ctx, objectID)
}

func (g *gateway) Identities() []httpapi.IdentityStatus {
	all := g.pool.All()
	out := make([]httpapi.IdentityStatus, len(all))
	for i, id := range all {
		username := ""
		if id.Self != nil {
			username = id.Self.Username
		}
		out[i] = httpapi.IdentityStatus{Index: id.Index, Username: username, Load: id.Load()}
	}
	return out
}

// OpenReader picks the least-busy identity, acquires a session for the
// descriptor's data center, and wraps a ChunkGenerator around it (spec
// §4.4, §4.5).
func (g *gateway) OpenReader(ctx context.Context, d *tgupstream.ObjectDescriptor, a httpapi.StreamAlignment) (httpapi.StreamBody, error) {
	id := g.pool.Least()
	release := id.StartRequest()

	session, err := g.sessions.Acquire(ctx, id, id.HomeDC, d.DataCenterID)
	if err != nil {
		release()
		return nil, fmt.Errorf("acquire session: %w", err)
	}

	reader := &apiFileReader{api: session.API}
	rebuild := func(ctx context.Context) (streaming.FileReader, error) {
		g.sessions.Invalidate(id, d.DataCenterID)
		s, err := g.sessions.Acquire(ctx, id, id.HomeDC, d.DataCenterID)
		if err != nil {
			return nil, err
		}
		return &apiFileReader{api: s.API}, nil
	}

	var once sync.Once
	releaseOnce := func() { once.Do(release) }
	gen := streaming.NewChunkGenerator(ctx, d.Location, a, streaming.ChunkSize, reader, rebuild, releaseOnce, g.log)
	return &readerBody{ChunkGenerator: gen, release: releaseOnce}, nil
}

// readerBody adapts ChunkGenerator (a plain io.Reader) to the
// io.ReadCloser the HTTP front expects. Close releases the in-flight
// slot, since the front stops reading at the exact body length (or
// does not read at all for HEAD) and the generator may never see EOF.
type readerBody struct {
	*streaming.ChunkGenerator
	release func()
}

func (r *readerBody) Close() error {
	r.release()
	return nil
}

// apiFileReader issues the raw upload.GetFile call the chunk generator
// needs, translating FLOOD_WAIT and transport failures into the typed
// errors internal/streaming and internal/tgupstream expect.
type apiFileReader struct {
	api *tg.Client
}

func (f *apiFileReader) GetFile(ctx context.Context, location tg.InputFileLocationClass, offset, limit int64) ([]byte, error) {
	res, err := f.api.UploadGetFile(ctx, &tg.UploadGetFileRequest{
		Location: location,
		Offset:   offset,
		Limit:    int(limit),
	})
	if err != nil {
		return nil, classifyUploadError(err)
	}
	file, ok := res.(*tg.UploadFile)
	if !ok {
		return nil, fmt.Errorf("tgupstream: unexpected upload.getFile response type %T", res)
	}
	return file.Bytes, nil
}
