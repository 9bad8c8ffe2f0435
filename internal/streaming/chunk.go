package streaming

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// interPartDelay is the pacing sleep issued between parts (not after the
// last one), matching yield_file's 100ms sleep in custom_dl.py.
const interPartDelay = 100 * time.Millisecond

// maxPartAttempts bounds transport-error retries for a single part
// before the generator gives up and returns an error (spec §4.5).
const maxPartAttempts = 5

// FileReader issues a raw upload.GetFile call for one part. Implemented
// by a tg.Client wrapper in cmd/mediagate (apiFileReader); abstracted here so the
// generator can be tested without a live MTProto connection.
type FileReader interface {
	GetFile(ctx context.Context, location tg.InputFileLocationClass, offset, limit int64) ([]byte, error)
}

// Rebuilder produces a fresh FileReader for the same (identity, dc)
// pair after a transport error tears the previous one down (spec §4.4's
// "rebuild session" recovery step).
type Rebuilder func(ctx context.Context) (FileReader, error)

// ChunkGenerator is a finite io.Reader over one aligned byte range of an
// upstream object (spec §4.5), equivalent to ByteStreamer.yield_file.
// It is single-use: once Read returns io.EOF it must be discarded.
type ChunkGenerator struct {
	ctx      context.Context
	location tg.InputFileLocationClass

	reader FileReader
	rebuild Rebuilder

	chunkSize int64
	offset    int64
	partsLeft int64
	partIndex int64

	headTrim int64
	tailTrim int64

	pending []byte // bytes read but not yet consumed by Read

	release func() // in-flight counter release, called exactly once

	log *zap.Logger
}

// NewChunkGenerator builds a generator for the given alignment. release
// is called exactly once, on the first terminal Read (EOF or error),
// matching the original's try/finally around work_loads[index].
func NewChunkGenerator(ctx context.Context, location tg.InputFileLocationClass, a Alignment, chunkSize int64, reader FileReader, rebuild Rebuilder, release func(), log *zap.Logger) *ChunkGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	if release == nil {
		release = func() {}
	}
	return &ChunkGenerator{
		ctx:       ctx,
		location:  location,
		reader:    reader,
		rebuild:   rebuild,
		chunkSize: chunkSize,
		offset:    a.Offset,
		partsLeft: a.PartCount,
		headTrim:  a.HeadTrim,
		tailTrim:  a.TailTrim,
		release:   release,
		log:       log,
	}
}

// Read implements io.Reader. Each call drains buffered bytes first, then
// fetches further parts as needed. Trimming is applied once per edge
// part: HeadTrim on the very first part, TailTrim on the very last.
func (g *ChunkGenerator) Read(p []byte) (int, error) {
	for len(g.pending) == 0 {
		if g.partsLeft <= 0 {
			g.finish()
			return 0, io.EOF
		}

		data, err := g.fetchPart()
		if err != nil {
			g.finish()
			return 0, err
		}

		isFirst := g.partIndex == 0
		isLast := g.partsLeft == 1

		if isFirst && g.headTrim > 0 {
			if g.headTrim > int64(len(data)) {
				g.finish()
				return 0, errors.New("streaming: head trim exceeds part size")
			}
			data = data[g.headTrim:]
		}
		if isLast {
			// TailTrim counts from the start of the chunk as read; when the
			// head was already cut from this same part, shift it by that.
			keep := g.tailTrim
			if isFirst {
				keep -= g.headTrim
			}
			if keep > 0 && keep < int64(len(data)) {
				data = data[:keep]
			}
		}

		if len(data) == 0 {
			g.finish()
			return 0, errors.New("streaming: upstream returned an empty chunk")
		}

		g.pending = data
		g.partIndex++
		g.partsLeft--
		g.offset += g.chunkSize

		if g.partsLeft > 0 {
			select {
			case <-g.ctx.Done():
				g.finish()
				return 0, g.ctx.Err()
			case <-time.After(interPartDelay):
			}
		}
	}

	n := copy(p, g.pending)
	g.pending = g.pending[n:]
	return n, nil
}

func (g *ChunkGenerator) finish() {
	if g.release != nil {
		g.release()
		g.release = nil
	}
}

// fetchPart issues one upload.GetFile call at the generator's current
// offset, retrying transport errors with a rebuilt reader and sleeping
// through flood waits without consuming a retry attempt, per spec §4.4.
func (g *ChunkGenerator) fetchPart() ([]byte, error) {
	var lastErr error
	attempt := 0
	for attempt < maxPartAttempts {
		data, err := g.reader.GetFile(g.ctx, g.location, g.offset, g.chunkSize)
		if err == nil {
			return data, nil
		}

		var flood *tgupstream.UpstreamFloodError
		if errors.As(err, &flood) {
			g.log.Debug("flood wait during chunk read", zap.Duration("wait", flood.Wait))
			select {
			case <-g.ctx.Done():
				return nil, g.ctx.Err()
			case <-time.After(flood.Wait):
			}
			continue // sleeping out a flood wait does not consume an attempt
		}

		attempt++
		var transport *tgupstream.TransportError
		if errors.As(err, &transport) && g.rebuild != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			g.log.Debug("rebuilding session after transport error",
				zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
			select {
			case <-g.ctx.Done():
				return nil, g.ctx.Err()
			case <-time.After(backoff):
			}
			newReader, rebuildErr := g.rebuild(g.ctx)
			if rebuildErr != nil {
				return nil, rebuildErr
			}
			g.reader = newReader
			continue
		}

		return nil, err
	}
	return nil, lastErr
}
