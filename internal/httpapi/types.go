package httpapi

import (
	"io"

	"github.com/kalal-stream/mediagate/internal/streaming"
)

// StreamAlignment carries the chunk alignment math needed to open a
// reader for one request's byte range (spec §4.5), kept as a plain
// struct here so httpapi does not need to import tg types directly.
type StreamAlignment = streaming.Alignment

// StreamBody is what a stream handler reads from and must Close when
// done, wrapping the ChunkGenerator's lifetime.
type StreamBody interface {
	io.Reader
	io.Closer
}
