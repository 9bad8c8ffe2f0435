// Package streaming implements the byte-range streaming engine (spec
// §4.5): aligning an arbitrary HTTP byte range onto the upstream's fixed
// chunk boundaries and generating the trimmed sequence of bytes those
// aligned chunks produce. It is grounded on
// original_source/Adarsh/server/stream_routes.py's media_streamer and
// custom_dl.py's yield_file, reimplemented as a finite io.Reader.
package streaming

import "fmt"

// ChunkSize is the fixed upstream read size upload.GetFile is called
// with, matching the original's 1 MiB chunk_size.
const ChunkSize int64 = 1024 * 1024

// Alignment is the result of mapping an inclusive byte range onto chunk
// boundaries (spec §4.5).
type Alignment struct {
	Offset    int64 // first chunk-aligned byte to start reading from
	HeadTrim  int64 // bytes to discard from the first chunk read
	TailTrim  int64 // bytes to keep from the last chunk read (NOT discarded count)
	PartCount int64 // number of ChunkSize reads required
}

// Align computes the chunk alignment for the inclusive range [from, to]
// onto chunks of chunkSize bytes. Callers must validate the range
// with ValidateRange first; Align does not re-check bounds.
func Align(from, to, chunkSize int64) Alignment {
	offset := from - (from % chunkSize)
	headTrim := from - offset
	tailTrim := (to % chunkSize) + 1
	partCount := ceilDiv(to+1, chunkSize) - (offset / chunkSize)
	return Alignment{
		Offset:    offset,
		HeadTrim:  headTrim,
		TailTrim:  tailTrim,
		PartCount: partCount,
	}
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// ValidateRange enforces the same bounds check as the original's
// media_streamer: until_bytes must not exceed the object, from_bytes
// must not be negative, and the range must not be inverted (spec §8's
// "bad range" scenario, mapped to HTTP 416 by the caller).
func ValidateRange(from, to, fileSize int64) error {
	if to > fileSize-1 {
		return fmt.Errorf("streaming: range end %d exceeds file size %d", to, fileSize)
	}
	if from < 0 {
		return fmt.Errorf("streaming: range start %d is negative", from)
	}
	if to < from {
		return fmt.Errorf("streaming: range end %d precedes range start %d", to, from)
	}
	return nil
}

// BodyLength is the number of bytes the response body will contain for
// the given inclusive range, i.e. Content-Length for a 206/200 response.
func BodyLength(from, to int64) int64 {
	return to - from + 1
}
