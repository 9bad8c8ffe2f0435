package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	rangeparser "github.com/quantumsheep/range-parser"
	"go.uber.org/zap"

	"github.com/kalal-stream/mediagate/internal/streaming"
	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// compactPath matches the "hash+id" single-segment form of a stream
// path (e.g. /Ab3dE9123456789), mirroring stream_routes.py's
// ^([a-zA-Z0-9_-]{6})(\d+)$ regex over the path component.
var compactPath = regexp.MustCompile(`^([a-zA-Z0-9_-]{6})(\d+)$`)

// parsedStream is the outcome of parsing either path form: the compact
// "hash+id" segment, or a bare numeric id with ?hash= in the query.
type parsedStream struct {
	ObjectID int64
	Hash     string
}

func parseStreamPath(path, queryHash string) (parsedStream, bool) {
	if m := compactPath.FindStringSubmatch(path); m != nil {
		id, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return parsedStream{}, false
		}
		return parsedStream{ObjectID: id, Hash: m[1]}, true
	}

	id, err := strconv.ParseInt(path, 10, 64)
	if err != nil || queryHash == "" {
		return parsedStream{}, false
	}
	return parsedStream{ObjectID: id, Hash: queryHash}, true
}

// handleWatch resolves a watch path and redirects to the direct stream
// URL; rendering an HTML player around it is an external collaborator
// this repo does not implement (spec §1's out-of-scope surfaces).
func (s *Server) handleWatch(c *gin.Context) {
	parsed, ok := parseStreamPath(c.Param("path"), c.Query("hash"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed watch path"})
		return
	}

	d, err := s.upstream.Descriptor(c.Request.Context(), parsed.ObjectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}
	if !checkHash(d, parsed.Hash) {
		c.JSON(http.StatusForbidden, gin.H{"error": "hash mismatch"})
		return
	}

	target := streamURL(s.baseURL(c), parsed.ObjectID, parsed.Hash, fallbackFileName(d), false)
	c.Redirect(http.StatusFound, target)
}

// checkHash verifies the caller's hash against the descriptor's own
// (spec §4.1's tamper-deterrence check, not a security boundary — see
// DESIGN.md's Open Question decision).
func checkHash(d *tgupstream.ObjectDescriptor, hash string) bool {
	want, err := d.Hash()
	if err != nil {
		return false
	}
	return want == hash
}

// handleStream is the core byte-range route (spec §4.5): it parses and
// validates the Range header, aligns it onto chunk boundaries, and
// copies the resulting ChunkGenerator into the response body.
func (s *Server) handleStream(c *gin.Context) {
	path := c.Param("path")
	queryHash := c.Query("hash")
	parsed, ok := parseStreamPath(path, queryHash)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed stream path"})
		return
	}

	ctx := c.Request.Context()
	d, err := s.upstream.Descriptor(ctx, parsed.ObjectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}
	if !checkHash(d, parsed.Hash) {
		c.JSON(http.StatusForbidden, gin.H{"error": "hash mismatch"})
		return
	}

	from, to, status, err := parseRange(c.Request.Header.Get("Range"), d.FileSize)
	if err != nil {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", d.FileSize))
		c.JSON(http.StatusRequestedRangeNotSatisfiable, gin.H{"error": err.Error()})
		return
	}

	align := streaming.Align(from, to, streaming.ChunkSize)
	body, err := s.upstream.OpenReader(ctx, d, align)
	if err != nil {
		s.log.Error("open reader failed", zap.Error(err), zap.Int64("object_id", d.ObjectID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open upstream stream"})
		return
	}
	defer body.Close()

	setStreamHeaders(c, d, from, to, status)

	c.Status(status)
	if c.Request.Method == http.MethodHead {
		return
	}

	if _, err := io.CopyN(c.Writer, body, streaming.BodyLength(from, to)); err != nil {
		s.log.Debug("stream copy ended early", zap.Error(err))
	}
}

// parseRange applies range-parser then the exact bounds check from
// spec §4.5/§8: until_bytes must not exceed the object, from_bytes must
// not be negative, and the range must not be inverted.
func parseRange(header string, fileSize int64) (from, to int64, status int, err error) {
	if header == "" {
		return 0, fileSize - 1, http.StatusOK, nil
	}

	// range-parser clamps an end past the object to its last byte, so the
	// end the client asked for is checked before parsing.
	if spec, ok := strings.CutPrefix(header, "bytes="); ok {
		first, _, _ := strings.Cut(spec, ",")
		if start, end, ok := strings.Cut(first, "-"); ok && strings.TrimSpace(start) != "" {
			if n, err := strconv.ParseInt(strings.TrimSpace(end), 10, 64); err == nil && n > fileSize-1 {
				return 0, 0, 0, fmt.Errorf("streaming: range end %d exceeds file size %d", n, fileSize)
			}
		}
	}

	ranges, perr := rangeparser.Parse(fileSize, header)
	if perr != nil || len(ranges) == 0 {
		return 0, 0, 0, perr
	}
	from, to = ranges[0].Start, ranges[0].End

	if verr := streaming.ValidateRange(from, to, fileSize); verr != nil {
		return 0, 0, 0, verr
	}
	return from, to, http.StatusPartialContent, nil
}

func setStreamHeaders(c *gin.Context, d *tgupstream.ObjectDescriptor, from, to int64, status int) {
	w := c.Writer
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(streaming.BodyLength(from, to), 10))

	mimeType := d.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)

	if status == http.StatusPartialContent {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", from, to, d.FileSize))
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", dispositionFor(mimeType, c.Query("download") == "1"), fallbackFileName(d)))

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Range")
}

// dispositionFor picks Content-Disposition per spec §4.1: inline for
// video/audio unless ?download=1 forces attachment; anything else
// defaults to attachment.
func dispositionFor(mimeType string, download bool) string {
	isMedia := strings.HasPrefix(mimeType, "video/") || strings.HasPrefix(mimeType, "audio/")
	if isMedia && !download {
		return "inline"
	}
	return "attachment"
}
