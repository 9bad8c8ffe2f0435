package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"mime"
	"net/http"
	"strings"

	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// clientIP extracts the caller's address for rate limiting, trusting
// the first hop of X-Forwarded-For when present (SPEC_FULL.md's
// supplemented "X-Forwarded-For" feature), falling back to RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}

// fallbackFileName returns the descriptor's file name, or a synthesized
// one from a short random hex suffix and an extension when none is
// present: the MIME type's first registered extension, else its subtype,
// else "bin" (SPEC_FULL.md's supplemented "auto filename fallback"
// feature, mirroring stream_routes.py's secrets.token_hex(2) fallback).
func fallbackFileName(d *tgupstream.ObjectDescriptor) string {
	if d.FileName != "" {
		return d.FileName
	}

	ext := "bin"
	if d.MimeType != "" {
		if exts, err := mime.ExtensionsByType(d.MimeType); err == nil && len(exts) > 0 {
			ext = strings.TrimPrefix(exts[0], ".")
		} else if idx := strings.LastIndexByte(d.MimeType, '/'); idx >= 0 {
			ext = d.MimeType[idx+1:]
		}
	}

	var buf [2]byte
	_, _ = rand.Read(buf[:])
	return "file_" + hex.EncodeToString(buf[:]) + "." + ext
}
