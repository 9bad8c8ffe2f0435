package httpapi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/kalal-stream/mediagate/internal/linkstore"
	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// resolveToken looks up a link token and its descriptor together, the
// shared first step of /prepare, /api/generate and /api/download.
func (s *Server) resolveToken(c *gin.Context) (linkstore.LinkRecord, *tgupstream.ObjectDescriptor, bool) {
	token := c.Param("token")
	rec, err := s.store.Get(c.Request.Context(), token, s.serveDomain)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown token"})
		return linkstore.LinkRecord{}, nil, false
	}

	d, err := s.upstream.Descriptor(c.Request.Context(), rec.ObjectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "object no longer available"})
		return linkstore.LinkRecord{}, nil, false
	}
	return rec, d, true
}

// requestScheme resolves "http"/"https" the way the original handled
// reverse-proxy deployments: trust X-Forwarded-Proto when present, else
// fall back to whether the connection itself was TLS.
func requestScheme(c *gin.Context) string {
	if proto := c.Request.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func (s *Server) baseURL(c *gin.Context) string {
	fqdn := s.fqdn
	switch s.serveDomain {
	case "web":
		if s.dualDomainWeb != "" {
			fqdn = s.dualDomainWeb
		}
	case "webx":
		if s.dualDomainWebX != "" {
			fqdn = s.dualDomainWebX
		}
	}

	if fqdn != "" {
		scheme := "http"
		if s.hasSSL {
			scheme = "https"
		}
		return scheme + "://" + fqdn
	}
	return requestScheme(c) + "://" + c.Request.Host
}

// watchURL builds the HTML-wrapper URL for an object, threading the
// player hint through (SPEC_FULL.md's supplemented "player" feature).
func watchURL(base string, objectID int64, hash, fileName, player string) string {
	q := url.Values{}
	q.Set("hash", hash)
	if player != "" {
		q.Set("player", player)
	}
	path := fmt.Sprintf("/watch/%d", objectID)
	if fileName != "" {
		path += "/" + url.PathEscape(fileName)
	}
	return base + path + "?" + q.Encode()
}

// streamURL builds the direct byte-stream URL for an object. download
// sets ?download=1, the query param setStreamHeaders checks to force
// Content-Disposition: attachment (spec §4.1).
func streamURL(base string, objectID int64, hash, fileName string, download bool) string {
	q := url.Values{}
	q.Set("hash", hash)
	if download {
		q.Set("download", "1")
	}
	path := fmt.Sprintf("/%d", objectID)
	if fileName != "" {
		path += "/" + url.PathEscape(fileName)
	}
	return base + path + "?" + q.Encode()
}

// thumbnailURLFor prefers the link record's own thumbnail, matching the
// original's passthrough of whatever thumbnail URL was set at ingest
// time (an external collaborator's concern, spec §1).
func thumbnailURLFor(rec linkstore.LinkRecord) string {
	return rec.ThumbnailURL
}

// handlePrepare resolves a short token to its watch URL without any
// archive side effect, used by clients that only need the canonical
// link before deciding whether to stream (spec §4.1).
func (s *Server) handlePrepare(c *gin.Context) {
	_, d, ok := s.resolveToken(c)
	if !ok {
		return
	}
	hash, err := d.Hash()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "descriptor error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"object_id": d.ObjectID,
		"file_name": d.FileName,
		"file_size": d.FileSize,
		"mime_type": d.MimeType,
		"watch_url": watchURL(s.baseURL(c), d.ObjectID, hash, fallbackFileName(d), c.Query("player")),
	})
}

// handleGenerate performs the copy-to-archive side effect (spec §4.7)
// and returns the public stream URL, mirroring /api/generate/{token} in
// stream_routes.py.
func (s *Server) handleGenerate(c *gin.Context) {
	rec, d, ok := s.resolveToken(c)
	if !ok {
		return
	}

	objectID, err := s.archiveIfNeeded(c, rec, d)
	if err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "upstream is rate limiting archive copies, try again shortly"})
		return
	}

	hash, err := d.Hash()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "descriptor error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stream_url":    streamURL(s.baseURL(c), objectID, hash, fallbackFileName(d), false),
		"file_name":     fallbackFileName(d),
		"thumbnail_url": thumbnailURLFor(rec),
	})
}

// archiveIfNeeded runs the copy-to-archive side effect (spec §4.7) when
// a record still points at its original source channel, returning the
// object id to publish a link against either way.
func (s *Server) archiveIfNeeded(c *gin.Context, rec linkstore.LinkRecord, d *tgupstream.ObjectDescriptor) (int64, error) {
	if s.archiver == nil || rec.SourceChannelID == 0 {
		return d.ObjectID, nil
	}
	return s.archiver.Archive(c.Request.Context(), rec.SourceChannelID, int(rec.ObjectID))
}

// handleDownload mirrors /api/download/{token}: same archive step as
// generate, rate limited per client IP, returning a direct-download URL.
func (s *Server) handleDownload(c *gin.Context) {
	ip := clientIP(c.Request)
	if ok, reason := s.limiter.CanProceed(ip); !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": reason})
		return
	}
	s.limiter.AddRequest(ip)

	rec, d, ok := s.resolveToken(c)
	if !ok {
		s.limiter.RemoveRequest(ip)
		return
	}

	objectID, err := s.archiveIfNeeded(c, rec, d)
	if err != nil {
		s.limiter.RemoveRequest(ip)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "upstream is rate limiting archive copies, try again shortly"})
		return
	}

	hash, err := d.Hash()
	if err != nil {
		s.limiter.RemoveRequest(ip)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "descriptor error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"download_url":  streamURL(s.baseURL(c), objectID, hash, fallbackFileName(d), true),
		"file_name":     fallbackFileName(d),
		"thumbnail_url": thumbnailURLFor(rec),
		"success":       true,
	})
}
