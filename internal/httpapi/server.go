// Package httpapi implements the HTTP Front (spec §4.1): route
// handling, header contracts, and request wiring across the link
// store, descriptor cache, rate limiter and streaming engine. Routing
// and middleware follow gin, the way the teacher (guiyumin-vget) and
// the in-domain TG-FileStreamBot examples both use it.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalal-stream/mediagate/internal/archive"
	"github.com/kalal-stream/mediagate/internal/linkstore"
	"github.com/kalal-stream/mediagate/internal/ratelimit"
	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// Upstream is everything the HTTP front needs from the Telegram
// capability: descriptor resolution, a reader factory for the chunk
// generator, and the archive copier, kept behind an interface so route
// handlers are testable without a live MTProto connection.
type Upstream interface {
	Descriptor(ctx context.Context, objectID int64) (*tgupstream.ObjectDescriptor, error)
	OpenReader(ctx context.Context, d *tgupstream.ObjectDescriptor, a StreamAlignment) (StreamBody, error)
	Identities() []IdentityStatus
}

// IdentityStatus is the liveness route's per-identity payload (spec's
// supplemented `/` route).
type IdentityStatus struct {
	Index    int
	Username string
	Load     int64
}

// Server owns the gin engine and every dependency a route needs.
type Server struct {
	engine   *gin.Engine
	store    linkstore.Store
	upstream Upstream
	limiter  *ratelimit.Limiter
	archiver *archive.Archiver
	log      *zap.Logger

	fqdn           string
	hasSSL         bool
	serveDomain    string
	dualDomainWeb  string
	dualDomainWebX string

	startedAt time.Time
}

// Config is the subset of process config the HTTP front needs.
// ServeDomain, when set, is the domain tag this instance serves (spec
// §4.2); link lookups require a stored tag to either match it or be
// unset, keeping multiple front domains backed by one store independent.
// DualDomainWeb/DualDomainWebX name the FQDN each tag should advertise
// in minted URLs, overriding FQDN when ServeDomain picks one of them.
type Config struct {
	FQDN           string
	HasSSL         bool
	ServeDomain    string
	DualDomainWeb  string
	DualDomainWebX string
}

func New(store linkstore.Store, upstream Upstream, limiter *ratelimit.Limiter, archiver *archive.Archiver, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:         gin.New(),
		store:          store,
		upstream:       upstream,
		limiter:        limiter,
		archiver:       archiver,
		log:            log,
		fqdn:           cfg.FQDN,
		hasSSL:         cfg.HasSSL,
		serveDomain:    cfg.ServeDomain,
		dualDomainWeb:  cfg.DualDomainWeb,
		dualDomainWebX: cfg.DualDomainWebX,
		startedAt:      time.Now(),
	}
	s.engine.Use(gin.Recovery(), s.loggingMiddleware())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// loggingMiddleware logs each request at Info with method, path, status
// and latency, the structured equivalent of the teacher's plain
// request-logging middleware in internal/server/server.go. Each request
// gets a fresh correlation id so a single stream's log lines (which can
// span minutes for a large object) can be grepped together.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()
		s.log.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", clientIP(c.Request)),
		)
	}
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleLiveness)
	s.engine.GET("/favicon.ico", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	s.engine.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
	})

	s.engine.GET("/prepare/:token", s.handlePrepare)
	s.engine.GET("/api/generate/:token", s.handleGenerate)
	s.engine.GET("/api/download/:token", s.handleDownload)

	s.engine.GET("/watch/:path", s.handleWatch)
	s.engine.GET("/watch/:path/:name", s.handleWatch)

	s.engine.GET("/:path", s.handleStream)
	s.engine.HEAD("/:path", s.handleStream)
	s.engine.GET("/:path/:name", s.handleStream)
	s.engine.HEAD("/:path/:name", s.handleStream)
}
