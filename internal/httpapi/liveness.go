package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// version is set at build time via -ldflags; unset in this tree.
var version = "dev"

// livenessResponse matches the supplemented `/` route payload shape
// (SPEC_FULL.md, "Supplemented features"): status, uptime, version and
// the list of connected bots with each one's load, mirroring root_route_handler in
// stream_routes.py.
type livenessResponse struct {
	Status     string           `json:"server_status"`
	UptimeSecs int64            `json:"uptime_seconds"`
	Version    string           `json:"version"`
	Identities []identityReport `json:"connected_bots"`
}

type identityReport struct {
	Index    int    `json:"index"`
	Username string `json:"username"`
	Load     int64  `json:"load"`
}

func (s *Server) handleLiveness(c *gin.Context) {
	identities := s.upstream.Identities()
	reports := make([]identityReport, len(identities))
	for i, id := range identities {
		reports[i] = identityReport{Index: id.Index, Username: id.Username, Load: id.Load}
	}
	c.JSON(http.StatusOK, livenessResponse{
		Status:     "running",
		UptimeSecs: int64(time.Since(s.startedAt).Seconds()),
		Version:    version,
		Identities: reports,
	})
}
