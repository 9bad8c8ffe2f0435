package main

import (
	"errors"
	"net"
	"time"

	"github.com/gotd/td/tgerr"

	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// classifyUploadError maps a raw gotd/td error from upload.GetFile into
// the typed errors internal/streaming's retry logic understands: a
// FLOOD_WAIT becomes UpstreamFloodError, a network-level failure
// becomes TransportError, anything else passes through unchanged.
func classifyUploadError(err error) error {
	var rpcErr *tgerr.Error
	if errors.As(err, &rpcErr) {
		if rpcErr.Type == "FLOOD_WAIT" || rpcErr.Type == "FLOOD_PREMIUM_WAIT" {
			return &tgupstream.UpstreamFloodError{Wait: time.Duration(rpcErr.Argument) * time.Second}
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &tgupstream.TransportError{Op: "upload.getFile", Err: err}
	}

	return err
}
