package tgupstream

import (
	"errors"
	"fmt"
	"time"
)

// ErrFileNotFound means the upstream has no object matching the id the
// caller asked for (spec §7).
var ErrFileNotFound = errors.New("tgupstream: file not found")

// ErrNoSession means the pool could not produce a usable session for a
// data center after exhausting its acquire algorithm (spec §4.4).
var ErrNoSession = errors.New("tgupstream: no usable session")

// UpstreamFloodError wraps a FLOOD_WAIT from the upstream, carrying the
// mandatory cool-down the caller must honor before retrying (spec §4.4,
// §4.5). It is never itself terminal: callers sleep Wait and retry from
// the same offset.
type UpstreamFloodError struct {
	Wait time.Duration
}

func (e *UpstreamFloodError) Error() string {
	return fmt.Sprintf("tgupstream: flood wait %s", e.Wait)
}

// TransportError marks a connection-level failure (timeout, reset,
// disconnect) that requires tearing down and rebuilding the session
// before retrying, as opposed to a flood wait which does not (spec §4.4).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tgupstream: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthInvalidError means a data center's exported authorization could
// not be imported; the session for that DC cannot be built at all and
// the caller should surface 5xx rather than retry indefinitely.
type AuthInvalidError struct {
	DataCenterID int
	Err          error
}

func (e *AuthInvalidError) Error() string {
	return fmt.Sprintf("tgupstream: auth import failed for dc %d: %v", e.DataCenterID, e.Err)
}

func (e *AuthInvalidError) Unwrap() error { return e.Err }
