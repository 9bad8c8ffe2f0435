// Package linkstore implements the Link Indirection Store (spec §4.2):
// the mapping from an opaque public token to the upstream object it
// resolves to. It is grounded on danielloader-oci-pull-through's
// internal/cache.Store interface (dual backend, Init/Get/Put shape) and
// on original_source/Adarsh/utils/database.py's store_temp_file /
// get_temp_file, which back the same mapping with MongoDB or an
// in-memory dict depending on whether DATABASE_URL is set.
package linkstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownToken means no LinkRecord exists for the given token (spec §7).
var ErrUnknownToken = errors.New("linkstore: unknown token")

// Display is the record's presentation metadata (spec §3's
// `{file_name, file_size, mime_type, caption}` bag), stored as given to
// Put. The HTTP link routes do not read it; they report file metadata
// from the object descriptor.
type Display struct {
	FileName string
	FileSize int64
	MimeType string
	Caption  string
}

// LinkRecord is the public token's resolution target (spec §3). The
// zero value is never valid; records are only produced by Put.
// SourceChannelID is where the underlying message currently lives; the
// copy-to-archive step (internal/archive) forwards it into the bin
// channel from there before a stream URL is ever handed out. DomainTag
// keeps two front-end domains backed by the same store independent
// (spec §4.2); empty means the record is visible to every domain.
type LinkRecord struct {
	Token           string
	ObjectID        int64
	SourceChannelID int64
	Display         Display
	DomainTag       string
	ThumbnailURL    string
	CreatedAt       time.Time
}

// Store is the Link Indirection Store's storage contract. Both the
// durable (MongoDB) and in-memory implementations satisfy it identically;
// callers must not be able to tell them apart (spec §4.2's retention
// note: tokens never expire under either backend, per the Open Question
// decision recorded in DESIGN.md).
type Store interface {
	// Put creates a new record for a message living in sourceChannelID
	// and returns the stored record, its new token included. domainTag
	// and thumbnailURL may be empty.
	Put(ctx context.Context, objectID, sourceChannelID int64, display Display, domainTag, thumbnailURL string) (LinkRecord, error)
	// Get resolves token to its record, or ErrUnknownToken. When
	// requireDomainTag is non-empty and the stored record carries a
	// different non-empty tag, the lookup behaves as if the token were
	// unknown (spec §4.2's dual-domain isolation).
	Get(ctx context.Context, token, requireDomainTag string) (LinkRecord, error)
	// Close releases any resources (a Mongo client's connection pool, for
	// the in-memory backend a no-op).
	Close(ctx context.Context) error
}
