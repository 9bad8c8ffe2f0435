// Package archive implements the copy-to-archive side effect (spec
// §4.7): before a public link is minted for an object that lives
// outside the bin channel, the source message is copied into it so
// that the bin channel remains the durable home for every streamable
// object. Grounded on stream_routes.py's generate_link handler, which
// retries the forward up to three times on a flood wait before giving
// up and mapping the failure to a 429.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// maxCopyAttempts mirrors stream_routes.py's three-attempt forward loop.
const maxCopyAttempts = 3

// ErrArchiveUnavailable is returned once the copy retry budget is spent,
// mapped to HTTP 429 by the HTTP front (spec §7).
var ErrArchiveUnavailable = errors.New("archive: could not copy source message after retries")

// Copier forwards a message into the bin channel and reports the new
// message id there, the archived object's id. Implemented over
// tg.Client.MessagesForwardMessages by cmd/mediagate's wiring.
type Copier interface {
	ForwardMessage(ctx context.Context, fromChannel int64, messageID int) (newMessageID int, err error)
}

// Archiver runs the copy-to-archive step.
type Archiver struct {
	copier       Copier
	binChannelID int64
	log          *zap.Logger
}

func New(copier Copier, binChannelID int64, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{copier: copier, binChannelID: binChannelID, log: log}
}

// Archive copies the message at (fromChannel, messageID) into the bin
// channel and returns its new object id there, retrying on flood waits.
func (a *Archiver) Archive(ctx context.Context, fromChannel int64, messageID int) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= maxCopyAttempts; attempt++ {
		newID, err := a.copier.ForwardMessage(ctx, fromChannel, messageID)
		if err == nil {
			return int64(newID), nil
		}

		var flood *tgupstream.UpstreamFloodError
		if errors.As(err, &flood) {
			lastErr = err
			a.log.Debug("flood wait during archive copy", zap.Duration("wait", flood.Wait), zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(flood.Wait):
			}
			continue
		}

		return 0, fmt.Errorf("archive: forward message: %w", err)
	}
	a.log.Warn("archive copy exhausted retries", zap.Error(lastErr))
	return 0, ErrArchiveUnavailable
}

// tgForwardCopier is the default Copier, wrapping a raw tg.Client call.
// NewTGForwardCopier is exported so cmd/mediagate can construct one.
type tgForwardCopier struct {
	api      *tg.Client
	toPeer   tg.InputPeerClass
	randFunc func() int64
}

func NewTGForwardCopier(api *tg.Client, toPeer tg.InputPeerClass, randFunc func() int64) Copier {
	return &tgForwardCopier{api: api, toPeer: toPeer, randFunc: randFunc}
}

func (c *tgForwardCopier) ForwardMessage(ctx context.Context, fromChannel int64, messageID int) (int, error) {
	updates, err := c.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer: &tg.InputPeerChannel{ChannelID: fromChannel},
		ID:       []int{messageID},
		RandomID: []int64{c.randFunc()},
		ToPeer:   c.toPeer,
	})
	if err != nil {
		return 0, err
	}

	for _, u := range extractUpdates(updates) {
		if m, ok := u.(*tg.UpdateNewChannelMessage); ok {
			if msg, ok := m.Message.(*tg.Message); ok {
				return msg.ID, nil
			}
		}
	}
	return 0, fmt.Errorf("archive: forward response carried no new message")
}

func extractUpdates(u tg.UpdatesClass) []tg.UpdateClass {
	switch v := u.(type) {
	case *tg.Updates:
		return v.Updates
	case *tg.UpdatesCombined:
		return v.Updates
	default:
		return nil
	}
}
