package main

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"github.com/kalal-stream/mediagate/internal/tgupstream"
)

// binChannelLocator resolves an object id to its message in the bin
// channel, the Locator the Descriptor Cache calls on a miss (spec
// §4.3). Grounded on resolveChannel/ChannelsGetMessages in the
// teacher's internal/extractor/telegram/download.go.
type binChannelLocator struct {
	pool         *tgupstream.Pool
	binChannelID int64
	accessHash   int64
}

func (l *binChannelLocator) LocateMessage(ctx context.Context, objectID int64) (*tg.Message, error) {
	id := l.pool.Least()
	release := id.StartRequest()
	defer release()

	res, err := id.API.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: &tg.InputChannel{ChannelID: l.binChannelID, AccessHash: l.accessHash},
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: int(objectID)}},
	})
	if err != nil {
		return nil, fmt.Errorf("locate message %d: %w", objectID, err)
	}

	var messages []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesChannelMessages:
		messages = r.Messages
	case *tg.MessagesMessages:
		messages = r.Messages
	default:
		return nil, fmt.Errorf("locate message %d: unexpected response type %T", objectID, res)
	}
	if len(messages) == 0 {
		return nil, tgupstream.ErrFileNotFound
	}

	msg, ok := messages[0].(*tg.Message)
	if !ok {
		return nil, tgupstream.ErrFileNotFound
	}
	return msg, nil
}
