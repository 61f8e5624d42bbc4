package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/repovault/internal/errors"
	"github.com/hpungsan/repovault/internal/gateway"
)

// ActionGetBookmarkCount asks for the number of persisted bookmarks.
const ActionGetBookmarkCount = "getBookmarkCount"

// Message is a request on the signal channel used by badge/indicator clients.
type Message struct {
	Action string `json:"action"`
}

// MessageResponse answers a getBookmarkCount message.
type MessageResponse struct {
	Count int `json:"count"`
}

// HandleMessage answers from the persisted collection, not from any
// in-memory store, so it reflects the last successful save.
func HandleMessage(ctx context.Context, gw gateway.Gateway, collection string, msg Message) (*MessageResponse, error) {
	switch msg.Action {
	case ActionGetBookmarkCount:
		records, _, err := gw.Get(ctx, collection)
		if err != nil {
			if errors.Is(err, errors.ErrPersistence) {
				return nil, err
			}
			return nil, errors.NewPersistence("read collection", err)
		}
		return &MessageResponse{Count: len(records)}, nil
	default:
		return nil, errors.NewInvalidInput(fmt.Sprintf("unknown action %q", msg.Action))
	}
}
