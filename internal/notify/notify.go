// Package notify carries change notifications between running instances of
// the sheet that share one persisted key.
package notify

import (
	"context"
	"encoding/json"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

//go:generate mockgen -destination=mock/mock_broadcaster.go -package=notifymock github.com/KirkDiggler/rpg-sheet/internal/notify Broadcaster

// Action is the kind of change a Message announces
type Action string

// Message actions
const (
	ActionUpdate Action = "update"
	ActionRemove Action = "remove"
)

// Message is the wire format shared by every Broadcaster.
// Source identifies the publishing instance so it can skip its own messages.
type Message struct {
	Action Action          `json:"action"`
	Key    string          `json:"key"`
	Value  json.RawMessage `json:"value,omitempty"`
	Source string          `json:"source"`
}

// Handler receives messages from a subscription
type Handler func(Message)

// Broadcaster publishes messages to, and receives them from, other instances
type Broadcaster interface {
	Publish(ctx context.Context, msg Message) error
	// Subscribe registers h until the returned cancel func is called.
	Subscribe(ctx context.Context, h Handler) (cancel func(), err error)
}

// Validate checks the fields every message needs
func (m Message) Validate() error {
	vb := errors.NewValidationBuilder()
	errors.ValidateEnum("action", string(m.Action), []string{string(ActionUpdate), string(ActionRemove)}, vb)
	errors.ValidateRequired("key", m.Key, vb)
	errors.ValidateRequired("source", m.Source, vb)
	return vb.Build()
}

func encode(msg Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to encode notification")
	}
	return raw, nil
}

func decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, errors.WrapWithCode(err, errors.CodeSerialization, "failed to decode notification")
	}
	return msg, nil
}
