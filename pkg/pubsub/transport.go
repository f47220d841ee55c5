// Package pubsub defines the transport collaborator contract and the
// channel listener registry that fans decoded events out to subscribers.
// The wire protocol of the transport itself is out of scope; anything
// that can deliver opaque payloads per channel can implement Transport.
package pubsub

import "context"

// Status reports the transport connection state.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusReconnecting Status = "reconnecting"
)

// ActionEventType distinguishes message-action push callbacks.
type ActionEventType string

const (
	ActionAdded   ActionEventType = "added"
	ActionRemoved ActionEventType = "removed"
)

// MessageAction is a lightweight annotation (e.g. a reaction) attached
// to an existing message.
type MessageAction struct {
	ID              string
	Type            string
	Value           string
	TargetMessageID string
	Channel         string
	SenderID        string
}

// ActionEvent is the push callback payload for action add/remove.
type ActionEvent struct {
	Event  ActionEventType
	Action MessageAction
}

// HistoryPage is one page of raw historical payloads, oldest first.
type HistoryPage struct {
	Payloads [][]byte
	OldestID string
	NewestID string
}

// Listener receives push callbacks from a transport. Callbacks arrive on
// the transport's own callback lane; implementations must not block.
type Listener interface {
	OnMessage(channel string, payload []byte)
	OnMessageAction(ev ActionEvent)
	OnStatusChange(status Status)
}

// Transport is the pub/sub collaborator the SDK is built against.
//
// Errors from individual operations are scoped to that operation and do
// not tear down existing subscriptions.
type Transport interface {
	// Subscribe joins a channel; push messages for it will flow to the
	// Listener installed at construction.
	Subscribe(channel string) error
	// Unsubscribe leaves a channel.
	Unsubscribe(channel string) error
	// Publish sends a payload and returns the transport message ID.
	Publish(ctx context.Context, channel string, payload []byte) (string, error)
	// FetchHistory pages backward through retained messages. Zero-value
	// bounds mean "from the edge"; limit caps the page size.
	FetchHistory(ctx context.Context, channel, oldest, newest string, limit int) (HistoryPage, error)
	// SendMessageAction attaches an action to a message.
	SendMessageAction(ctx context.Context, actionType, value, targetMessageID string) (string, error)
	// RemoveMessageAction detaches a previously sent action.
	RemoveMessageAction(ctx context.Context, messageID, actionID string) error
	Close() error
}
