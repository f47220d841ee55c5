package models

// ImageRef points at a remote image attachment.
type ImageRef struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ChatMessage is one chat entry flowing through the delivery chain.
//
// Identity is the ID alone: two messages with the same ID are the same
// message regardless of drift in the other fields, which is what the
// reorder buffer relies on for de-duplication.
type ChatMessage struct {
	ID     string   `json:"id"`
	RoomID string   `json:"room_id"`
	Body   string   `json:"body,omitempty"`
	Sender ChatUser `json:"sender"`
	// ScheduledTS is a position on the external playback timeline in
	// milliseconds, not wall clock. Zero means eligible immediately.
	ScheduledTS int64       `json:"scheduled_ts,omitempty"`
	CreatedAt   int64       `json:"created_at"`
	Reactions   ReactionSet `json:"reactions,omitempty"`
	Attachment  *ImageRef   `json:"attachment,omitempty"`
}

// Same reports whether other refers to the same message.
func (m ChatMessage) Same(other ChatMessage) bool {
	return m.ID == other.ID
}
