package event

import "engagekit/pkg/models"

// Kind is the discriminator carried in every transport envelope.
type Kind string

const (
	KindChatMessageCreated Kind = "message-created"
	KindChatMessageUpdated Kind = "message-updated"
	KindChatMessageDeleted Kind = "message-deleted"

	KindTextPredictionCreated         Kind = "text-prediction-created"
	KindTextPredictionFollowUpCreated Kind = "text-prediction-follow-up-created"
	KindImagePredictionCreated        Kind = "image-prediction-created"
	KindTextPollCreated               Kind = "text-poll-created"
	KindImagePollCreated              Kind = "image-poll-created"
	KindTextQuizCreated               Kind = "text-quiz-created"
	KindImageQuizCreated              Kind = "image-quiz-created"
	KindAlertCreated                  Kind = "alert-created"
	KindImageSliderCreated            Kind = "image-slider-created"
	KindCheerMeterCreated             Kind = "cheer-meter-created"
	KindSocialEmbedCreated            Kind = "social-embed-created"
	KindQuizResults                   Kind = "quiz-results"
	KindPredictionResults             Kind = "prediction-results"
)

// Event is the decoded, strongly-typed form of a transport message.
type Event interface {
	Kind() Kind
	// Channel returns the channel the event belongs to; may be empty for
	// broadcast-style events.
	Channel() string
}

// ChatMessageCreated signals a new chat message arriving on a channel.
type ChatMessageCreated struct {
	Message models.ChatMessage
}

func (ChatMessageCreated) Kind() Kind        { return KindChatMessageCreated }
func (e ChatMessageCreated) Channel() string { return e.Message.RoomID }

// ChatMessageUpdated signals an edit of an already-delivered message.
type ChatMessageUpdated struct {
	Message models.ChatMessage
}

func (ChatMessageUpdated) Kind() Kind        { return KindChatMessageUpdated }
func (e ChatMessageUpdated) Channel() string { return e.Message.RoomID }

// ChatMessageDeleted signals removal of a message by ID.
type ChatMessageDeleted struct {
	Room      string
	MessageID string
}

func (ChatMessageDeleted) Kind() Kind        { return KindChatMessageDeleted }
func (e ChatMessageDeleted) Channel() string { return e.Room }

// WidgetCreated signals a new widget of any kind. The concrete kind is
// the envelope discriminator, preserved in EventKind.
type WidgetCreated struct {
	EventKind Kind
	Widget    models.WidgetResource
}

func (e WidgetCreated) Kind() Kind      { return e.EventKind }
func (e WidgetCreated) Channel() string { return e.Widget.Channel }

// Results carries final tallies for a quiz or prediction widget.
type Results struct {
	EventKind Kind
	WidgetID  string
	Room      string
	Options   []models.WidgetOption
}

func (e Results) Kind() Kind      { return e.EventKind }
func (e Results) Channel() string { return e.Room }
