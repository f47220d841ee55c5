package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"engagekit/pkg/models"
)

// ErrUnknownKind marks a payload whose discriminator is missing or not a
// kind this decoder handles.
var ErrUnknownKind = errors.New("unknown event kind")

// DecodeError reports a payload that named a known kind but whose body
// failed structural decoding.
type DecodeError struct {
	EventKind Kind
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed %s payload: %v", e.EventKind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// envelope is the minimal wrapper every transport payload must carry: a
// discriminator separate from the body so dispatch happens before the
// body is parsed.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Decode turns an opaque transport payload into a typed Event. The same
// decoder serves live push messages and paginated history fetches.
// channelHint fills in the channel when the body omits it. Decode never
// panics on malformed input; failures come back as ErrUnknownKind or a
// *DecodeError.
func Decode(raw []byte, channelHint string) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: unparseable envelope: %v", ErrUnknownKind, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing discriminator", ErrUnknownKind)
	}
	k := Kind(env.Event)

	switch k {
	case KindChatMessageCreated, KindChatMessageUpdated:
		var m models.ChatMessage
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, &DecodeError{EventKind: k, Err: err}
		}
		if m.ID == "" {
			return nil, &DecodeError{EventKind: k, Err: errors.New("missing id")}
		}
		if m.RoomID == "" {
			m.RoomID = channelHint
		}
		if k == KindChatMessageCreated {
			return ChatMessageCreated{Message: m}, nil
		}
		return ChatMessageUpdated{Message: m}, nil

	case KindChatMessageDeleted:
		var body struct {
			ID     string `json:"id"`
			RoomID string `json:"room_id"`
		}
		if err := json.Unmarshal(env.Payload, &body); err != nil {
			return nil, &DecodeError{EventKind: k, Err: err}
		}
		if body.ID == "" {
			return nil, &DecodeError{EventKind: k, Err: errors.New("missing id")}
		}
		room := body.RoomID
		if room == "" {
			room = channelHint
		}
		return ChatMessageDeleted{Room: room, MessageID: body.ID}, nil

	case KindTextPredictionCreated, KindTextPredictionFollowUpCreated,
		KindImagePredictionCreated, KindTextPollCreated, KindImagePollCreated,
		KindTextQuizCreated, KindImageQuizCreated, KindAlertCreated,
		KindImageSliderCreated, KindCheerMeterCreated, KindSocialEmbedCreated:
		var w models.WidgetResource
		if err := json.Unmarshal(env.Payload, &w); err != nil {
			return nil, &DecodeError{EventKind: k, Err: err}
		}
		if w.ID == "" {
			return nil, &DecodeError{EventKind: k, Err: errors.New("missing id")}
		}
		if w.Channel == "" {
			w.Channel = channelHint
		}
		if w.Kind == "" {
			w.Kind = widgetKindFor(k)
		}
		return WidgetCreated{EventKind: k, Widget: w}, nil

	case KindQuizResults, KindPredictionResults:
		var body struct {
			WidgetID string                `json:"widget_id"`
			RoomID   string                `json:"room_id"`
			Options  []models.WidgetOption `json:"options"`
		}
		if err := json.Unmarshal(env.Payload, &body); err != nil {
			return nil, &DecodeError{EventKind: k, Err: err}
		}
		if body.WidgetID == "" {
			return nil, &DecodeError{EventKind: k, Err: errors.New("missing widget_id")}
		}
		room := body.RoomID
		if room == "" {
			room = channelHint
		}
		return Results{EventKind: k, WidgetID: body.WidgetID, Room: room, Options: body.Options}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Event)
}

// widgetKindFor maps a created-event discriminator to its widget kind.
func widgetKindFor(k Kind) models.WidgetKind {
	switch k {
	case KindTextPredictionCreated:
		return models.WidgetTextPrediction
	case KindTextPredictionFollowUpCreated:
		return models.WidgetTextPredictionFollowUp
	case KindImagePredictionCreated:
		return models.WidgetImagePrediction
	case KindTextPollCreated:
		return models.WidgetTextPoll
	case KindImagePollCreated:
		return models.WidgetImagePoll
	case KindTextQuizCreated:
		return models.WidgetTextQuiz
	case KindImageQuizCreated:
		return models.WidgetImageQuiz
	case KindAlertCreated:
		return models.WidgetAlert
	case KindImageSliderCreated:
		return models.WidgetImageSlider
	case KindCheerMeterCreated:
		return models.WidgetCheerMeter
	case KindSocialEmbedCreated:
		return models.WidgetSocialEmbed
	}
	return ""
}

// Encode wraps a typed payload into the transport envelope. Used by the
// local send path and by tests.
func Encode(kind Kind, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: string(kind), Payload: body})
}
