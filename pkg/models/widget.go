package models

// WidgetKind enumerates the interactive widget types the SDK can present.
type WidgetKind string

const (
	WidgetTextPrediction         WidgetKind = "text-prediction"
	WidgetTextPredictionFollowUp WidgetKind = "text-prediction-follow-up"
	WidgetImagePrediction        WidgetKind = "image-prediction"
	WidgetTextPoll               WidgetKind = "text-poll"
	WidgetImagePoll              WidgetKind = "image-poll"
	WidgetTextQuiz               WidgetKind = "text-quiz"
	WidgetImageQuiz              WidgetKind = "image-quiz"
	WidgetAlert                  WidgetKind = "alert"
	WidgetImageSlider            WidgetKind = "image-slider"
	WidgetCheerMeter             WidgetKind = "cheer-meter"
	WidgetSocialEmbed            WidgetKind = "social-embed"
)

// WidgetState is the shared 4-state lifecycle every widget kind moves
// through. Finished is terminal.
type WidgetState string

const (
	StateReady       WidgetState = "ready"
	StateInteracting WidgetState = "interacting"
	StateResults     WidgetState = "results"
	StateFinished    WidgetState = "finished"
)

// WidgetOption is one votable option of a poll/quiz/prediction.
type WidgetOption struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	VoteURL     string `json:"vote_url,omitempty"`
	VoteCount   int64  `json:"vote_count,omitempty"`
	IsCorrect   bool   `json:"is_correct,omitempty"`
}

// WidgetResource is the decoded payload of a widget-created event.
type WidgetResource struct {
	ID       string         `json:"id"`
	Kind     WidgetKind     `json:"kind"`
	Channel  string         `json:"channel"`
	Question string         `json:"question,omitempty"`
	Options  []WidgetOption `json:"options,omitempty"`
	// ScheduledTS is a position on the external playback timeline in
	// milliseconds. Zero means eligible immediately.
	ScheduledTS int64 `json:"scheduled_ts,omitempty"`
	// InteractionWindowSec is how long the widget accepts interaction
	// once presented.
	InteractionWindowSec float64 `json:"interaction_window_sec,omitempty"`
	// FollowUpOf references the earlier prediction this widget reveals
	// results for. Empty for first-phase widgets.
	FollowUpOf string `json:"follow_up_of,omitempty"`
	// RewardsURL is the per-widget claim endpoint, recorded into the
	// rewards index at creation time.
	RewardsURL string `json:"rewards_url,omitempty"`
}

// DismissReason describes why a widget left the screen.
type DismissReason string

const (
	DismissTap      DismissReason = "tap"
	DismissTimeout  DismissReason = "timeout"
	DismissSwipe    DismissReason = "swipe"
	DismissComplete DismissReason = "complete"
)

// InteractionRecord is the structured event emitted on every widget
// dismissal, user-triggered or automatic.
type InteractionRecord struct {
	RecordID            string        `json:"record_id"`
	WidgetID            string        `json:"widget_id"`
	Kind                WidgetKind    `json:"kind"`
	Reason              DismissReason `json:"reason"`
	TapCount            int           `json:"tap_count"`
	SecondsSinceDisplay float64       `json:"seconds_since_display"`
	SecondsSinceLastTap float64       `json:"seconds_since_last_tap,omitempty"`
}
