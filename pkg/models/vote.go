package models

// Vote is a durable record of the option a user chose for one widget.
// At most one vote per widget ID is retained; a later write for the same
// ID overwrites the earlier one.
type Vote struct {
	WidgetID string `json:"widget_id"`
	OptionID string `json:"option_id"`
	ClaimURL string `json:"claim_url,omitempty"`
	// CreatedAt is a unix timestamp in seconds, used for expiry sweeps.
	CreatedAt int64 `json:"created_at"`
}
