package widget

import (
	"github.com/google/uuid"

	"engagekit/pkg/logger"
	"engagekit/pkg/metrics"
	"engagekit/pkg/models"
)

// Recorder emits one structured interaction record per widget dismissal
// to the interactions sink. Records are analytics-grade: a lost record
// is logged, never fatal.
type Recorder struct{}

// NewRecorder returns a Recorder writing to the package interactions
// sink.
func NewRecorder() *Recorder { return &Recorder{} }

// Record assigns the record its ID, counts it and writes it to the
// interactions sink. The completed record is returned so callers can
// hand it to their own hooks.
func (r *Recorder) Record(rec models.InteractionRecord) models.InteractionRecord {
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	metrics.WidgetsDismissed.WithLabelValues(string(rec.Reason)).Inc()
	if logger.Interactions != nil {
		logger.Interactions.Info("widget_interaction",
			"record_id", rec.RecordID,
			"widget_id", rec.WidgetID,
			"kind", string(rec.Kind),
			"reason", string(rec.Reason),
			"tap_count", rec.TapCount,
			"seconds_since_display", rec.SecondsSinceDisplay,
			"seconds_since_last_tap", rec.SecondsSinceLastTap,
		)
	}
	return rec
}
