package pipeline

import (
	"engagekit/pkg/logger"
	"engagekit/pkg/models"
)

// LogStage records delivery traffic at debug level and forwards
// everything unchanged. Useful near the head of a chain when diagnosing
// ordering issues.
type LogStage struct {
	Forwarder
}

// NewLogStage wraps next with debug logging.
func NewLogStage(next Stage) *LogStage {
	return &LogStage{Forwarder{Next: next}}
}

func (l *LogStage) PublishHistory(channel string, msgs []models.ChatMessage) {
	logger.Debug("pipeline_history", "channel", channel, "count", len(msgs))
	l.Forwarder.PublishHistory(channel, msgs)
}

func (l *LogStage) PublishNewest(channel string, msgs []models.ChatMessage) {
	logger.Debug("pipeline_newest", "channel", channel, "count", len(msgs))
	l.Forwarder.PublishNewest(channel, msgs)
}

func (l *LogStage) PublishNew(msg models.ChatMessage) {
	logger.Debug("pipeline_new", "channel", msg.RoomID, "msg", msg.ID)
	l.Forwarder.PublishNew(msg)
}

func (l *LogStage) PublishUpdate(msg models.ChatMessage) {
	logger.Debug("pipeline_update", "channel", msg.RoomID, "msg", msg.ID)
	l.Forwarder.PublishUpdate(msg)
}

func (l *LogStage) DeleteMessage(channel, messageID string) {
	logger.Debug("pipeline_delete", "channel", channel, "msg", messageID)
	l.Forwarder.DeleteMessage(channel, messageID)
}

func (l *LogStage) PublishError(channel string, err error) {
	logger.Debug("pipeline_error", "channel", channel, "error", err)
	l.Forwarder.PublishError(channel, err)
}
