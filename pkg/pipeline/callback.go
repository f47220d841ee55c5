package pipeline

import (
	"engagekit/pkg/logger"
	"engagekit/pkg/models"
)

// Callbacks is the terminal stage handing delivery over to integrator
// code. Any nil callback is skipped; a nil OnError logs and drops the
// error instead of losing it silently. Callbacks are invoked on the
// serial dispatch lane and must return promptly.
type Callbacks struct {
	OnHistoryMessages func(channel string, msgs []models.ChatMessage)
	OnNewestMessages  func(channel string, msgs []models.ChatMessage)
	OnNewMessage      func(msg models.ChatMessage)
	OnMessageUpdated  func(msg models.ChatMessage)
	OnMessageDeleted  func(channel, messageID string)
	OnError           func(channel string, err error)
}

func (c *Callbacks) PublishHistory(channel string, msgs []models.ChatMessage) {
	if c.OnHistoryMessages != nil {
		c.OnHistoryMessages(channel, msgs)
	}
}

func (c *Callbacks) PublishNewest(channel string, msgs []models.ChatMessage) {
	if c.OnNewestMessages != nil {
		c.OnNewestMessages(channel, msgs)
	}
}

func (c *Callbacks) PublishNew(msg models.ChatMessage) {
	if c.OnNewMessage != nil {
		c.OnNewMessage(msg)
	}
}

func (c *Callbacks) PublishUpdate(msg models.ChatMessage) {
	if c.OnMessageUpdated != nil {
		c.OnMessageUpdated(msg)
	}
}

func (c *Callbacks) DeleteMessage(channel, messageID string) {
	if c.OnMessageDeleted != nil {
		c.OnMessageDeleted(channel, messageID)
	}
}

func (c *Callbacks) PublishError(channel string, err error) {
	if c.OnError != nil {
		c.OnError(channel, err)
		return
	}
	logger.Warn("pipeline_error_dropped", "channel", channel, "error", err)
}
