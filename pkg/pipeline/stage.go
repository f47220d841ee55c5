// Package pipeline implements the chat delivery chain: an ordered set of
// stages between the decoder and the integrator callbacks. Each stage
// receives the full delivery surface and forwards to its downstream
// neighbor, transforming or holding traffic as it goes. The chain is
// assembled once at construction and never mutated afterwards, so stages
// need no synchronization among themselves; everything runs on the
// serial dispatch lane.
package pipeline

import "engagekit/pkg/models"

// Stage is one link in the delivery chain.
type Stage interface {
	// PublishHistory delivers a page of historical messages, oldest
	// first, loaded on demand by a subscriber.
	PublishHistory(channel string, msgs []models.ChatMessage)
	// PublishNewest delivers the most recent messages for a channel,
	// fetched at subscribe time.
	PublishNewest(channel string, msgs []models.ChatMessage)
	// PublishNew delivers one live message.
	PublishNew(msg models.ChatMessage)
	// PublishUpdate delivers an edit to an already-delivered message.
	PublishUpdate(msg models.ChatMessage)
	// DeleteMessage delivers a deletion by message ID.
	DeleteMessage(channel, messageID string)
	// PublishError surfaces a recoverable pipeline error.
	PublishError(channel string, err error)
}

// Forwarder is an embeddable pass-through Stage. Stages embed it and
// override only the methods they care about.
type Forwarder struct {
	Next Stage
}

func (f *Forwarder) PublishHistory(channel string, msgs []models.ChatMessage) {
	if f.Next != nil {
		f.Next.PublishHistory(channel, msgs)
	}
}

func (f *Forwarder) PublishNewest(channel string, msgs []models.ChatMessage) {
	if f.Next != nil {
		f.Next.PublishNewest(channel, msgs)
	}
}

func (f *Forwarder) PublishNew(msg models.ChatMessage) {
	if f.Next != nil {
		f.Next.PublishNew(msg)
	}
}

func (f *Forwarder) PublishUpdate(msg models.ChatMessage) {
	if f.Next != nil {
		f.Next.PublishUpdate(msg)
	}
}

func (f *Forwarder) DeleteMessage(channel, messageID string) {
	if f.Next != nil {
		f.Next.DeleteMessage(channel, messageID)
	}
}

func (f *Forwarder) PublishError(channel string, err error) {
	if f.Next != nil {
		f.Next.PublishError(channel, err)
	}
}
