// Package bot contains the chat-event handling core: code extraction, catalog
// resolution, reply formatting and edit reconciliation, behind a
// transport-agnostic Messenger interface.
package bot

import "context"

// Message is an inbound chat message, stripped to what the handler needs.
type Message struct {
	ID        string
	ChannelID string
	Content   string
}

// EmbedField is one code's entry in a multi-code reply.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is the structured part of a reply.
type Embed struct {
	Fields []EmbedField
}

// Messenger sends and edits bot replies. The gateway connection itself is
// owned by the caller; the handler only ever replies and edits.
type Messenger interface {
	// Reply sends a new reply to the given message and returns its ID.
	Reply(ctx context.Context, channelID, messageID, content string, embeds []Embed) (string, error)

	// Edit replaces the content and embeds of an earlier reply.
	Edit(ctx context.Context, channelID, replyID, content string, embeds []Embed) error
}
