// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	messageIDKey contextKey = "ctxutil.messageID"
	channelIDKey contextKey = "ctxutil.channelID"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithMessageID adds the triggering chat message ID to the context.
// It identifies the message across create and edit events and keys the
// reply-reconciliation cache.
func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, messageIDKey, messageID)
}

// GetMessageID retrieves the message ID from the context.
// Returns the message ID if found, empty string otherwise.
func GetMessageID(ctx context.Context) string {
	if v := ctx.Value(messageIDKey); v != nil {
		if messageID, ok := v.(string); ok && messageID != "" {
			return messageID
		}
	}
	return ""
}

// WithChannelID adds the chat channel ID to the context.
func WithChannelID(ctx context.Context, channelID string) context.Context {
	return context.WithValue(ctx, channelIDKey, channelID)
}

// GetChannelID retrieves the channel ID from the context.
// Returns the channel ID if found, empty string otherwise.
func GetChannelID(ctx context.Context) string {
	if v := ctx.Value(channelIDKey); v != nil {
		if channelID, ok := v.(string); ok && channelID != "" {
			return channelID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is typically generated per inbound HTTP request or chat event
// for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}
