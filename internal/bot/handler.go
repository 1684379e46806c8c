package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oulookup/oubot/internal/catalog"
	"github.com/oulookup/oubot/internal/config"
	"github.com/oulookup/oubot/internal/ctxutil"
	domerrors "github.com/oulookup/oubot/internal/errors"
	"github.com/oulookup/oubot/internal/logger"
	"github.com/oulookup/oubot/internal/metrics"
	"github.com/oulookup/oubot/internal/modcode"
	"github.com/oulookup/oubot/internal/replycache"
	"github.com/oulookup/oubot/internal/sentry"
)

// Handler processes chat events: it extracts codes, resolves them against the
// catalog layers, formats a reply and reconciles it with any prior reply to
// the same message. Handlers never return errors to the gateway; failures are
// logged and captured.
type Handler struct {
	cfg       config.BotConfig
	resolver  *catalog.Resolver
	liveness  *catalog.LivenessChecker
	messenger Messenger
	replies   *replycache.Cache
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewHandler creates a chat event handler.
func NewHandler(
	cfg config.BotConfig,
	resolver *catalog.Resolver,
	liveness *catalog.LivenessChecker,
	messenger Messenger,
	replies *replycache.Cache,
	m *metrics.Metrics,
	log *logger.Logger,
) *Handler {
	return &Handler{
		cfg:       cfg,
		resolver:  resolver,
		liveness:  liveness,
		messenger: messenger,
		replies:   replies,
		metrics:   m,
		logger:    log.WithModule("bot"),
	}
}

// HandleMessageCreate processes a newly posted message.
func (h *Handler) HandleMessageCreate(ctx context.Context, msg Message) {
	h.handle(ctx, msg, "message_create")
}

// HandleMessageUpdate processes an edit to an existing message. The same
// extraction and resolution run again; the reply cache decides whether the
// outcome edits a prior reply or creates a new one.
func (h *Handler) HandleMessageUpdate(ctx context.Context, msg Message) {
	h.handle(ctx, msg, "message_update")
}

func (h *Handler) handle(ctx context.Context, msg Message, eventType string) {
	start := time.Now()
	ctx = ctxutil.WithMessageID(ctx, msg.ID)
	ctx = ctxutil.WithChannelID(ctx, msg.ChannelID)
	log := h.logger.WithField("message_id", msg.ID).WithField("event", eventType)

	codes, mustReply := h.extract(msg.Content)
	if len(codes) == 0 {
		h.metrics.RecordEvent(eventType, "silent", time.Since(start).Seconds())
		return
	}

	// Codes are resolved one at a time, in order.
	lookups := make([]Lookup, 0, len(codes))
	anyFound := false
	for _, code := range codes {
		lookup := h.lookup(ctx, code, log)
		anyFound = anyFound || lookup.Found
		lookups = append(lookups, lookup)
	}

	// Only resolved codes are reported. Unresolved ones are dropped, not
	// rendered as "not found"; the sole exception is a lone lookup-command
	// token, which earns an explicit "not found" answer. Anti-spam: with
	// nothing resolved and no such token, stay silent.
	if anyFound {
		resolved := make([]Lookup, 0, len(lookups))
		for _, lookup := range lookups {
			if lookup.Found {
				resolved = append(resolved, lookup)
			}
		}
		lookups = resolved
	} else if !mustReply {
		h.metrics.RecordEvent(eventType, "silent", time.Since(start).Seconds())
		return
	}

	content, embeds := FormatReply(lookups, h.cfg.ReplySuffix)
	if err := h.reconcile(ctx, msg, content, embeds); err != nil {
		log.WithError(err).Error("Failed to deliver reply")
		sentry.CaptureExceptionWithContext(ctx, err)
		h.metrics.RecordEvent(eventType, "error", time.Since(start).Seconds())
		return
	}

	h.metrics.RecordEvent(eventType, "replied", time.Since(start).Seconds())
}

// extract routes a message through command or inline extraction. mustReply is
// true when a reply is owed even if nothing resolves: a lookup command with
// exactly one token always gets an answer, even a malformed one.
func (h *Handler) extract(content string) (codes []string, mustReply bool) {
	fields := strings.Fields(content)
	if len(fields) > 0 && fields[0] == "!"+h.cfg.CommandName {
		codes, rawTokens := modcode.FromCommand(content, h.cfg.MaxCodesPerMessage)
		if len(codes) == 0 && rawTokens == 1 {
			codes = []string{modcode.Normalize(fields[1])}
		}
		return codes, rawTokens == 1
	}
	return modcode.FromInline(content, h.cfg.MaxCodesPerMessage), false
}

// lookup resolves one code and settles its link. Resolution failures other
// than a plain miss are captured and degrade to "not found".
func (h *Handler) lookup(ctx context.Context, code string, log *logger.Logger) Lookup {
	result, err := h.resolver.Resolve(ctx, code)
	if err != nil {
		if !errors.Is(err, domerrors.ErrNotFound) {
			log.WithError(err).WithField("code", code).Error("Resolution failed")
			sentry.CaptureExceptionWithContext(ctx, err)
		}
		return Lookup{Code: code}
	}

	return Lookup{
		Code:  result.Code,
		Title: result.Title,
		Link:  h.liveness.ResolveLink(ctx, result),
		Found: true,
	}
}

// reconcile delivers the reply: messages already answered get their existing
// reply edited in place, everything else gets a fresh reply that is recorded
// for future edits.
func (h *Handler) reconcile(ctx context.Context, msg Message, content string, embeds []Embed) error {
	if prior, ok := h.replies.Get(msg.ID); ok {
		if err := h.messenger.Edit(ctx, prior.ChannelID, prior.ReplyID, content, embeds); err != nil {
			h.metrics.RecordReply("error")
			return err
		}
		h.metrics.RecordReply("edit")
		return nil
	}

	replyID, err := h.messenger.Reply(ctx, msg.ChannelID, msg.ID, content, embeds)
	if err != nil {
		h.metrics.RecordReply("error")
		return err
	}
	h.replies.Put(msg.ID, replycache.Record{ChannelID: msg.ChannelID, ReplyID: replyID})
	h.metrics.RecordReply("create")
	return nil
}
