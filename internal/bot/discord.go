package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/oulookup/oubot/internal/logger"
)

// DiscordMessenger implements Messenger on a Discord session.
type DiscordMessenger struct {
	session *discordgo.Session
}

// NewDiscordMessenger wraps a Discord session.
func NewDiscordMessenger(session *discordgo.Session) *DiscordMessenger {
	return &DiscordMessenger{session: session}
}

// Reply implements Messenger.
func (d *DiscordMessenger) Reply(ctx context.Context, channelID, messageID, content string, embeds []Embed) (string, error) {
	sent, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  toDiscordEmbeds(embeds),
		Reference: &discordgo.MessageReference{
			MessageID: messageID,
			ChannelID: channelID,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send reply: %w", err)
	}
	return sent.ID, nil
}

// Edit implements Messenger. Embeds are always replaced, so an edit that
// drops from several codes to one also clears the old embed.
func (d *DiscordMessenger) Edit(ctx context.Context, channelID, replyID, content string, embeds []Embed) error {
	discordEmbeds := toDiscordEmbeds(embeds)
	edit := discordgo.NewMessageEdit(channelID, replyID)
	edit.Content = &content
	edit.Embeds = &discordEmbeds

	if _, err := d.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit reply: %w", err)
	}
	return nil
}

func toDiscordEmbeds(embeds []Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, embed := range embeds {
		fields := make([]*discordgo.MessageEmbedField, 0, len(embed.Fields))
		for _, field := range embed.Fields {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   field.Name,
				Value:  field.Value,
				Inline: field.Inline,
			})
		}
		out = append(out, &discordgo.MessageEmbed{Fields: fields})
	}
	return out
}

// Gateway owns the Discord gateway connection and dispatches message events
// to the handler.
type Gateway struct {
	session *discordgo.Session
	handler *Handler
	logger  *logger.Logger
}

// NewGateway registers the handler's callbacks on a session. The session
// needs the guild-messages and message-content intents.
func NewGateway(session *discordgo.Session, handler *Handler, log *logger.Logger) *Gateway {
	g := &Gateway{
		session: session,
		handler: handler,
		logger:  log.WithModule("gateway"),
	}

	session.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	session.AddHandler(g.onMessageCreate)
	session.AddHandler(g.onMessageUpdate)
	session.AddHandler(g.onReady)

	return g
}

// Open connects to the gateway.
func (g *Gateway) Open() error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}

// Connected reports whether the session has completed its READY handshake.
func (g *Gateway) Connected() bool {
	return g.session.State != nil && g.session.State.User != nil
}

func (g *Gateway) onReady(_ *discordgo.Session, event *discordgo.Ready) {
	g.logger.WithField("username", event.User.Username).Info("Gateway connected")
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, event *discordgo.MessageCreate) {
	if g.isOwnMessage(s, event.Author) {
		return
	}
	g.handler.HandleMessageCreate(context.Background(), Message{
		ID:        event.ID,
		ChannelID: event.ChannelID,
		Content:   event.Content,
	})
}

func (g *Gateway) onMessageUpdate(s *discordgo.Session, event *discordgo.MessageUpdate) {
	// Embed-unfurl updates arrive with no author; skip those too.
	if event.Author == nil || g.isOwnMessage(s, event.Author) {
		return
	}
	g.handler.HandleMessageUpdate(context.Background(), Message{
		ID:        event.ID,
		ChannelID: event.ChannelID,
		Content:   event.Content,
	})
}

func (g *Gateway) isOwnMessage(s *discordgo.Session, author *discordgo.User) bool {
	return author != nil && s.State != nil && s.State.User != nil && author.ID == s.State.User.ID
}
