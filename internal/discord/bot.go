// Package discord connects the agent pipeline to Discord: it listens for
// mentions of the bot, rebuilds the channel history into model messages,
// runs the agent loop, and delivers the reply in 2000-character chunks.
package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mfigueredo/taskbutler/internal/agent"
	"github.com/mfigueredo/taskbutler/internal/conversation"
	"github.com/mfigueredo/taskbutler/internal/ledger"
	"github.com/mfigueredo/taskbutler/internal/provider/openrouter"
)

const genericErrorReply = "Something went wrong while talking to the language model. Please try again in a moment."

const (
	workingReaction = "⏳"
	failedReaction  = "❌"
)

// Session is the slice of the Discord API the bot uses. *discordgo.Session
// satisfies it.
type Session interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
}

// LoopRunner runs one agent task to completion.
type LoopRunner interface {
	Run(ctx context.Context, task agent.Task) (*agent.Result, error)
}

// Bot handles incoming Discord messages addressed to the bot user.
type Bot struct {
	session      Session
	botID        string
	assembler    *conversation.Assembler
	loop         LoopRunner
	ledger       *ledger.Store
	historyLimit int
	logger       *slog.Logger
}

// BotOption configures a Bot.
type BotOption func(*Bot)

// WithLogger sets the structured logger for the bot.
func WithLogger(l *slog.Logger) BotOption {
	return func(b *Bot) {
		b.logger = l
	}
}

// NewBot wires the pipeline together. historyLimit bounds how many prior
// messages are pulled into each context window.
func NewBot(session Session, botID string, assembler *conversation.Assembler, loop LoopRunner, store *ledger.Store, historyLimit int, opts ...BotOption) *Bot {
	b := &Bot{
		session:      session,
		botID:        botID,
		assembler:    assembler,
		loop:         loop,
		ledger:       store,
		historyLimit: historyLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandlerFunc adapts the bot to discordgo's event dispatch.
func (b *Bot) HandlerFunc() func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		b.Handle(context.Background(), m.Message)
	}
}

// Handle processes one incoming message: ignores anything not mentioning the
// bot, otherwise runs the full assemble-loop-deliver pipeline for it.
func (b *Bot) Handle(ctx context.Context, msg *discordgo.Message) {
	if msg.Author == nil || msg.Author.ID == b.botID {
		return
	}
	if !b.mentioned(msg) {
		return
	}

	log := b.logger.With("channel", msg.ChannelID, "message_id", msg.ID, "user", msg.Author.Username)
	log.Info("mention received")

	stop := keepTyping(ctx, b.session, msg.ChannelID, b.logger)
	defer stop()

	b.react(msg, workingReaction, log)
	defer b.unreact(msg, workingReaction, log)

	window := b.fetchWindow(msg, log)
	b.evictStale(window)

	messages := b.assembler.Assemble(ctx, window, "")

	result, err := b.loop.Run(ctx, agent.Task{Messages: messages})
	if err != nil {
		log.Error("agent loop failed", "err", err)
		b.react(msg, failedReaction, log)
		b.deliver(msg.ChannelID, userFacingError(err), log)
		return
	}

	sent := b.deliver(msg.ChannelID, result.Response, log)

	// Only replies that used tools earn a ledger entry; the assembler
	// splices them back in when this reply re-enters a window.
	if sent != nil && len(result.Calls) > 0 {
		b.recordLedger(sent, result)
	}
}

// fetchWindow pulls the history before msg and prepends msg itself (with the
// bot mention stripped), newest first as the assembler expects. A failed
// fetch degrades to a window containing only the triggering message.
func (b *Bot) fetchWindow(msg *discordgo.Message, log *slog.Logger) []*discordgo.Message {
	history, err := b.session.ChannelMessages(msg.ChannelID, b.historyLimit, msg.ID, "", "")
	if err != nil {
		log.Warn("history fetch failed, continuing without context", "err", err)
		history = nil
	}

	trigger := *msg
	trigger.Content = b.stripMention(msg.Content)
	return append([]*discordgo.Message{&trigger}, history...)
}

// evictStale drops ledger entries whose messages left the live window.
func (b *Bot) evictStale(window []*discordgo.Message) {
	liveKeys := make(map[ledger.Key]struct{}, len(window))
	liveIDs := make(map[string]struct{}, len(window))
	for _, m := range window {
		liveKeys[ledger.NewKey(m.ID, m.Timestamp)] = struct{}{}
		liveIDs[m.ID] = struct{}{}
	}
	b.ledger.Evict(liveKeys, liveIDs)
}

// deliver sends text in limit-sized chunks and returns the last message
// sent, or nil when nothing went out.
func (b *Bot) deliver(channelID, text string, log *slog.Logger) *discordgo.Message {
	var sent *discordgo.Message
	for _, chunk := range Split(text, MessageLimit) {
		m, err := b.session.ChannelMessageSend(channelID, chunk)
		if err != nil {
			log.Error("message send failed", "err", err)
			return sent
		}
		sent = m
	}
	return sent
}

// recordLedger stores the tool activity behind a delivered reply, keyed by
// the sent message so the assembler can find it again.
func (b *Bot) recordLedger(sent *discordgo.Message, result *agent.Result) {
	entry := ledger.Entry{
		MessageID: sent.ID,
		Content:   result.Response,
		CreatedAt: sent.Timestamp,
	}
	for _, call := range result.Calls {
		entry.Calls = append(entry.Calls, ledger.Call{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	for _, res := range result.Results {
		entry.Results = append(entry.Results, ledger.Result{
			ToolCallID: res.ToolCallID,
			Name:       res.Name,
			Content:    res.Content,
		})
	}
	b.ledger.Put(ledger.NewKey(sent.ID, sent.Timestamp), entry)
	b.logger.Debug("ledger entry stored", "message_id", sent.ID, "calls", len(entry.Calls))
}

// react and unreact give processing feedback on the triggering message.
// Both are best-effort: a failed reaction never interrupts the pipeline.
func (b *Bot) react(msg *discordgo.Message, emoji string, log *slog.Logger) {
	if err := b.session.MessageReactionAdd(msg.ChannelID, msg.ID, emoji); err != nil {
		log.Debug("reaction add failed", "emoji", emoji, "err", err)
	}
}

func (b *Bot) unreact(msg *discordgo.Message, emoji string, log *slog.Logger) {
	if err := b.session.MessageReactionRemove(msg.ChannelID, msg.ID, emoji, "@me"); err != nil {
		log.Debug("reaction remove failed", "emoji", emoji, "err", err)
	}
}

func (b *Bot) mentioned(msg *discordgo.Message) bool {
	for _, u := range msg.Mentions {
		if u.ID == b.botID {
			return true
		}
	}
	return false
}

// stripMention removes the bot's mention tokens from the message text.
func (b *Bot) stripMention(content string) string {
	content = strings.ReplaceAll(content, "<@"+b.botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+b.botID+">", "")
	return strings.TrimSpace(content)
}

// userFacingError maps a loop failure to the sentence shown in the channel.
// Classified provider errors carry their own wording; anything else gets the
// generic reply so upstream error bodies never reach the channel.
func userFacingError(err error) string {
	var classified *openrouter.ClassifiedError
	if errors.As(err, &classified) {
		return classified.UserMessage()
	}
	return genericErrorReply
}
