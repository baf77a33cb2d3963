// Package conversation turns a window of raw Discord messages into the
// normalized message sequence the chat-completion endpoint expects,
// re-injecting recorded tool calls at the position of the bot reply that
// produced them.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/mfigueredo/taskbutler/internal/ledger"
	"github.com/mfigueredo/taskbutler/internal/provider/openrouter"
)

const (
	replySummaryLimit = 120
	timestampLayout   = "2006-01-02 15:04 MST"
)

// imageMIMEByExt maps recognized attachment extensions to their MIME type.
var imageMIMEByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Assembler builds model-ready conversation history from raw Discord
// messages. It owns no state beyond its collaborators; one instance serves
// every channel.
type Assembler struct {
	botID  string
	ledger *ledger.Store
	images *ImageCache
	logger *slog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithLogger sets the structured logger for the assembler.
func WithLogger(l *slog.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = l
	}
}

// NewAssembler creates an assembler. botID identifies which messages in the
// window were authored by the bot itself.
func NewAssembler(botID string, store *ledger.Store, images *ImageCache, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		botID:  botID,
		ledger: store,
		images: images,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble converts a newest-first raw window plus the triggering query into
// an ordered message sequence. Bot messages become assistant turns (with any
// recorded tool calls spliced in front), everything else becomes a user turn
// with typed content segments. The query is appended last as a user message;
// an empty query is omitted.
func (a *Assembler) Assemble(ctx context.Context, raw []*discordgo.Message, currentQuery string) []openrouter.Message {
	out := make([]openrouter.Message, 0, len(raw)+1)

	// The fetch arrives newest-first; history must read oldest-first.
	for i := len(raw) - 1; i >= 0; i-- {
		msg := raw[i]
		if msg.Author != nil && msg.Author.ID == a.botID {
			out = append(out, a.assistantMessages(msg)...)
			continue
		}
		out = append(out, a.userMessage(ctx, msg))
	}

	if query := strings.TrimSpace(currentQuery); query != "" {
		out = append(out, openrouter.Message{Role: "user", Content: query})
	}
	return out
}

// assistantMessages renders one bot-authored message. Empty bot messages
// vanish entirely. When the ledger has recorded tool use for this message,
// the tool-request turn and its results are spliced in before the text so
// the model sees the exact request, result, reply ordering it produced.
func (a *Assembler) assistantMessages(msg *discordgo.Message) []openrouter.Message {
	text := a.collapseAssistantText(msg)
	if text == "" {
		return nil
	}

	textMsg := openrouter.Message{Role: "assistant", Content: text}

	entry, ok := a.ledger.GetByMessageID(msg.ID)
	if !ok || !entry.HasCalls() {
		return []openrouter.Message{textMsg}
	}

	a.logger.Debug("splicing recorded tool calls", "message_id", msg.ID, "calls", len(entry.Calls))

	toolCalls := make([]openrouter.ToolCall, 0, len(entry.Calls))
	for _, call := range entry.Calls {
		toolCalls = append(toolCalls, openrouter.ToolCall{
			ID:       call.ID,
			Type:     "function",
			Function: openrouter.FunctionCall{Name: call.Name, Arguments: call.Arguments},
		})
	}

	spliced := make([]openrouter.Message, 0, len(entry.Results)+2)
	spliced = append(spliced, openrouter.Message{Role: "assistant", ToolCalls: toolCalls})
	for _, res := range entry.Results {
		spliced = append(spliced, openrouter.Message{
			Role:       "tool",
			Content:    res.Content,
			ToolCallID: res.ToolCallID,
		})
	}
	return append(spliced, textMsg)
}

// collapseAssistantText reduces a bot message to plain text. Assistant turns
// are text-only on the wire, so non-text content degrades to bracketed
// placeholders. Returns "" for a message with nothing to say.
func (a *Assembler) collapseAssistantText(msg *discordgo.Message) string {
	var parts []string
	if msg.Content != "" {
		parts = append(parts, msg.Content)
	}
	for _, att := range msg.Attachments {
		parts = append(parts, fmt.Sprintf("[attachment: %s]", att.Filename))
	}
	for _, embed := range msg.Embeds {
		parts = append(parts, "[embed: "+embedSummary(embed)+"]")
	}
	for _, sticker := range msg.StickerItems {
		parts = append(parts, fmt.Sprintf("[sticker: %s]", sticker.Name))
	}
	return strings.Join(parts, "\n")
}

// userMessage renders one human-authored message as an ordered segment
// sequence. Even a content-free message keeps its speaker label and
// timestamp, so user turns are never empty.
func (a *Assembler) userMessage(ctx context.Context, msg *discordgo.Message) openrouter.Message {
	var parts []openrouter.ContentPart

	author := "unknown"
	if msg.Author != nil && msg.Author.Username != "" {
		author = msg.Author.Username
	}
	parts = append(parts, openrouter.TextPart(fmt.Sprintf("[%s]", author)))

	if ref := msg.ReferencedMessage; ref != nil {
		parts = append(parts, openrouter.TextPart(replySummary(ref)))
	}

	if msg.Content != "" {
		parts = append(parts, openrouter.TextPart(msg.Content))
	}

	for _, att := range msg.Attachments {
		parts = append(parts, a.attachmentPart(ctx, att))
	}
	for _, embed := range msg.Embeds {
		parts = append(parts, openrouter.TextPart("[embed: "+embedSummary(embed)+"]"))
	}
	for _, sticker := range msg.StickerItems {
		parts = append(parts, openrouter.TextPart(fmt.Sprintf("[sticker: %s]", sticker.Name)))
	}
	if msg.Poll != nil {
		parts = append(parts, openrouter.TextPart(pollSummary(msg.Poll)))
	}
	if len(msg.Reactions) > 0 {
		parts = append(parts, openrouter.TextPart(reactionSummary(msg.Reactions)))
	}

	parts = append(parts, openrouter.TextPart("(sent "+msg.Timestamp.UTC().Format(timestampLayout)+")"))

	return openrouter.Message{Role: "user", Parts: parts}
}

// attachmentPart renders one attachment. Images become native image
// segments; audio and everything else degrade to descriptive text. A failed
// image download falls back to a text reference instead of aborting
// assembly.
func (a *Assembler) attachmentPart(ctx context.Context, att *discordgo.MessageAttachment) openrouter.ContentPart {
	if mime, ok := imageMIME(att); ok {
		dataURL, err := a.images.DataURL(ctx, att.URL, mime)
		if err != nil {
			a.logger.Warn("attachment download failed", "url", att.URL, "err", err)
			return openrouter.TextPart(fmt.Sprintf("[image unavailable: %s]", att.URL))
		}
		return openrouter.ImagePart(dataURL)
	}

	if strings.HasPrefix(att.ContentType, "audio/") {
		return openrouter.TextPart(fmt.Sprintf("[audio attachment: %s (transcription not available)]", att.Filename))
	}

	return openrouter.TextPart(fmt.Sprintf("[file: %s, %d bytes, %s]", att.Filename, att.Size, att.ContentType))
}

// imageMIME decides whether an attachment is an image and with what MIME
// type: known extensions first, declared image/* content-type as fallback.
func imageMIME(att *discordgo.MessageAttachment) (string, bool) {
	ext := strings.ToLower(path.Ext(att.Filename))
	if ext == "" {
		ext = strings.ToLower(path.Ext(att.URL))
	}
	if mime, ok := imageMIMEByExt[ext]; ok {
		return mime, true
	}
	if strings.HasPrefix(att.ContentType, "image/") {
		return att.ContentType, true
	}
	return "", false
}

func replySummary(ref *discordgo.Message) string {
	author := "unknown"
	if ref.Author != nil && ref.Author.Username != "" {
		author = ref.Author.Username
	}
	text := strings.TrimSpace(ref.Content)
	if len(text) > replySummaryLimit {
		cut := replySummaryLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "…"
	}
	if text == "" {
		text = "(no text)"
	}
	return fmt.Sprintf("(replying to %s: %s)", author, text)
}

func embedSummary(embed *discordgo.MessageEmbed) string {
	var parts []string
	if embed.Title != "" {
		parts = append(parts, embed.Title)
	}
	if embed.Description != "" {
		parts = append(parts, embed.Description)
	}
	if embed.URL != "" {
		parts = append(parts, embed.URL)
	}
	if len(parts) == 0 {
		return "untitled"
	}
	return strings.Join(parts, " — ")
}

func pollSummary(poll *discordgo.Poll) string {
	answers := make([]string, 0, len(poll.Answers))
	for _, ans := range poll.Answers {
		if ans.Media != nil {
			answers = append(answers, ans.Media.Text)
		}
	}
	return fmt.Sprintf("[poll: %s — options: %s]", poll.Question.Text, strings.Join(answers, ", "))
}

func reactionSummary(reactions []*discordgo.MessageReactions) string {
	parts := make([]string, 0, len(reactions))
	for _, r := range reactions {
		if r.Emoji == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s x%d", r.Emoji.Name, r.Count))
	}
	return "[reactions: " + strings.Join(parts, ", ") + "]"
}
