package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// typingInterval refreshes the indicator before Discord's ~10s expiry.
const typingInterval = 8 * time.Second

// typingSender is the slice of the session the keepalive needs.
type typingSender interface {
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// keepTyping shows the typing indicator in a channel until the returned stop
// function is called. Callers must stop it in a defer so the indicator never
// outlives the work, whatever the outcome.
func keepTyping(ctx context.Context, s typingSender, channelID string, logger *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	send := func() {
		if err := s.ChannelTyping(channelID); err != nil {
			logger.Debug("typing indicator failed", "channel", channelID, "err", err)
		}
	}
	send()

	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				send()
			}
		}
	}()

	return cancel
}
