package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/mfigueredo/taskbutler/internal/agent"
	"github.com/mfigueredo/taskbutler/internal/config"
	"github.com/mfigueredo/taskbutler/internal/conversation"
	"github.com/mfigueredo/taskbutler/internal/discord"
	"github.com/mfigueredo/taskbutler/internal/ledger"
	"github.com/mfigueredo/taskbutler/internal/openproject"
	"github.com/mfigueredo/taskbutler/internal/pmagent"
	"github.com/mfigueredo/taskbutler/internal/provider/openrouter"
	"github.com/mfigueredo/taskbutler/internal/setup"
	"github.com/mfigueredo/taskbutler/internal/tools"
)

const systemPrompt = `You are TaskButler, a helpful Discord assistant. Answer concisely.
You can look up the current date and time, and you can delegate project
management tasks (projects, work packages, statuses) to the project agent
tool. Use tools when they help; answer directly when they don't.`

const imageCacheSize = 32

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		runSetup()
		return
	}

	debug := flag.Bool("debug", false, "enable debug logging")
	configDir := flag.String("config-dir", "", "config directory (default ~/.taskbutler)")
	flag.Parse()

	logger := newLogger(*debug)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configDir)
	if err != nil {
		logger.Error("config load failed", "err", err)
		fmt.Fprintln(os.Stderr, "No usable configuration. Run `taskbutler setup` first.")
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("bot exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	var providerOpts []openrouter.Option
	if cfg.OpenRouter.BaseURL != "" {
		providerOpts = append(providerOpts, openrouter.WithBaseURL(cfg.OpenRouter.BaseURL))
	}
	providerOpts = append(providerOpts, openrouter.WithLogger(logger))
	provider := openrouter.NewClient(cfg.OpenRouter.APIKey, providerOpts...)

	registry := tools.NewRegistry(logger)
	if err := registry.Register(tools.NewDateTimeTool()); err != nil {
		return err
	}
	if cfg.OpenProject.Enabled() {
		opClient := openproject.NewClient(cfg.OpenProject.BaseURL, cfg.OpenProject.APIKey,
			openproject.WithLogger(logger))
		projectAgent := pmagent.NewAgentTool(provider, opClient, cfg.OpenRouter.Model,
			cfg.Agent.NestedMaxTurns, pmagent.WithLogger(logger))
		if err := registry.Register(projectAgent); err != nil {
			return err
		}
		logger.Info("openproject integration enabled", "url", cfg.OpenProject.BaseURL)
	}

	loop := agent.NewLoop(provider, registry, agent.Config{
		Model:        cfg.OpenRouter.Model,
		MaxTurns:     cfg.Agent.MaxTurns,
		SystemPrompt: systemPrompt,
	}, agent.WithLogger(logger))

	store := ledger.New(logger)

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer session.Close()

	botID := session.State.User.ID
	images := conversation.NewImageCache(imageCacheSize, conversation.NewHTTPFetcher(), logger)
	assembler := conversation.NewAssembler(botID, store, images, conversation.WithLogger(logger))
	bot := discord.NewBot(session, botID, assembler, loop, store, cfg.Discord.HistoryLimit,
		discord.WithLogger(logger))

	session.AddHandler(bot.HandlerFunc())
	logger.Info("taskbutler running", "bot_id", botID, "model", cfg.OpenRouter.Model)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return session.Close()
	})
	return g.Wait()
}

func runSetup() {
	wizard := setup.NewWizard("", setup.NewTerminalPrompter())
	cfg, err := wizard.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration saved.")
	if !cfg.OpenProject.Enabled() {
		fmt.Println("OpenProject is not configured; the project agent tool stays disabled.")
	}
}

// newLogger picks text output on a terminal, JSON otherwise.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if isatty.IsTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
