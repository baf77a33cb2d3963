// Package setup implements the `taskbutler setup` wizard for first-time
// configuration.
package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mfigueredo/taskbutler/internal/config"
)

// Prompter abstracts interactive user input for testability.
type Prompter interface {
	// Prompt asks a question and returns the trimmed answer.
	Prompt(question string) (string, error)
	// Secret asks for a value that must not be echoed to the terminal.
	Secret(question string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(question string) (bool, error)
}

// TerminalPrompter reads answers from an interactive terminal, hiding
// secrets from the echo.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter creates a prompter over stdin/stdout.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (p *TerminalPrompter) Prompt(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *TerminalPrompter) Secret(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (p *TerminalPrompter) Confirm(question string) (bool, error) {
	answer, err := p.Prompt(question + " [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// Wizard collects the bot's configuration interactively and writes it to the
// config directory.
type Wizard struct {
	configDir string // "" means the default location
	prompter  Prompter
}

// NewWizard creates a setup wizard. configDir overrides the default
// ~/.taskbutler location (useful for testing).
func NewWizard(configDir string, prompter Prompter) *Wizard {
	return &Wizard{configDir: configDir, prompter: prompter}
}

// Run walks through every setting and saves the resulting config. An
// existing config is only overwritten after explicit confirmation.
func (w *Wizard) Run() (*config.Config, error) {
	if config.Exists(w.configDir) {
		overwrite, err := w.prompter.Confirm("A configuration already exists. Overwrite it?")
		if err != nil {
			return nil, err
		}
		if !overwrite {
			return nil, fmt.Errorf("setup cancelled: configuration already exists")
		}
	}

	var cfg config.Config

	token, err := w.prompter.Secret("Discord bot token")
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("a Discord bot token is required")
	}
	cfg.Discord.Token = token

	apiKey, err := w.prompter.Secret("OpenRouter API key")
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("an OpenRouter API key is required")
	}
	cfg.OpenRouter.APIKey = apiKey

	model, err := w.prompter.Prompt("Model (empty for the default)")
	if err != nil {
		return nil, err
	}
	cfg.OpenRouter.Model = model

	useOP, err := w.prompter.Confirm("Connect an OpenProject instance?")
	if err != nil {
		return nil, err
	}
	if useOP {
		baseURL, err := w.prompter.Prompt("OpenProject URL (e.g. https://op.example.com)")
		if err != nil {
			return nil, err
		}
		opKey, err := w.prompter.Secret("OpenProject API key")
		if err != nil {
			return nil, err
		}
		cfg.OpenProject.BaseURL = strings.TrimRight(baseURL, "/")
		cfg.OpenProject.APIKey = opKey
	}

	if err := config.Save(w.configDir, &cfg); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	return &cfg, nil
}
