// Package main is the interactive chat client. Messages that ask about files
// are answered with context fetched from the folder file server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/CageChen/folderchat/internal/chat"
	"github.com/CageChen/folderchat/internal/config"
	"github.com/CageChen/folderchat/internal/fileclient"
	"github.com/CageChen/folderchat/internal/logging"
	"github.com/CageChen/folderchat/internal/protocol"
	"github.com/CageChen/folderchat/internal/transcript"
	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadChat(args)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := os.MkdirAll(config.GetConfigDir(), 0o755); err != nil {
		logger.Debug().Err(err).Msg("cannot create config directory")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "❯ ",
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    commandCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	a := newApp(cfg, chat.NewSession(cfg), logger, rl.Stdout())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Fprintln(a.out, "Local LLM Chat")
	fmt.Fprintf(a.out, "Connected to: %s\n", cfg.APIURL)
	fmt.Fprintf(a.out, "Model in use: %s\n", cfg.Model)
	if a.files != nil {
		fmt.Fprintf(a.out, "File server:  %s\n", a.files.BaseURL())
		go a.watchChanges(ctx)
	}
	fmt.Fprintln(a.out, `Ask to list files or read a file (e.g. "list files", "read file notes.txt"). Type /help for commands.`)
	fmt.Fprintln(a.out)

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if a.handleCommand(ctx, line) {
				return nil
			}
			continue
		}

		a.converse(ctx, line)
	}
}

// app holds everything the REPL loop needs.
type app struct {
	cfg      *config.ChatConfig
	session  *chat.Session
	files    *fileclient.Client
	renderer *transcript.Renderer
	logger   zerolog.Logger
	out      io.Writer
	started  time.Time
}

func newApp(cfg *config.ChatConfig, session *chat.Session, logger zerolog.Logger, out io.Writer) *app {
	a := &app{
		cfg:      cfg,
		session:  session,
		renderer: transcript.NewRenderer(),
		logger:   logger,
		out:      out,
		started:  time.Now(),
	}
	if cfg.FileServer != "" {
		a.files = fileclient.New(cfg.FileServer, fileclient.WithLogger(logger))
	}
	return a
}

// watchChanges prints change notices from the file server. The subscription
// is retried with a fixed delay while the server is down.
func (a *app) watchChanges(ctx context.Context) {
	for {
		err := a.files.Watch(ctx, func(e protocol.ChangeEvent) {
			fmt.Fprintf(a.out, "[file %s] %s\n", e.Payload.Event, e.Payload.Path)
		})
		if ctx.Err() != nil {
			return
		}
		a.logger.Debug().Err(err).Msg("change notifications unavailable")

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}
