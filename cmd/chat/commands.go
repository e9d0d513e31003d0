package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/CageChen/folderchat/internal/intent"
	"github.com/CageChen/folderchat/internal/transcript"
	"github.com/chzyer/readline"
)

type command struct {
	Name string
	Args string
	Help string
}

var commands = []command{
	{Name: "clear", Help: "Clear the conversation"},
	{Name: "files", Args: "[DIR]", Help: "List files on the file server"},
	{Name: "export", Args: "FILE", Help: "Save the conversation as an HTML page"},
	{Name: "help", Help: "Show this help"},
	{Name: "quit", Help: "Exit"},
}

func commandCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, cmd := range commands {
		items[i] = readline.PcItem("/" + cmd.Name)
	}
	return readline.NewPrefixCompleter(items...)
}

// parseCommand splits "/export chat.html" into ("export", "chat.html").
func parseCommand(line string) (string, string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	name, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

// handleCommand runs a slash command and reports whether the REPL should exit.
func (a *app) handleCommand(ctx context.Context, line string) bool {
	name, arg := parseCommand(line)
	switch name {
	case "quit", "exit", "q":
		return true
	case "clear":
		a.session.Clear()
		fmt.Fprintln(a.out, "Conversation cleared.")
	case "files":
		a.listFiles(ctx, arg)
	case "export":
		a.export(arg)
	case "help":
		for _, cmd := range commands {
			usage := "/" + cmd.Name
			if cmd.Args != "" {
				usage += " " + cmd.Args
			}
			fmt.Fprintf(a.out, "  %-16s %s\n", usage, cmd.Help)
		}
	default:
		fmt.Fprintf(a.out, "Unknown command /%s. Type /help for commands.\n", name)
	}
	return false
}

func (a *app) listFiles(ctx context.Context, dir string) {
	if a.files == nil {
		fmt.Fprintln(a.out, "File server is disabled (set --file-server).")
		return
	}
	list, err := a.files.ListFiles(ctx, dir)
	if err != nil {
		a.logger.Debug().Err(err).Msg("list files failed")
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(a.out, intent.FormatListing(list.Entries))
}

func (a *app) export(path string) {
	if path == "" {
		fmt.Fprintln(a.out, "Usage: /export FILE")
		return
	}
	t := transcript.Transcript{
		Model:    a.session.Model(),
		Created:  a.started,
		Messages: a.session.Messages(),
	}
	if err := a.renderer.WriteFile(path, t); err != nil {
		fmt.Fprintf(a.out, "Export failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Saved %d messages to %s\n", len(t.Messages), path)
}
