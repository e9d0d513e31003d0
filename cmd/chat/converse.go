package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/CageChen/folderchat/internal/chat"
	"github.com/CageChen/folderchat/internal/intent"
)

// converse sends one user message and prints the streamed reply. Ctrl+C
// abandons the reply.
func (a *app) converse(ctx context.Context, line string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fileContext := ""
	if a.files != nil {
		res, err := intent.ContextFor(ctx, a.files, line)
		if err != nil {
			a.logger.Warn().Err(err).Str("op", res.Intent.Op.String()).Msg("file context unavailable")
		}
		if res.Notice != "" {
			fmt.Fprintln(a.out, res.Notice)
		}
		if res.Context != "" {
			a.logger.Debug().Str("op", res.Intent.Op.String()).Str("path", res.Intent.Path).
				Int("context_bytes", len(res.Context)).Msg("attached file context")
		}
		fileContext = res.Context
	}

	events := make(chan chat.StreamEvent, 10)
	go a.session.Stream(ctx, line, fileContext, events)

	start := time.Now()
	var reply strings.Builder
	fmt.Fprint(a.out, "⟫ ")
	for event := range events {
		switch event.Type {
		case chat.StreamEventContent:
			fmt.Fprint(a.out, event.Content)
			reply.WriteString(event.Content)
		case chat.StreamEventError:
			if ctx.Err() != nil {
				fmt.Fprintln(a.out, "\n(interrupted)")
				continue
			}
			a.logger.Error().Err(event.Err).Msg("streaming error")
			fmt.Fprintf(a.out, "\n%s\n\nError: %v\n", chat.Guidance(event.Err, a.session.Model()), event.Err)
		}
	}
	fmt.Fprint(a.out, "\n\n")

	a.logger.Info().
		Int("reply_bytes", reply.Len()).
		Dur("duration", time.Since(start)).
		Msg("response received")
}
