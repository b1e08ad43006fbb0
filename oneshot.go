package main

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// runOneShot streams a single prompt to stdout through the scrollback
// terminal: completed turns land in the static region while the dynamic
// region animates the thinking placeholder.
func runOneShot(ctx *TuiContext, prompt string) error {
	term := NewScrollbackTerminal(os.Stdout)
	term.Initialize()
	defer term.Shutdown()

	renderer := NewTurnRenderer(ctx.Theme)

	// recordTurn appends and writes a turn, surfacing any save-failure
	// info turn the same way.
	recordTurn := func(turn ConversationTurn, markdown bool) {
		fail := ctx.History.Append(turn)
		term.WriteStatic(renderer.Render(turn, markdown))
		if fail != nil {
			term.WriteStatic(renderer.Render(*fail, false))
		}
	}

	parser := NewStreamingParser(func(turn ConversationTurn) {
		recordTurn(turn, ctx.Config.UI.Markdown)
	})

	previous := ctx.History.Turns()
	prior := make([]ConversationTurn, len(previous))
	copy(prior, previous)

	recordTurn(NewUserTurn(prompt), false)

	reqCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	stream := ctx.Service.StreamChat(reqCtx, prior, prompt)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case frag, ok := <-stream.Fragments():
			if !ok {
				parser.Finish()
				term.SetDynamic("")
				if err := stream.Err(); err != nil {
					return err
				}
				if reqCtx.Err() != nil {
					recordTurn(NewInfoTurn(cancelledInfoText, InfoLevelInfo), false)
				}
				return nil
			}
			parser.Feed(frag)
		case now := <-ticker.C:
			term.SetDynamic(ctx.Theme.Spinner.Render(animationFrame(now)))
		}
	}
}
