package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/dasdy/xkbstate/cmd/xkbstate"
	"github.com/dasdy/xkbstate/logging"
	"gitlab.com/greyxor/slogor"
)

func main() {
	// Wrap a fresh handler instead of slog.Default().Handler(): wrapping the
	// default handler inside itself deadlocks on slog's internal mutex.
	slog.SetDefault(slog.New(logging.ContextHandler{
		Handler: slogor.NewHandler(os.Stderr,
			slogor.SetLevel(slog.LevelDebug),
			slogor.SetTimeFormat(time.DateTime),
			slogor.ShowSource()),
	}))

	xkbstate.Execute()
}
