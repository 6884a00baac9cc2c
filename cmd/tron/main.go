package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awesomecuber/tron/internal/app"
	"github.com/awesomecuber/tron/internal/game"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	keys := newKeyboard(cancel)
	restore, err := keys.start()
	if err != nil {
		log.Printf("keyboard unavailable, playing idle: %v", err)
	} else {
		defer restore()
	}

	bindings := game.DefaultBindings()
	status := &statusLine{}

	return app.Run(ctx, app.RunConfig{
		Input: app.InputSourceFunc(func() game.Input {
			return bindings.Encode(keys)
		}),
		Hooks: app.Hooks{AfterFrame: status.update},
	})
}

// statusLine prints a one-line frame status once a second and the round
// outcome when it arrives. Raw mode needs explicit carriage returns.
type statusLine struct {
	lastPrint time.Time
	done      bool
}

func (s *statusLine) update(report app.Report) {
	if report.RoundOver {
		if s.done {
			return
		}
		s.done = true
		if report.Winner < 0 {
			fmt.Printf("\r\nround over at frame %d: draw\r\n", report.Frame)
		} else {
			fmt.Printf("\r\nround over at frame %d: player %d wins\r\n", report.Frame, report.Winner)
		}
		return
	}
	if time.Since(s.lastPrint) < time.Second {
		return
	}
	s.lastPrint = time.Now()
	p0 := report.World.Players[0]
	p1 := report.World.Players[1]
	fmt.Printf("\rframe %6d  p0 (%+5.2f, %+5.2f)  p1 (%+5.2f, %+5.2f)  trails %3d  rollbacks %d ",
		report.Frame, p0.Pos.X(), p0.Pos.Y(), p1.Pos.X(), p1.Pos.Y(), len(report.World.Trails), report.Stats.Rollbacks)
}
