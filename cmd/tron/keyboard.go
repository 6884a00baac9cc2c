package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/awesomecuber/tron/internal/game"
)

// keyHold is how long a decoded key counts as held. Terminals deliver
// taps and autorepeat rather than key-up events, so a held key shows up
// as a byte roughly once per repeat interval.
const keyHold = 250 * time.Millisecond

// keyQuit never reaches the bindings; q and ctrl-c cancel the run.
// Raw mode disables the terminal's own interrupt handling, so ctrl-c
// arrives here as a plain byte.
const keyQuit = game.Key("Quit")

// keyboard decodes the raw stdin byte stream into momentary key state.
type keyboard struct {
	quit context.CancelFunc

	mu       sync.Mutex
	lastSeen map[game.Key]time.Time
}

func newKeyboard(quit context.CancelFunc) *keyboard {
	return &keyboard{
		quit:     quit,
		lastSeen: make(map[game.Key]time.Time),
	}
}

// start switches stdin to raw mode and begins decoding. The returned
// function restores the terminal.
func (k *keyboard) start() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	go k.readLoop()
	return func() { term.Restore(fd, old) }, nil
}

func (k *keyboard) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		for _, key := range decodeKeys(buf[:n]) {
			if key == keyQuit {
				k.quit()
				return
			}
			k.press(key)
		}
	}
}

func (k *keyboard) press(key game.Key) {
	k.mu.Lock()
	k.lastSeen[key] = time.Now()
	k.mu.Unlock()
}

// Pressed implements game.KeyState.
func (k *keyboard) Pressed(key game.Key) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return time.Since(k.lastSeen[key]) <= keyHold
}

// decodeKeys maps the bytes of one read to bound keys. Arrow keys
// arrive as CSI sequences; a sequence split across reads is dropped and
// the next autorepeat delivers it whole.
func decodeKeys(data []byte) []game.Key {
	var keys []game.Key
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case 0x03, 'q', 'Q':
			keys = append(keys, keyQuit)
		case 'a', 'A':
			keys = append(keys, game.KeyA)
		case 'd', 'D':
			keys = append(keys, game.KeyD)
		case ' ':
			keys = append(keys, game.KeySpace)
		case '\r', '\n':
			keys = append(keys, game.KeyEnter)
		case 0x1b:
			if i+2 < len(data) && data[i+1] == '[' {
				switch data[i+2] {
				case 'D':
					keys = append(keys, game.KeyArrowLeft)
				case 'C':
					keys = append(keys, game.KeyArrowRight)
				}
				i += 2
			}
		}
	}
	return keys
}
