package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/awesomecuber/tron/logging"
)

// JSON appends one JSON object per line, using the event's own field tags.
// Writes are buffered; a background ticker flushes them so tailing the file
// during a session stays useful. With no flush interval every write flushes.
type JSON struct {
	mu    sync.Mutex
	buf   *bufio.Writer
	enc   *json.Encoder
	eager bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewJSON writes newline-delimited events to w.
func NewJSON(w io.Writer, flushInterval time.Duration) *JSON {
	if w == nil {
		w = io.Discard
	}
	buf := bufio.NewWriter(w)
	s := &JSON{
		buf:  buf,
		enc:  json.NewEncoder(buf),
		stop: make(chan struct{}),
	}
	if flushInterval > 0 {
		go s.flushLoop(flushInterval)
	} else {
		s.eager = true
	}
	return s
}

func (s *JSON) Write(event logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(event); err != nil {
		return err
	}
	if s.eager {
		return s.buf.Flush()
	}
	return nil
}

// Close stops the flush loop and drains the buffer.
func (s *JSON) Close(context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Flush()
}

func (s *JSON) flushLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.buf.Flush()
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}
