package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/translate"
)

// listenerState tracks the state of an SSE listener.
type listenerState int

const (
	listenerPending   listenerState = iota // Dispatch has not returned yet; events are queued
	listenerStreaming                      // Headers sent, events written as they arrive
	listenerCompleted                      // Terminal event and [DONE] written
	listenerClosed                         // Rejected, client gone, or handler returned
)

// sseListener implements translate.Listener by writing each notification as
// an SSE event:
//
//	event: {type}\n
//	data: {json}\n
//	\n
//
// After the terminal event it also sends:
//
//	data: [DONE]\n
//	\n
//
// Notifications arriving before start are queued, so that a request the
// dispatcher rejects synchronously can still be answered with a plain JSON
// error and a 4xx status.
type sseListener struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu      sync.Mutex
	state   listenerState
	pending []api.Event

	once sync.Once
	done chan struct{}
}

var _ translate.Listener = (*sseListener)(nil)

func newSSEListener(w http.ResponseWriter) *sseListener {
	return &sseListener{
		w:    w,
		rc:   http.NewResponseController(w),
		done: make(chan struct{}),
	}
}

func (l *sseListener) OnToken(delta string) {
	l.emit(api.Event{Type: api.EventToken, Delta: delta})
}

func (l *sseListener) OnComplete(resp api.TranslationResponse) {
	l.emit(api.Event{Type: api.EventComplete, Response: &resp})
}

func (l *sseListener) OnError(message string) {
	l.emit(api.Event{Type: api.EventError, Error: message})
}

// Done is closed once the terminal event has been written or the stream
// can no longer be written to.
func (l *sseListener) Done() <-chan struct{} {
	return l.done
}

func (l *sseListener) emit(ev api.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case listenerPending:
		l.pending = append(l.pending, ev)
	case listenerStreaming:
		l.write(ev)
	}
}

// start sends the SSE headers and any queued events. From here on events
// are written as they arrive.
func (l *sseListener) start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != listenerPending {
		return fmt.Errorf("sse listener already started")
	}

	h := l.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	l.w.WriteHeader(http.StatusOK)
	if err := l.rc.Flush(); err != nil {
		l.closeLocked()
		return fmt.Errorf("failed to flush headers: %w", err)
	}

	l.state = listenerStreaming
	queued := l.pending
	l.pending = nil
	for _, ev := range queued {
		if l.state != listenerStreaming {
			break
		}
		l.write(ev)
	}
	return nil
}

// discard drops queued events and ignores any later ones.
func (l *sseListener) discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = nil
	l.closeLocked()
}

// close stops all further writes. The session may still be running; its
// remaining notifications are dropped.
func (l *sseListener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != listenerCompleted {
		l.closeLocked()
	}
}

func (l *sseListener) closeLocked() {
	l.state = listenerClosed
	l.once.Do(func() { close(l.done) })
}

// write emits one event. Callers hold l.mu and have checked the state.
func (l *sseListener) write(ev api.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		debug.Log("transport", "marshal event failed", "type", ev.Type, "error", err)
		l.closeLocked()
		return
	}

	if _, err := fmt.Fprintf(l.w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		debug.Log("transport", "client write failed", "error", err)
		l.closeLocked()
		return
	}
	if err := l.rc.Flush(); err != nil {
		l.closeLocked()
		return
	}

	if ev.IsTerminal() {
		if _, err := fmt.Fprint(l.w, "data: [DONE]\n\n"); err == nil {
			l.rc.Flush()
		}
		l.state = listenerCompleted
		l.once.Do(func() { close(l.done) })
	}
}
