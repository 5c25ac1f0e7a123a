// Package hotkey provides a global key-combo listener using gohook. Each
// press of the combo emits one event; the host uses it to stop the mouse.
package hotkey

import (
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Event is emitted on the channel returned by Events for each press.
type Event struct {
	Keys []string
}

// Listener watches for one global key combo.
type Listener struct {
	keys []string
	ch   chan Event
	done chan struct{}
	once sync.Once
}

// NewListener creates a Listener for the given key combo. keys should be
// lowercase key names (e.g., ["ctrl", "shift", "q"]).
func NewListener(keys []string) *Listener {
	return &Listener{
		keys: normalize(keys),
		ch:   make(chan Event, 4),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives presses. The channel is closed
// when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the combo. It blocks until Stop is called, so
// run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.emit()
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// emit delivers a press without blocking the hook goroutine.
func (l *Listener) emit() {
	select {
	case l.ch <- Event{Keys: l.keys}:
	default: // a press is already pending
	}
}

// Stop terminates the listener. It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// String renders the combo as "ctrl+shift+q".
func (l *Listener) String() string {
	return strings.Join(l.keys, "+")
}

func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
