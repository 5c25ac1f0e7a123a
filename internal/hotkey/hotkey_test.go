package hotkey

import "testing"

func TestNewListenerNormalizesKeys(t *testing.T) {
	l := NewListener([]string{" Ctrl", "SHIFT", "", "q "})
	if got := l.String(); got != "ctrl+shift+q" {
		t.Errorf("String() = %q, want %q", got, "ctrl+shift+q")
	}
}

func TestEmitDoesNotBlock(t *testing.T) {
	l := NewListener([]string{"ctrl", "q"})
	for i := 0; i < 10; i++ {
		l.emit()
	}
	if n := len(l.Events()); n != cap(l.ch) {
		t.Errorf("pending events = %d, want %d", n, cap(l.ch))
	}
	ev := <-l.Events()
	if len(ev.Keys) != 2 {
		t.Errorf("event keys = %v, want [ctrl q]", ev.Keys)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := NewListener([]string{"ctrl", "q"})
	l.Stop()
	l.Stop()
	select {
	case <-l.done:
	default:
		t.Error("done should be closed after Stop")
	}
}
