package inject

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chaz8081/squaremouse/internal/hid"
)

// recordingMover replaces robotgo so tests never move the real pointer.
type recordingMover struct {
	mu    sync.Mutex
	moves [][2]int
}

func (r *recordingMover) move(dx, dy int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, [2]int{dx, dy})
}

func newTestMouse() (*DesktopMouse, *recordingMover) {
	rec := &recordingMover{}
	d := NewDesktopMouse()
	d.move = rec.move
	return d, rec
}

func TestDesktopMouseAdvertiseConnects(t *testing.T) {
	d, _ := newTestMouse()
	states := make(chan hid.ConnectionState, 2)
	d.SetStateChangeHandler(func(s hid.ConnectionState) { states <- s })

	if err := d.StartAdvertising(); !errors.Is(err, hid.ErrAdvertiserNotReady) {
		t.Fatalf("StartAdvertising() before Start error = %v, want ErrAdvertiserNotReady", err)
	}

	if err := d.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.StartAdvertising(); err != nil {
		t.Fatalf("StartAdvertising() error = %v", err)
	}

	select {
	case s := <-states:
		if s != hid.Connected {
			t.Errorf("state = %v, want connected", s)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}

	// Already connected: no second notification.
	if err := d.StartAdvertising(); err != nil {
		t.Fatalf("StartAdvertising() error = %v", err)
	}
	select {
	case s := <-states:
		t.Errorf("unexpected state change %v", s)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDesktopMouseSubmitMotion(t *testing.T) {
	d, rec := newTestMouse()

	err := d.SubmitMotion(5, 0)
	if !hid.IsTransportError(err) || !errors.Is(err, hid.ErrNotConnected) {
		t.Fatalf("SubmitMotion() disconnected error = %v, want ErrNotConnected", err)
	}

	_ = d.Start()
	_ = d.StartAdvertising()
	if err := d.SubmitMotion(5, -5); err != nil {
		t.Fatalf("SubmitMotion() error = %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.moves) != 1 || rec.moves[0] != [2]int{5, -5} {
		t.Errorf("moves = %v, want [[5 -5]]", rec.moves)
	}
}

func TestDesktopMouseDisconnect(t *testing.T) {
	d, _ := newTestMouse()
	var got []hid.ConnectionState
	d.SetStateChangeHandler(func(s hid.ConnectionState) {
		if s == hid.Disconnected {
			got = append(got, s)
		}
	})
	_ = d.Start()
	_ = d.StartAdvertising()

	d.Disconnect()
	d.Disconnect()
	if len(got) != 1 {
		t.Errorf("disconnect notifications = %d, want 1", len(got))
	}
	if d.State() != hid.Disconnected {
		t.Errorf("State() = %v, want disconnected", d.State())
	}
}

func TestDesktopMouseStop(t *testing.T) {
	d, _ := newTestMouse()
	_ = d.Start()
	_ = d.StartAdvertising()

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if d.State() != hid.Disconnected {
		t.Errorf("State() = %v, want disconnected", d.State())
	}
	if err := d.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
