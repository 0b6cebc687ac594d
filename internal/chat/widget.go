package chat

import "sync"

type Visibility int

const (
	Closed Visibility = iota
	Open
)

func (v Visibility) String() string {
	if v == Open {
		return "open"
	}
	return "closed"
}

// Widget is one user's chat panel. Toggling never reloads the thread.
type Widget struct {
	mu    sync.Mutex
	state Visibility
}

func NewWidget() *Widget {
	return &Widget{state: Closed}
}

func (w *Widget) Toggle() Visibility {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Open {
		w.state = Closed
	} else {
		w.state = Open
	}
	return w.state
}

func (w *Widget) Close() Visibility {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Closed
	return w.state
}

func (w *Widget) State() Visibility {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}
