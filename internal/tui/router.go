package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// NavigateMsg asks the app to show the view at Path
type NavigateMsg struct {
	Path string
}

// guardChangedMsg makes the program re-render after a guard transition
type guardChangedMsg struct{}

// Router is the Navigator of the terminal UI. It queues messages and
// forwards them to the program in order from its own goroutine, so GoTo never
// blocks, not even when called from inside Update.
type Router struct {
	mu    sync.Mutex
	queue []tea.Msg
	wake  chan struct{}
}

func NewRouter() *Router {
	return &Router{wake: make(chan struct{}, 1)}
}

func (r *Router) GoTo(path string) {
	r.post(NavigateMsg{Path: path})
}

func (r *Router) guardChanged() {
	r.post(guardChangedMsg{})
}

func (r *Router) post(msg tea.Msg) {
	r.mu.Lock()
	r.queue = append(r.queue, msg)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Router) drain() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.queue
	r.queue = nil
	return msgs
}

// Run forwards queued messages to send until ctx is done
func (r *Router) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		}
		for _, msg := range r.drain() {
			send(msg)
		}
	}
}
