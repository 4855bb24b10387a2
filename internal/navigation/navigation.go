// Package navigation holds the route table and the Navigator capability views
// use to change the active route.
package navigation

import "sync"

const (
	HomePath      = "/"
	LoginPath     = "/auth/login"
	DashboardPath = "/dashboard"
)

// Navigator moves the client to another route
type Navigator interface {
	GoTo(path string)
}

// Func adapts a plain function to a Navigator
type Func func(path string)

func (f Func) GoTo(path string) {
	f(path)
}

// Recorder is a Navigator that remembers every requested path
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) GoTo(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Paths returns the requested paths in order
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// Last returns the most recent path, or "" when nothing was requested
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[len(r.paths)-1]
}
