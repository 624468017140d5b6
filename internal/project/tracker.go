package project

import (
	"path/filepath"
	"sync"
)

// Tracker records the frontend's current path and which project (if any)
// contains it. It stands in for the kernel spec manager path switch: the
// launcher asks for the active kernel dir whenever the user navigates.
type Tracker struct {
	mu      sync.RWMutex
	store   *Store
	path    string
	project string
}

// NewTracker creates a tracker backed by the given store.
func NewTracker(store *Store) *Tracker {
	return &Tracker{store: store}
}

// Set records path as the current location and reports whether it is inside
// a project.
func (t *Tracker) Set(path string) bool {
	dir, ok := t.store.Resolve(path)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.path = path
	if ok {
		t.project = dir
	} else {
		t.project = ""
	}
	return ok
}

// Current returns the last recorded path and the project directory
// containing it ("" when outside any project).
func (t *Tracker) Current() (path, project string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.path, t.project
}

// KernelDir returns the kernel spec directory for the active project, or ""
// when the current path is outside any project.
func (t *Tracker) KernelDir() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.project == "" {
		return ""
	}
	return filepath.Join(t.project, KernelDir)
}
