// Package locker provides an HTTP middleware which allows a handler tree to
// be held off with 423 (Locked).  The board's bus has no mutual exclusion of
// its own, so while an initialization or programming sequence owns it the
// HTTP surface is locked out rather than interleaved.
package locker

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/synthlab/rfsynth/server"

	"goji.io/pat"
)

// Inject adds lock routes to an HTTPer so operators can hold a board
// manually.
func Inject(other server.HTTPer, l *Locker) {
	rt := other.RT()
	rt[pat.Get("/lock")] = l.HTTPGet
	rt[pat.Post("/lock")] = l.HTTPSet
}

// Locker guards a handler tree.  DoNotProtect lists path fragments the lock
// does not apply to.
type Locker struct {
	mu       sync.Mutex
	isLocked bool

	// DoNotProtect is a list of paths not to apply the lock to
	DoNotProtect []string
}

// New returns a new Locker with DoNotProtect prepopulated with "lock"
func New() *Locker {
	return &Locker{DoNotProtect: []string{"lock"}}
}

// Lock the locker
func (l *Locker) Lock() {
	l.mu.Lock()
	l.isLocked = true
	l.mu.Unlock()
}

// Unlock the locker
func (l *Locker) Unlock() {
	l.mu.Lock()
	l.isLocked = false
	l.mu.Unlock()
}

// Locked returns true if the locker is locked
func (l *Locker) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isLocked
}

// Check is a middleware that returns http.StatusLocked while the locker is
// held, otherwise passes down the line.
func (l *Locker) Check(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Locked() {
			protected := true
			url := r.URL.Path
			for _, str := range l.DoNotProtect {
				if strings.Contains(url, str) {
					protected = false
					break
				}
			}
			if protected {
				http.Error(w, "board is locked by a running sequence", http.StatusLocked)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// HTTPGet reports the lock state as JSON.
func (l *Locker) HTTPGet(w http.ResponseWriter, r *http.Request) {
	server.EncodeJSON(w, server.BoolT{Bool: l.Locked()})
}

// HTTPSet sets the lock state from a {"bool": ...} JSON body.
func (l *Locker) HTTPSet(w http.ResponseWriter, r *http.Request) {
	b := server.BoolT{}
	err := json.NewDecoder(r.Body).Decode(&b)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if b.Bool {
		l.Lock()
	} else {
		l.Unlock()
	}
	w.WriteHeader(http.StatusOK)
}
