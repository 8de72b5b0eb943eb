package cartoon

import (
	"sort"
	"sync"

	"github.com/example/flipbook/internal/screen"
	"github.com/example/flipbook/internal/timer"
)

// Registry maps host-surface identity to its player. Attachment is explicit
// create-or-get: one screen, one canonical owner of playback state.
type Registry struct {
	mu sync.RWMutex
	m  map[string]*Player
}

func NewRegistry() *Registry {
	return &Registry{m: map[string]*Player{}}
}

// Attach returns the player already bound to scr, or creates one from cfg.
// A second Attach to the same screen ignores cfg and hands back the
// existing player.
func (r *Registry) Attach(scr screen.Screen, cfg Config, sched timer.Scheduler) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.m[scr.ID()]; ok {
		return p, nil
	}
	p, err := NewPlayer(cfg, scr, sched)
	if err != nil {
		return nil, err
	}
	r.m[scr.ID()] = p
	return p, nil
}

func (r *Registry) Get(id string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.m[id]
	return p, ok
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Detach destroys the player bound to id and forgets it.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	p, ok := r.m[id]
	delete(r.m, id)
	r.mu.Unlock()
	if ok {
		p.Destroy()
	}
}
