package engine

import (
	"sort"
	"sync"

	"github.com/decred/slog"

	"liaptui/pkg/game"
)

// Subscriber receives dispatched events. Kinds returning nil/empty means
// "every kind". Lower Priority values run first (spec §4.4: "invokes
// subscribers in priority order").
type Subscriber interface {
	Kinds() map[game.EventKind]struct{}
	Priority() int
	Handle(ev game.Event)
}

// Dispatcher is the in-process synchronous pub-sub from spec §4.4. It is a
// deliberate simplification of the teacher's EventProcessor: the teacher
// fans events out across an async worker pool (pkg/server/events.go,
// pkg/server/collectors.go); spec §2 requires "immediate synchronous
// dispatch" instead, so Dispatch runs every subscriber inline, in the
// calling (room) goroutine, before returning (see DESIGN.md).
type Dispatcher struct {
	log slog.Logger

	mu   sync.Mutex
	subs []Subscriber
}

// NewDispatcher builds a dispatcher that logs subscriber failures with log.
func NewDispatcher(log slog.Logger) *Dispatcher {
	return &Dispatcher{log: log}
}

// Subscribe registers s, keeping the subscriber list sorted by priority.
func (d *Dispatcher) Subscribe(s Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, s)
	sort.SliceStable(d.subs, func(i, j int) bool {
		return d.subs[i].Priority() < d.subs[j].Priority()
	})
}

// Dispatch delivers ev to every interested subscriber in priority order. A
// subscriber that panics is retried once, then skipped and logged (spec
// §4.9: "Subscriber exception: isolated; the room continues; one automatic
// retry permitted per event").
func (d *Dispatcher) Dispatch(ev game.Event) {
	d.mu.Lock()
	subs := append([]Subscriber(nil), d.subs...)
	d.mu.Unlock()

	for _, s := range subs {
		if !wantsKind(s, ev.Kind) {
			continue
		}
		if d.safeHandle(s, ev) {
			continue
		}
		d.log.Warnf("subscriber panicked on %s, retrying once", ev.Kind)
		if !d.safeHandle(s, ev) {
			d.log.Errorf("subscriber panicked twice on %s, skipping", ev.Kind)
		}
	}
}

func wantsKind(s Subscriber, kind game.EventKind) bool {
	kinds := s.Kinds()
	if len(kinds) == 0 {
		return true
	}
	_, ok := kinds[kind]
	return ok
}

func (d *Dispatcher) safeHandle(s Subscriber, ev game.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	s.Handle(ev)
	return true
}
