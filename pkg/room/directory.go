package room

import (
	"errors"
	"sync"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"liaptui/pkg/engine"
	"liaptui/pkg/game"
)

// ErrRoomNotFound is returned by Lookup for an unknown id.
var ErrRoomNotFound = errors.New("room: not found")

// Directory is the explicit room registry spec §9's design note calls for
// ("the room directory is an explicit create/lookup/close API, not a
// package-level global"), grounded on the teacher's Server.tables map
// (pkg/server/server.go) minus the persistence layer (spec §6: no
// persisted state required by the core).
type Directory struct {
	log slog.Logger
	cfg engine.Config

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewDirectory(cfg engine.Config, log slog.Logger) *Directory {
	return &Directory{cfg: cfg, log: log, rooms: make(map[string]*Room)}
}

// Create starts a new room for four already-assigned seats and registers it
// under a fresh id.
func (d *Directory) Create(players [game.SeatCount]*game.Player, hostSeat int) *Room {
	id := uuid.NewString()
	r := New(id, players, hostSeat, d.cfg, d.log)
	r.setOnClose(d.close)

	d.mu.Lock()
	d.rooms[id] = r
	d.mu.Unlock()

	r.Start()
	return r
}

// Lookup returns the room registered under id.
func (d *Directory) Lookup(id string) (*Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// Close stops and deregisters a room explicitly (e.g. an operator-initiated
// shutdown, as opposed to the automatic close triggered by AfterLeave).
func (d *Directory) Close(id string) error {
	d.mu.Lock()
	r, ok := d.rooms[id]
	delete(d.rooms, id)
	d.mu.Unlock()
	if !ok {
		return ErrRoomNotFound
	}
	r.Stop()
	return nil
}

func (d *Directory) close(id string) {
	d.mu.Lock()
	r, ok := d.rooms[id]
	delete(d.rooms, id)
	d.mu.Unlock()
	if ok {
		r.Stop()
	}
}

// Count reports how many rooms are currently registered.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
