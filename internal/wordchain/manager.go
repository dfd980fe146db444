/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package wordchain runs word chain rooms: membership, turn order, turn
// timers, word legality and scoring.
//
// A Manager owns every room. Rooms are created on first join and dropped once
// their last participant leaves. Each room has its own mutex, and every
// action or timer firing for that room runs with it held, so actions on one
// room are applied one at a time and rooms never wait on each other. Lock
// order is always room, then manager.
package wordchain

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeLimit     = 12 * time.Second
	DefaultGrace         = 80 * time.Millisecond
	DefaultMaxPlayers    = 4
	DefaultLookupTimeout = 5 * time.Second

	MaxNameLength = 16
)

// Validator decides whether a word is in the dictionary.
type Validator interface {
	IsValid(ctx context.Context, word string) bool
}

type Config struct {
	TimeLimit     time.Duration
	Grace         time.Duration
	MaxPlayers    int
	LookupTimeout time.Duration
	Clock         Clock
	Logger        zerolog.Logger
}

type Manager struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	closed bool

	validator Validator
	cfg       Config
	clock     Clock
	log       zerolog.Logger
}

func NewManager(validator Validator, cfg Config) *Manager {
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = DefaultTimeLimit
	}
	if cfg.Grace < 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.MaxPlayers < 2 || cfg.MaxPlayers > DefaultMaxPlayers {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock{}
	}

	return &Manager{
		rooms:     make(map[string]*Room),
		validator: validator,
		cfg:       cfg,
		clock:     cfg.Clock,
		log:       cfg.Logger,
	}
}

// JoinResult is returned to a participant that joined (or rejoined) a room.
type JoinResult struct {
	RoomCode  string
	Players   int
	AlreadyIn bool
}

// Join seats participant id in the room named code, creating the room if
// needed. Events for the participant are delivered to sink.
func (m *Manager) Join(code, id, nickname string, sink Sink) (JoinResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return JoinResult{}, ReasonEmptyRoomCode
	}

	r := m.acquire(code)
	defer r.mu.Unlock()

	if p := r.participantLocked(id); p != nil {
		if sink != nil {
			p.sink = sink
		}
		r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))

		return JoinResult{RoomCode: code, Players: len(r.participants), AlreadyIn: true}, nil
	}

	if len(r.participants) >= m.cfg.MaxPlayers {
		return JoinResult{}, ReasonRoomFull
	}

	p := &Participant{
		ID:   id,
		Name: displayName(nickname, id),
		sink: sink,
	}

	r.participants = append(r.participants, p)
	r.turnOrder = append(r.turnOrder, id)
	if r.ownerID == "" {
		r.ownerID = id
	}

	m.log.Info().Str("room", code).Str("player", id).Int("players", len(r.participants)).Msg("player joined")

	r.broadcastLocked(systemEvent(fmt.Sprintf("%s joined (%d/%d)", p.Name, len(r.participants), m.cfg.MaxPlayers)))
	r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))

	return JoinResult{RoomCode: code, Players: len(r.participants)}, nil
}

// Leave removes participant id from the room named code.
func (m *Manager) Leave(code, id string) error {
	r, err := m.lookup(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !m.removeLocked(r, id) {
		return ReasonNotInRoom
	}

	return nil
}

// Disconnect removes participant id from every listed room it belongs to.
func (m *Manager) Disconnect(id string, codes []string) {
	for _, code := range codes {
		_ = m.Leave(code, id)
	}
}

// Snapshot returns the current state of the room named code.
func (m *Manager) Snapshot(code string) (StateEvent, bool) {
	r, err := m.lookup(code)
	if err != nil {
		return StateEvent{}, false
	}
	defer r.mu.Unlock()

	return r.snapshotLocked(m.cfg.TimeLimit), true
}

// Len returns the number of live rooms.
func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.rooms)
}

// Close stops every pending turn timer and keeps new ones from being armed.
// Rooms stay readable.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.mu.Lock()
		r.stopTimerLocked()
		r.mu.Unlock()
	}
}

// acquire returns the live room for code, creating it if needed, with its
// lock held.
func (m *Manager) acquire(code string) *Room {
	for {
		m.mu.Lock()
		r, ok := m.rooms[code]
		if !ok {
			r = newRoom(code)
			m.rooms[code] = r
			m.log.Info().Str("room", code).Msg("room created")
		}
		m.mu.Unlock()

		r.mu.Lock()
		if !r.closed {
			return r
		}
		r.mu.Unlock()
	}
}

// lookup returns the live room for code with its lock held.
func (m *Manager) lookup(code string) (*Room, error) {
	code = strings.TrimSpace(code)

	for {
		m.mu.Lock()
		r, ok := m.rooms[code]
		m.mu.Unlock()

		if !ok {
			return nil, ReasonRoomNotFound
		}

		r.mu.Lock()
		if !r.closed {
			return r, nil
		}
		r.mu.Unlock()
	}
}

// dropIfEmptyLocked destroys r once nobody is left in it.
func (m *Manager) dropIfEmptyLocked(r *Room) bool {
	if len(r.participants) > 0 {
		return false
	}

	r.closed = true
	r.stopTimerLocked()

	m.mu.Lock()
	if m.rooms[r.code] == r {
		delete(m.rooms, r.code)
	}
	m.mu.Unlock()

	m.log.Info().Str("room", r.code).Msg("room destroyed")

	return true
}

func displayName(nickname, id string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, nickname)
	name = strings.TrimSpace(name)

	if runes := []rune(name); len(runes) > MaxNameLength {
		name = strings.TrimSpace(string(runes[:MaxNameLength]))
	}

	if name == "" {
		short := id
		if len(short) > 4 {
			short = short[:4]
		}
		name = "Player-" + short
	}

	return name
}
