package wordchain

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testLimit = 12 * time.Second
	testGrace = 80 * time.Millisecond
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	done    bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)

	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.stopped = true

	return true
}

// Advance moves time forward and runs every timer that came due, in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)

	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}

	return n
}

type fakeDict struct {
	words map[string]bool
	calls atomic.Int64
	gate  chan struct{}
}

func newFakeDict(words ...string) *fakeDict {
	d := &fakeDict{words: make(map[string]bool)}
	for _, w := range words {
		d.words[w] = true
	}

	return d
}

func (d *fakeDict) IsValid(ctx context.Context, word string) bool {
	d.calls.Add(1)

	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return false
		}
	}

	return d.words[word]
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Send(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event{}, r.events...)
}

func (r *recorder) types() []string {
	var out []string
	for _, ev := range r.all() {
		out = append(out, ev.EventType())
	}

	return out
}

func (r *recorder) last(typ string) Event {
	events := r.all()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].EventType() == typ {
			return events[i]
		}
	}

	return nil
}

func (r *recorder) count(typ string) int {
	n := 0
	for _, ev := range r.all() {
		if ev.EventType() == typ {
			n++
		}
	}

	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}

type harness struct {
	m     *Manager
	clock *fakeClock
	dict  *fakeDict
	sinks map[string]*recorder
}

var testWords = []string{"가방", "방울", "방가", "울타리", "종로", "노래", "로봇", "리본", "이불", "나무"}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := newFakeClock()
	dict := newFakeDict(testWords...)

	return &harness{
		m: NewManager(dict, Config{
			TimeLimit: testLimit,
			Grace:     testGrace,
			Clock:     clock,
		}),
		clock: clock,
		dict:  dict,
		sinks: make(map[string]*recorder),
	}
}

func (h *harness) join(t *testing.T, code, id string) *recorder {
	t.Helper()

	rec := &recorder{}
	h.sinks[id] = rec

	_, err := h.m.Join(code, id, "", rec)
	require.NoError(t, err)

	return rec
}

// started returns a harness with players p1 and p2 in room ABCD and a round
// running, p1 to play.
func started(t *testing.T, extra ...string) *harness {
	t.Helper()

	h := newHarness(t)
	h.join(t, "ABCD", "p1")
	h.join(t, "ABCD", "p2")
	for _, id := range extra {
		h.join(t, "ABCD", id)
	}
	require.NoError(t, h.m.StartRound("ABCD"))

	return h
}

func (h *harness) snapshot(t *testing.T) StateEvent {
	t.Helper()

	s, ok := h.m.Snapshot("ABCD")
	require.True(t, ok)

	return s
}

func (h *harness) play(id, word string) error {
	return h.m.Play(context.Background(), "ABCD", id, word)
}

func (h *harness) room(t *testing.T, code string) *Room {
	t.Helper()

	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	r, ok := h.m.rooms[code]
	require.True(t, ok)

	return r
}
