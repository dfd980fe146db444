package wordchain

import "time"

// armLocked starts the countdown for the current turn holder, replacing any
// countdown already running.
func (m *Manager) armLocked(r *Room) {
	r.stopTimerLocked()

	if m.isClosed() {
		r.deadline = time.Time{}
		return
	}

	gen := r.timerGen
	turn := r.turnHolderLocked()

	r.deadline = m.clock.Now().Add(m.cfg.TimeLimit)
	r.broadcastLocked(timerEvent(r.deadline, turn, m.cfg.TimeLimit))

	r.timer = m.clock.AfterFunc(m.cfg.TimeLimit+m.cfg.Grace, func() {
		m.expire(r, gen)
	})
}

// disarmLocked cancels the countdown and tells the room it stopped.
func (m *Manager) disarmLocked(r *Room) {
	r.stopTimerLocked()
	r.deadline = time.Time{}
	r.broadcastLocked(TimerStopEvent{Type: "timer_stop"})
}

// stopTimerLocked cancels the pending firing, if any. Bumping the generation
// turns a firing that already started into a no-op.
func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}

	r.timerGen++
}

// expire runs when a turn timer fires. It acts only if the timer is still
// the one the room is waiting on.
func (m *Manager) expire(r *Room, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.timerGen != gen || r.state != StateRunning {
		m.log.Debug().Str("room", r.code).Uint64("timer", gen).Msg("ignoring stale turn timer")
		return
	}

	r.timer = nil

	m.resolveTimeoutLocked(r)
}
