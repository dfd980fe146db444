package wordchain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StartRound moves a lobby with at least two participants into a running
// round and starts the first turn.
func (m *Manager) StartRound(code string) error {
	r, err := m.lookup(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if r.state == StateRunning {
		return ReasonAlreadyRunning
	}
	if len(r.participants) < 2 || len(r.turnOrder) < 2 {
		return ReasonNeedTwoPlayers
	}

	r.resetRoundLocked()
	r.turnIndex %= len(r.turnOrder)
	r.state = StateRunning

	m.log.Info().Str("room", r.code).Str("turn", r.turnHolderLocked()).Msg("round started")

	r.broadcastLocked(systemEvent("Round started"))
	m.armLocked(r)
	r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))

	return nil
}

// SetTarget changes the score needed to win the match. raw may be any
// decoded JSON value; see ParseTarget.
func (m *Manager) SetTarget(code string, raw any) (int, error) {
	r, err := m.lookup(code)
	if err != nil {
		return 0, err
	}
	defer r.mu.Unlock()

	if r.state == StateRunning {
		return 0, ReasonRunning
	}

	r.targetScore = ParseTarget(raw)

	r.broadcastLocked(systemEvent(fmt.Sprintf("Target score set to %d", r.targetScore)))
	r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))

	return r.targetScore, nil
}

// ResetMatch zeroes every score and forgets the match winner.
func (m *Manager) ResetMatch(code string) error {
	r, err := m.lookup(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if r.state == StateRunning {
		return ReasonRunning
	}

	for _, p := range r.participants {
		p.Score = 0
	}
	r.matchWinnerID = ""
	r.resetRoundLocked()

	r.broadcastLocked(systemEvent("Scores reset"))
	r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))

	return nil
}

// resolveTimeoutLocked ends the round because the turn holder ran out of
// time. The last player to land a word wins; if nobody did, the next player
// in turn order wins.
func (m *Manager) resolveTimeoutLocked(r *Room) {
	loser := r.turnHolderLocked()

	winner := r.lastValidID
	if winner == "" || winner == loser || r.participantLocked(winner) == nil {
		winner = r.nextAfterLocked(loser)
	}

	r.state = StateLobby
	r.resetRoundLocked()
	m.disarmLocked(r)

	w := r.participantLocked(winner)
	if w == nil {
		m.log.Warn().Str("room", r.code).Str("loser", loser).Msg("round timed out without a winner")
		r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))
		return
	}

	w.Score++
	if i := r.turnPositionLocked(winner); i >= 0 {
		r.turnIndex = i
	}

	m.log.Info().Str("room", r.code).Str("winner", winner).Str("loser", loser).Int("score", w.Score).Msg("round timed out")

	scores := r.scoresLocked()

	r.broadcastLocked(RoundEndEvent{
		Type:        "round_end",
		Reason:      "timeout",
		Winner:      winner,
		Loser:       loser,
		Scores:      scores,
		TargetScore: r.targetScore,
	})

	if w.Score >= r.targetScore {
		r.matchWinnerID = winner

		m.log.Info().Str("room", r.code).Str("winner", winner).Msg("match won")

		r.broadcastLocked(MatchEndEvent{
			Type:        "match_end",
			Winner:      winner,
			Scores:      scores,
			TargetScore: r.targetScore,
		})
	}

	r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))
}

// removeLocked takes id out of r. A running round is cancelled without
// scoring, and an emptied room is destroyed.
func (m *Manager) removeLocked(r *Room, id string) bool {
	p := r.participantLocked(id)
	if p == nil || !r.removeLocked(id) {
		return false
	}

	wasRunning := r.state == StateRunning

	r.state = StateLobby
	r.resetRoundLocked()

	m.log.Info().Str("room", r.code).Str("player", id).Int("players", len(r.participants)).Msg("player left")

	if m.dropIfEmptyLocked(r) {
		return true
	}

	if wasRunning {
		m.disarmLocked(r)
	} else {
		r.stopTimerLocked()
	}

	r.broadcastLocked(systemEvent(fmt.Sprintf("%s left (%d/%d)", p.Name, len(r.participants), m.cfg.MaxPlayers)))
	if wasRunning {
		r.broadcastLocked(systemEvent("Round cancelled"))
	}
	r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))

	return true
}

// ParseTarget turns a client-supplied target score into a value in
// [MinTargetScore, MaxTargetScore]. Numbers are truncated; anything that is
// not a number, or a string holding one, gives DefaultTargetScore.
func ParseTarget(raw any) int {
	var f float64

	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return DefaultTargetScore
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return DefaultTargetScore
		}
		f = parsed
	default:
		return DefaultTargetScore
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultTargetScore
	}

	f = math.Trunc(f)

	switch {
	case f < MinTargetScore:
		return MinTargetScore
	case f > MaxTargetScore:
		return MaxTargetScore
	}

	return int(f)
}
