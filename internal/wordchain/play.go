package wordchain

import (
	"context"
	"strings"

	"github.com/Seednode/wordchain/internal/hangul"
)

// Play submits word for participant id in the room named code.
//
// The checks run in a fixed order and the first failure is returned, as a
// Reason or a *Rejection, and sent to the submitter as a reject event. The
// dictionary lookup runs last, with the room still locked, so nothing else
// can change the round while it is pending. The room is only modified once
// every check has passed.
func (m *Manager) Play(ctx context.Context, code, id, word string) error {
	r, err := m.lookup(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	word = strings.TrimSpace(word)

	if err := m.checkLocked(ctx, r, id, word); err != nil {
		m.log.Debug().Str("room", r.code).Str("player", id).Str("word", word).Str("reason", string(ReasonOf(err))).Msg("word rejected")
		r.sendLocked(id, rejectEvent(err))

		return err
	}

	p := r.participantLocked(id)

	r.acceptWordLocked(id, word)
	r.advanceTurnLocked()
	next := r.turnHolderLocked()

	m.log.Debug().Str("room", r.code).Str("player", id).Str("word", word).Str("next", next).Msg("word accepted")

	r.broadcastLocked(WordPlayedEvent{Type: "word_played", By: p.Name, ByID: id, Word: word})
	r.broadcastLocked(AcceptEvent{Type: "accept", Word: word, NextTurn: next})
	m.armLocked(r)
	r.broadcastLocked(r.snapshotLocked(m.cfg.TimeLimit))

	return nil
}

func (m *Manager) checkLocked(ctx context.Context, r *Room, id, word string) error {
	if r.state != StateRunning {
		return ReasonRoundNotRunning
	}

	if r.participantLocked(id) == nil {
		return ReasonNotInRoom
	}

	if r.turnHolderLocked() != id {
		return ReasonNotYourTurn
	}

	if m.clock.Now().After(r.deadline) {
		return ReasonTooLate
	}

	if !hangul.IsWord(word) {
		return ReasonNotHangul
	}

	if !hangul.CanFollow(r.currentWord, word) {
		return &Rejection{Reason: ReasonWrongStart, Detail: hangul.NextStarts(r.currentWord)}
	}

	if r.isUsedLocked(word) {
		return ReasonAlreadyUsed
	}

	if m.validator == nil || !m.isValid(ctx, word) {
		return ReasonNotInDictionary
	}

	return nil
}

func (m *Manager) isValid(ctx context.Context, word string) bool {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.LookupTimeout)
	defer cancel()

	return m.validator.IsValid(ctx, word)
}
