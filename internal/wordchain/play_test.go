package wordchain

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayAccepted(t *testing.T) {
	h := started(t)
	h.sinks["p1"].reset()
	h.sinks["p2"].reset()

	require.NoError(t, h.play("p1", " 가방 "))

	s := h.snapshot(t)
	assert.Equal(t, "가방", s.CurrentWord)
	assert.Equal(t, "p2", s.Turn)
	assert.Contains(t, s.NextStarts, "방")
	assert.Equal(t, []string{"가방"}, s.UsedWords)

	for _, id := range []string{"p1", "p2"} {
		assert.Equal(t, []string{"word_played", "accept", "timer", "state"}, h.sinks[id].types(), id)
	}

	accept := h.sinks["p2"].last("accept").(AcceptEvent)
	assert.Equal(t, AcceptEvent{Type: "accept", Word: "가방", NextTurn: "p2"}, accept)

	played := h.sinks["p1"].last("word_played").(WordPlayedEvent)
	assert.Equal(t, "p1", played.ByID)
	assert.Equal(t, "Player-p1", played.By)

	timer := h.sinks["p2"].last("timer").(TimerEvent)
	assert.Equal(t, "p2", timer.Turn)
	assert.Equal(t, h.clock.Now().Add(testLimit).UnixMilli(), timer.Deadline)
}

func TestPlayFollowsDueumRule(t *testing.T) {
	h := started(t)

	require.NoError(t, h.play("p1", "종로"))
	require.NoError(t, h.play("p2", "노래"))

	assert.Equal(t, "노래", h.snapshot(t).CurrentWord)
}

func TestPlayRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, h *harness)
		id     string
		word   string
		want   Reason
		detail []string
	}{
		{
			name: "not your turn",
			id:   "p2",
			word: "가방",
			want: ReasonNotYourTurn,
		},
		{
			name: "not in room",
			id:   "stranger",
			word: "가방",
			want: ReasonNotInRoom,
		},
		{
			name: "too late",
			setup: func(t *testing.T, h *harness) {
				h.clock.Advance(testLimit + time.Millisecond)
			},
			id:   "p1",
			word: "가방",
			want: ReasonTooLate,
		},
		{
			name: "latin letters",
			id:   "p1",
			word: "apple",
			want: ReasonNotHangul,
		},
		{
			name: "blank",
			id:   "p1",
			word: "   ",
			want: ReasonNotHangul,
		},
		{
			name: "wrong start",
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, h.play("p1", "가방"))
			},
			id:     "p2",
			word:   "나무",
			want:   ReasonWrongStart,
			detail: []string{"방"},
		},
		{
			name: "already used",
			setup: func(t *testing.T, h *harness) {
				require.NoError(t, h.play("p1", "가방"))
				require.NoError(t, h.play("p2", "방가"))
			},
			id:   "p1",
			word: "가방",
			want: ReasonAlreadyUsed,
		},
		{
			name: "not in dictionary",
			id:   "p1",
			word: "뷁뷁",
			want: ReasonNotInDictionary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := started(t)
			if tt.setup != nil {
				tt.setup(t, h)
			}

			before := h.snapshot(t)
			for _, rec := range h.sinks {
				rec.reset()
			}

			err := h.play(tt.id, tt.word)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want, ReasonOf(err))
			assert.Equal(t, tt.detail, DetailOf(err))

			if diff := cmp.Diff(before, h.snapshot(t)); diff != "" {
				t.Errorf("room changed after rejection (-before +after):\n%s", diff)
			}

			for id, rec := range h.sinks {
				if id != tt.id {
					assert.Empty(t, rec.types(), "%s should not hear about the rejection", id)
					continue
				}
				reject := rec.last("reject").(RejectEvent)
				assert.Equal(t, tt.want, reject.Reason)
				assert.Equal(t, tt.detail, reject.MustStartList)
			}
		})
	}
}

func TestPlayRoundNotRunning(t *testing.T) {
	h := newHarness(t)
	h.join(t, "ABCD", "p1")
	h.join(t, "ABCD", "p2")

	assert.ErrorIs(t, h.play("p1", "가방"), ReasonRoundNotRunning)
	assert.ErrorIs(t, h.m.Play(context.Background(), "nope", "p1", "가방"), ReasonRoomNotFound)
}

func TestPlayDictionaryCheckedLast(t *testing.T) {
	h := started(t)

	_ = h.play("p2", "가방")
	_ = h.play("p1", "abc")
	assert.Zero(t, h.dict.calls.Load())

	require.NoError(t, h.play("p1", "가방"))
	assert.Equal(t, int64(1), h.dict.calls.Load())

	_ = h.play("p2", "가방")
	assert.Equal(t, int64(1), h.dict.calls.Load())
}

func TestUsedWordsClearedBetweenRounds(t *testing.T) {
	h := started(t)

	require.NoError(t, h.play("p1", "가방"))
	h.clock.Advance(testLimit + testGrace)
	require.Equal(t, StateLobby, h.snapshot(t).State)

	// p1 won and opens the next round.
	require.NoError(t, h.m.StartRound("ABCD"))
	require.NoError(t, h.play("p1", "가방"))
}

func TestConcurrentSubmissionsOnlyOneWins(t *testing.T) {
	h := started(t)
	h.dict.gate = make(chan struct{})

	words := []string{"가방", "나무", "종로", "리본"}
	errs := make(chan error, len(words))

	var wg sync.WaitGroup
	for _, w := range words {
		wg.Add(1)
		go func(w string) {
			defer wg.Done()
			errs <- h.play("p1", w)
		}(w)
	}

	// Only one submission can be inside the dictionary lookup at a time.
	for i := 0; i < len(words); i++ {
		select {
		case h.dict.gate <- struct{}{}:
		case <-time.After(100 * time.Millisecond):
		}
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, ReasonNotYourTurn)
	}

	assert.Equal(t, 1, accepted)
	assert.Equal(t, int64(1), h.dict.calls.Load())
	assert.Equal(t, "p2", h.snapshot(t).Turn)
}
