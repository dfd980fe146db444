package wordchain

import (
	"sync"
	"time"

	"github.com/Seednode/wordchain/internal/hangul"
)

type State string

const (
	StateLobby   State = "LOBBY"
	StateRunning State = "RUNNING"
)

const (
	DefaultTargetScore = 5
	MinTargetScore     = 1
	MaxTargetScore     = 50
)

// Participant is one connection's seat in a room.
type Participant struct {
	ID    string
	Name  string
	Score int

	sink Sink
}

// Room is one game session. Every field is guarded by mu; helpers with a
// Locked suffix expect it to be held.
type Room struct {
	mu sync.Mutex

	code   string
	closed bool

	participants []*Participant
	turnOrder    []string
	turnIndex    int

	state         State
	currentWord   string
	usedWords     map[string]struct{}
	usedOrder     []string
	targetScore   int
	lastValidID   string
	ownerID       string
	matchWinnerID string

	deadline time.Time
	timer    Timer
	timerGen uint64
}

func newRoom(code string) *Room {
	return &Room{
		code:        code,
		state:       StateLobby,
		usedWords:   make(map[string]struct{}),
		targetScore: DefaultTargetScore,
	}
}

func (r *Room) participantLocked(id string) *Participant {
	for _, p := range r.participants {
		if p.ID == id {
			return p
		}
	}

	return nil
}

// turnHolderLocked returns the id whose word is currently expected, or ""
// when the turn order is empty.
func (r *Room) turnHolderLocked() string {
	if len(r.turnOrder) == 0 {
		return ""
	}

	return r.turnOrder[r.turnIndex%len(r.turnOrder)]
}

func (r *Room) turnPositionLocked(id string) int {
	for i, pid := range r.turnOrder {
		if pid == id {
			return i
		}
	}

	return -1
}

// nextAfterLocked returns the id following id in turn order.
func (r *Room) nextAfterLocked(id string) string {
	i := r.turnPositionLocked(id)
	if i < 0 || len(r.turnOrder) < 2 {
		return ""
	}

	return r.turnOrder[(i+1)%len(r.turnOrder)]
}

func (r *Room) advanceTurnLocked() {
	if len(r.turnOrder) == 0 {
		r.turnIndex = 0
		return
	}

	r.turnIndex = (r.turnIndex + 1) % len(r.turnOrder)
}

func (r *Room) isUsedLocked(word string) bool {
	_, ok := r.usedWords[word]

	return ok
}

func (r *Room) acceptWordLocked(id, word string) {
	r.currentWord = word
	r.usedWords[word] = struct{}{}
	r.usedOrder = append(r.usedOrder, word)
	r.lastValidID = id
}

// resetRoundLocked clears everything that only lives for one round. Scores,
// the target and the match winner survive.
func (r *Room) resetRoundLocked() {
	r.currentWord = ""
	r.usedWords = make(map[string]struct{})
	r.usedOrder = nil
	r.lastValidID = ""
	r.deadline = time.Time{}
}

// removeLocked splices id out of the membership and the turn order, keeping
// the cursor on the same survivor where possible.
func (r *Room) removeLocked(id string) bool {
	found := false
	dst := r.participants[:0]
	for _, p := range r.participants {
		if p.ID == id {
			found = true
			continue
		}
		dst = append(dst, p)
	}
	r.participants = dst

	if !found {
		return false
	}

	if i := r.turnPositionLocked(id); i >= 0 {
		r.turnOrder = append(r.turnOrder[:i], r.turnOrder[i+1:]...)
		if i < r.turnIndex {
			r.turnIndex--
		}
	}

	if len(r.turnOrder) == 0 {
		r.turnIndex = 0
	} else {
		r.turnIndex %= len(r.turnOrder)
	}

	if r.ownerID == id {
		r.ownerID = ""
		if len(r.participants) > 0 {
			r.ownerID = r.participants[0].ID
		}
	}

	return true
}

func (r *Room) scoresLocked() []PlayerView {
	views := make([]PlayerView, 0, len(r.participants))
	for _, p := range r.participants {
		views = append(views, PlayerView{ID: p.ID, Name: p.Name, Score: p.Score})
	}

	return views
}

func (r *Room) snapshotLocked(limit time.Duration) StateEvent {
	s := StateEvent{
		Type:          "state",
		RoomCode:      r.code,
		Players:       r.scoresLocked(),
		Order:         append([]string{}, r.turnOrder...),
		State:         r.state,
		CurrentWord:   r.currentWord,
		NextStarts:    hangul.NextStarts(r.currentWord),
		UsedWords:     append([]string{}, r.usedOrder...),
		TimeLimitMs:   limit.Milliseconds(),
		TargetScore:   r.targetScore,
		OwnerID:       r.ownerID,
		MatchWinnerID: r.matchWinnerID,
	}

	if r.state == StateRunning {
		s.Turn = r.turnHolderLocked()
	}
	if !r.deadline.IsZero() {
		s.Deadline = r.deadline.UnixMilli()
	}

	return s
}

func (r *Room) broadcastLocked(ev Event) {
	for _, p := range r.participants {
		if p.sink != nil {
			p.sink.Send(ev)
		}
	}
}

func (r *Room) sendLocked(id string, ev Event) {
	if p := r.participantLocked(id); p != nil && p.sink != nil {
		p.sink.Send(ev)
	}
}
