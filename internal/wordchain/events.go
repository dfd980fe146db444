package wordchain

import "time"

// Event is a message pushed to the participants of a room.
type Event interface {
	EventType() string
}

// Sink delivers events to one participant. Send must not block.
type Sink interface {
	Send(Event)
}

// PlayerView is a participant as shown on the scoreboard.
type PlayerView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type SystemEvent struct {
	Type    string `json:"type"` // "system"
	Message string `json:"message"`
}

func (e SystemEvent) EventType() string { return e.Type }

// StateEvent is a full snapshot of a room.
type StateEvent struct {
	Type          string       `json:"type"` // "state"
	RoomCode      string       `json:"roomCode"`
	Players       []PlayerView `json:"players"`
	Order         []string     `json:"order"`
	Turn          string       `json:"turn,omitempty"`
	State         State        `json:"state"`
	CurrentWord   string       `json:"currentWord"`
	NextStarts    []string     `json:"nextStarts,omitempty"`
	UsedWords     []string     `json:"usedWords"`
	Deadline      int64        `json:"deadline,omitempty"` // unix millis
	TimeLimitMs   int64        `json:"timeLimitMs"`
	TargetScore   int          `json:"targetScore"`
	OwnerID       string       `json:"ownerId,omitempty"`
	MatchWinnerID string       `json:"matchWinnerId,omitempty"`
}

func (e StateEvent) EventType() string { return e.Type }

type TimerEvent struct {
	Type        string `json:"type"`     // "timer"
	Deadline    int64  `json:"deadline"` // unix millis
	Turn        string `json:"turn"`
	TimeLimitMs int64  `json:"timeLimitMs"`
}

func (e TimerEvent) EventType() string { return e.Type }

type TimerStopEvent struct {
	Type string `json:"type"` // "timer_stop"
}

func (e TimerStopEvent) EventType() string { return e.Type }

type WordPlayedEvent struct {
	Type string `json:"type"` // "word_played"
	By   string `json:"by"`
	ByID string `json:"byId"`
	Word string `json:"word"`
}

func (e WordPlayedEvent) EventType() string { return e.Type }

type AcceptEvent struct {
	Type     string `json:"type"` // "accept"
	Word     string `json:"word"`
	NextTurn string `json:"nextTurn"`
}

func (e AcceptEvent) EventType() string { return e.Type }

// RejectEvent goes only to the participant whose word was refused.
type RejectEvent struct {
	Type          string   `json:"type"` // "reject"
	Reason        Reason   `json:"reason"`
	MustStartList []string `json:"mustStartList,omitempty"`
}

func (e RejectEvent) EventType() string { return e.Type }

type RoundEndEvent struct {
	Type        string       `json:"type"`   // "round_end"
	Reason      string       `json:"reason"` // "timeout"
	Winner      string       `json:"winner"`
	Loser       string       `json:"loser"`
	Scores      []PlayerView `json:"scores"`
	TargetScore int          `json:"targetScore"`
}

func (e RoundEndEvent) EventType() string { return e.Type }

type MatchEndEvent struct {
	Type        string       `json:"type"` // "match_end"
	Winner      string       `json:"winner"`
	Scores      []PlayerView `json:"scores"`
	TargetScore int          `json:"targetScore"`
}

func (e MatchEndEvent) EventType() string { return e.Type }

func systemEvent(message string) SystemEvent {
	return SystemEvent{Type: "system", Message: message}
}

func timerEvent(deadline time.Time, turn string, limit time.Duration) TimerEvent {
	return TimerEvent{
		Type:        "timer",
		Deadline:    deadline.UnixMilli(),
		Turn:        turn,
		TimeLimitMs: limit.Milliseconds(),
	}
}

func rejectEvent(err error) RejectEvent {
	return RejectEvent{
		Type:          "reject",
		Reason:        ReasonOf(err),
		MustStartList: DetailOf(err),
	}
}
