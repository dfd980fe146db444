package wordchain

import "errors"

// Reason is the typed code sent back to a client when an action is refused.
// Every refusal in this package is a Reason, optionally wrapped in a
// *Rejection that carries detail for display.
type Reason string

func (r Reason) Error() string {
	return string(r)
}

const (
	ReasonEmptyRoomCode   Reason = "empty_room_code"
	ReasonRoomFull        Reason = "room_full"
	ReasonRoomNotFound    Reason = "room_not_found"
	ReasonRunning         Reason = "running"
	ReasonNeedTwoPlayers  Reason = "need_2_players"
	ReasonAlreadyRunning  Reason = "already_running"
	ReasonRoundNotRunning Reason = "round_not_running"
	ReasonNotInRoom       Reason = "not_in_room"
	ReasonNotYourTurn     Reason = "not_your_turn"
	ReasonTooLate         Reason = "too_late"
	ReasonNotHangul       Reason = "not_hangul"
	ReasonWrongStart      Reason = "wrong_start"
	ReasonAlreadyUsed     Reason = "already_used"
	ReasonNotInDictionary Reason = "not_in_dictionary"
	ReasonServerError     Reason = "server_error"
)

// Rejection is a Reason with extra detail, such as the syllables a word
// was allowed to start with.
type Rejection struct {
	Reason Reason
	Detail []string
}

func (r *Rejection) Error() string {
	return string(r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// ReasonOf extracts the Reason from err. Errors that did not come from this
// package map to ReasonServerError.
func ReasonOf(err error) Reason {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason
	}

	var reason Reason
	if errors.As(err, &reason) {
		return reason
	}

	return ReasonServerError
}

// DetailOf returns the detail attached to err, if any.
func DetailOf(err error) []string {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Detail
	}

	return nil
}
