package server

import (
	"errors"
	"fmt"
)

// Caller-facing command failures. Every rejection happens before any state
// is mutated; the gateway reports the message back in the command ack.
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room is full")
	ErrNameTaken            = errors.New("name already taken")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrNotHost              = errors.New("only the host can do that")
	ErrPlayersNotReady      = errors.New("not all players are ready")
	ErrTooFewPlayers        = errors.New("not enough players to start")
	ErrNoActiveGame         = errors.New("no active game")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrInvalidSelection     = errors.New("invalid color selection")
	ErrTargetNotSelected    = errors.New("select a target color first")
	ErrTargetLocked         = errors.New("target can no longer be changed")
	ErrClueGiverCannotGuess = errors.New("clue giver cannot guess")
	ErrNotAcceptingGuesses  = errors.New("not accepting guesses right now")
	ErrClueNotExpected      = errors.New("not expecting a clue right now")
	ErrRoundNotComplete     = errors.New("round still in progress")
)

// WordCountError rejects a clue whose whitespace-delimited word count does
// not match the current phase.
type WordCountError struct {
	Expected int
}

func (e WordCountError) Error() string {
	return fmt.Sprintf("clue must be exactly %d word(s)", e.Expected)
}
