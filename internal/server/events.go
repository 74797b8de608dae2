package server

import "time"

// Broadcast event names. These are the wire vocabulary clients subscribe
// to; every name matches a command side effect described in the room and
// game flows.
const (
	evRoomState      = "room_state"
	evChatMessage    = "chat_message"
	evGameStarted    = "game_started"
	evTargetRevealed = "target_revealed"
	evClueGiven      = "clue_given"
	evGuessPlaced    = "guess_placed"
	evPhaseComplete  = "phase_complete"
	evPhaseChanged   = "phase_changed"
	evRoundResults   = "round_results"
	evNewRound       = "new_round"
	evGameOver       = "game_over"
)

// frame is one outbound event queued during a room mutation. An empty
// `to` fans out to every member; otherwise it goes to one connection.
type frame struct {
	to    string
	event string
	data  any
}

// emit queues a room-wide broadcast. Frames flush in queue order after
// the mutation commits, so clients observe events in causal order.
func (r *Room) emit(event string, data any) {
	r.pending = append(r.pending, frame{event: event, data: data})
}

// emitTo queues a private event for a single connection.
func (r *Room) emitTo(connID, event string, data any) {
	r.pending = append(r.pending, frame{to: connID, event: event, data: data})
}

type PlayerState struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

type RoomStatePayload struct {
	Code          string        `json:"code"`
	HostID        string        `json:"hostId"`
	Players       []PlayerState `json:"players"`
	Settings      Settings      `json:"settings"`
	HasActiveGame bool          `json:"hasActiveGame"`
}

type GameStatePayload struct {
	CurrentRound  int        `json:"currentRound"`
	RoundsTotal   int        `json:"roundsTotal"`
	CurrentPhase  int        `json:"currentPhase"`
	State         string     `json:"state"`
	CardColors    [4]string  `json:"cardColors"`
	CardIndices   [4]int     `json:"cardIndices"`
	Clue          string     `json:"clue,omitempty"`
	GuessDeadline *time.Time `json:"guessDeadline,omitempty"`
}

type GameStartedPayload struct {
	GameState   GameStatePayload `json:"gameState"`
	ClueGiver   string           `json:"clueGiver"`
	ClueGiverID string           `json:"clueGiverId"`
}

type TargetRevealedPayload struct {
	TargetIndex int    `json:"targetIndex"`
	TargetColor string `json:"targetColor"`
	Coordinate  string `json:"coordinate"`
}

type ClueGivenPayload struct {
	Clue      string    `json:"clue"`
	Phase     int       `json:"phase"`
	ClueGiver string    `json:"clueGiver"`
	Deadline  time.Time `json:"deadline"`
}

type GuessPlacedPayload struct {
	PlayerName      string `json:"playerName"`
	Phase           int    `json:"phase"`
	TotalGuesses    int    `json:"totalGuesses"`
	ExpectedGuesses int    `json:"expectedGuesses"`
}

type PhaseCompletePayload struct {
	Phase   int                   `json:"phase"`
	Guesses map[string]PhaseGuess `json:"guesses"`
}

type PhaseChangedPayload struct {
	Round       int    `json:"round"`
	Phase       int    `json:"phase"`
	ClueGiver   string `json:"clueGiver"`
	ClueGiverID string `json:"clueGiverId"`
}

type ScoreEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type RoundResultsPayload struct {
	Round       int                 `json:"round"`
	TargetIndex int                 `json:"targetIndex"`
	TargetColor string              `json:"targetColor"`
	Coordinate  string              `json:"coordinate"`
	Results     []PlayerRoundResult `json:"results"`
	CuerPoints  int                 `json:"cuerPoints"`
	CuerName    string              `json:"cuerName"`
	Scoreboard  []ScoreEntry        `json:"scoreboard"`
}

type NewRoundPayload struct {
	Round       int       `json:"round"`
	CardColors  [4]string `json:"cardColors"`
	CardIndices [4]int    `json:"cardIndices"`
	ClueGiver   string    `json:"clueGiver"`
	ClueGiverID string    `json:"clueGiverId"`
}

type GameOverPayload struct {
	Winner       string        `json:"winner"`
	FinalScores  []ScoreEntry  `json:"finalScores"`
	RoundHistory []RoundRecord `json:"roundHistory"`
}
