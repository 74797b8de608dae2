package server

import (
	"sync"
	"time"
)

// Game session states. A round walks awaiting-target -> awaiting-clue ->
// awaiting-guesses -> phase-complete, loops back to awaiting-clue for the
// two-word phase, then lands in round-complete until the host advances.
const (
	stateAwaitingTarget  = "awaiting-target"
	stateAwaitingClue    = "awaiting-clue"
	stateAwaitingGuesses = "awaiting-guesses"
	statePhaseComplete   = "phase-complete"
	stateRoundComplete   = "round-complete"
)

const (
	chatTypePlayer = "player"
	chatTypeSystem = "system"
)

type Settings struct {
	MaxPlayers int  `json:"maxPlayers"`
	Rounds     int  `json:"rounds"`
	IsPrivate  bool `json:"isPrivate"`
}

// Player identity is split in two: UserID is stable across reconnects,
// ConnID changes every time the transport session is re-established.
type Player struct {
	ConnID         string
	UserID         string
	Name           string
	Ready          bool
	Score          int
	Connected      bool
	DisconnectedAt time.Time
}

type ChatMessage struct {
	Type       string    `json:"type"`
	PlayerName string    `json:"playerName,omitempty"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type Room struct {
	Code      string
	HostID    string
	Players   []Player
	Settings  Settings
	Game      *Game
	Chat      []ChatMessage
	CreatedAt time.Time

	mu      sync.Mutex
	pending []frame
}

type Card struct {
	Indices [4]int
	// Target is a palette index, -1 until the clue giver selects one
	// of the four card colors.
	Target int
}

type Game struct {
	RoundsTotal   int
	CurrentRound  int
	CurrentPhase  int
	TurnIndex     int
	State         string
	Card          Card
	CurrentClue   string
	GuessDeadline time.Time
	RoundClues    []string
	Guesses       map[string]*Cones
	PhaseGuesses  map[string]PhaseGuess
	History       []RoundRecord
	StartedAt     time.Time
}

// Cones holds a guesser's two per-round placements, one per phase.
// A nil slot means the cone was never placed.
type Cones struct {
	Cone1 *int
	Cone2 *int
}

type PhaseGuess struct {
	Index      int       `json:"index"`
	PlayerName string    `json:"playerName"`
	Timestamp  time.Time `json:"timestamp"`
	Auto       bool      `json:"auto"`
}

type ConeResult struct {
	Cone       int    `json:"cone"`
	Index      int    `json:"index"`
	Coordinate string `json:"coordinate"`
	Points     int    `json:"points"`
}

type PlayerRoundResult struct {
	PlayerName string       `json:"playerName"`
	Cones      []ConeResult `json:"cones"`
	Total      int          `json:"totalPoints"`
}

type RoundRecord struct {
	Round       int                 `json:"round"`
	TargetIndex int                 `json:"targetIndex"`
	Clues       []string            `json:"clues"`
	ClueGiver   string              `json:"clueGiver"`
	CuerPoints  int                 `json:"cuerPoints"`
	Results     []PlayerRoundResult `json:"results"`
}

type RoomSummary struct {
	Code       string `json:"code"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	InGame     bool   `json:"inGame"`
}

func (r *Room) findByConn(connID string) (*Player, int) {
	for i := range r.Players {
		if r.Players[i].ConnID == connID {
			return &r.Players[i], i
		}
	}
	return nil, -1
}

func (r *Room) findByUser(userID string) (*Player, int) {
	if userID == "" {
		return nil, -1
	}
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return &r.Players[i], i
		}
	}
	return nil, -1
}

// clueGiver returns the player whose turn it is. Callers must have
// checked that a game is active.
func (r *Room) clueGiver() *Player {
	return &r.Players[r.Game.TurnIndex]
}
