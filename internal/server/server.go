package server

import (
	"sync"
	"time"

	"hues-and-cues/internal/config"
	"hues-and-cues/internal/palette"

	"gorm.io/gorm"
)

type Server struct {
	registry *Registry
	hub      *hub
	db       *gorm.DB
	cfg      config.Config
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		registry: NewRegistry(),
		hub:      newHub(),
		db:       conn,
		cfg:      cfg,
		timers:   make(map[string]*time.Timer),
	}
}

// withRoom runs fn with the room's lock held, then flushes the events fn
// queued, in order, before releasing the lock. This is the single choke
// point that keeps same-room commands serial and broadcasts causally
// ordered while leaving different rooms free to run in parallel. A room
// whose last player left inside fn is torn down on the way out.
func (s *Server) withRoom(code string, fn func(*Room) error) error {
	room, ok := s.registry.Lookup(code)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	err := fn(room)
	frames := room.pending
	room.pending = nil
	if err == nil {
		s.flush(room.Code, frames)
	}
	empty := len(room.Players) == 0
	room.mu.Unlock()

	if empty {
		s.registry.Delete(code)
		s.cancelRoomTimers(code)
	}
	return err
}

func (r *Room) roomState() RoomStatePayload {
	players := make([]PlayerState, 0, len(r.Players))
	for i := range r.Players {
		p := &r.Players[i]
		players = append(players, PlayerState{
			ID:        p.ConnID,
			UserID:    p.UserID,
			Name:      p.Name,
			Ready:     p.Ready,
			Score:     p.Score,
			Connected: p.Connected,
		})
	}
	return RoomStatePayload{
		Code:          r.Code,
		HostID:        r.HostID,
		Players:       players,
		Settings:      r.Settings,
		HasActiveGame: r.Game != nil,
	}
}

func (r *Room) gameState() GameStatePayload {
	game := r.Game
	payload := GameStatePayload{
		CurrentRound: game.CurrentRound,
		RoundsTotal:  game.RoundsTotal,
		CurrentPhase: game.CurrentPhase,
		State:        game.State,
		CardIndices:  game.Card.Indices,
		Clue:         game.CurrentClue,
	}
	for i, index := range game.Card.Indices {
		payload.CardColors[i] = palette.Color(index)
	}
	if !game.GuessDeadline.IsZero() {
		deadline := game.GuessDeadline
		payload.GuessDeadline = &deadline
	}
	return payload
}

func (r *Room) scoreboard() []ScoreEntry {
	entries := make([]ScoreEntry, 0, len(r.Players))
	for i := range r.Players {
		entries = append(entries, ScoreEntry{Name: r.Players[i].Name, Score: r.Players[i].Score})
	}
	return entries
}
