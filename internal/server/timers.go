package server

import (
	"log"
	"strings"
	"time"
)

// One-shot timers keyed by "code/kind[/who]". Every callback re-checks the
// state it was armed for before acting, so a timer that fires after the
// room has moved on becomes a no-op instead of corrupting the session.

func (s *Server) scheduleTimer(key string, d time.Duration, fn func()) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}
	s.timers[key] = time.AfterFunc(d, func() {
		s.clearTimer(key)
		fn()
	})
}

func (s *Server) cancelTimer(key string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[key]; ok {
		timer.Stop()
		delete(s.timers, key)
	}
}

func (s *Server) clearTimer(key string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	delete(s.timers, key)
}

// cancelRoomTimers drops every pending timer for a destroyed room.
func (s *Server) cancelRoomTimers(code string) {
	prefix := code + "/"
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for key, timer := range s.timers {
		if strings.HasPrefix(key, prefix) {
			timer.Stop()
			delete(s.timers, key)
		}
	}
}

func deadlineKey(code string) string { return code + "/deadline" }
func pauseKey(code string) string    { return code + "/pause" }
func graceKey(code, userID string) string {
	return code + "/grace/" + userID
}

// scheduleGuessDeadline arms the auto-guess timer for one clue. The tag
// (clue, phase, round) pins the callback to the exact clue it was armed
// for; a re-submitted clue or an advanced phase makes it a no-op.
func (s *Server) scheduleGuessDeadline(code, clue string, phase, round int) {
	d := time.Duration(s.cfg.GuessDeadlineSeconds) * time.Second
	s.scheduleTimer(deadlineKey(code), d, func() {
		s.handleGuessDeadline(code, clue, phase, round)
	})
}

func (s *Server) handleGuessDeadline(code, clue string, phase, round int) {
	err := s.withRoom(code, func(room *Room) error {
		game := room.Game
		if game == nil || game.State != stateAwaitingGuesses {
			return nil
		}
		if game.CurrentClue != clue || game.CurrentPhase != phase || game.CurrentRound != round {
			return nil
		}
		s.autoFillGuesses(room)
		s.completePhase(room)
		return nil
	})
	if err != nil {
		return
	}
	log.Printf("guess deadline fired room=%s round=%d phase=%d", code, round, phase)
}

// schedulePhasePause arms the short pause between phase one's reveal and
// phase two. A non-positive pause advances immediately from the caller,
// so a zero-duration arm never happens here.
func (s *Server) schedulePhasePause(code string, round int) {
	d := time.Duration(s.cfg.PhasePauseSeconds) * time.Second
	s.scheduleTimer(pauseKey(code), d, func() {
		s.handlePhasePause(code, round)
	})
}

func (s *Server) handlePhasePause(code string, round int) {
	_ = s.withRoom(code, func(room *Room) error {
		game := room.Game
		if game == nil || game.State != statePhaseComplete {
			return nil
		}
		if game.CurrentRound != round || game.CurrentPhase != 1 {
			return nil
		}
		s.advanceToPhaseTwo(room)
		return nil
	})
}

// scheduleGraceRemoval arms the disconnect grace window. Expiry only
// removes the player when no game is active; during a game the seat is
// held and the guess deadline covers the absent player.
func (s *Server) scheduleGraceRemoval(code, userID string) {
	d := time.Duration(s.cfg.DisconnectGraceSeconds) * time.Second
	s.scheduleTimer(graceKey(code, userID), d, func() {
		s.handleGraceExpiry(code, userID)
	})
}

func (s *Server) handleGraceExpiry(code, userID string) {
	_ = s.withRoom(code, func(room *Room) error {
		player, index := room.findByUser(userID)
		if player == nil || player.Connected {
			return nil
		}
		if room.Game != nil {
			return nil
		}
		log.Printf("grace expired room=%s player=%s", code, player.Name)
		s.dropPlayer(room, index)
		return nil
	})
}
