package server

import (
	"log"
	"sort"
	"strings"
	"time"

	"hues-and-cues/internal/palette"
)

func newCard() Card {
	return Card{Indices: palette.SampleFour(), Target: -1}
}

func targetRevealed(game *Game) TargetRevealedPayload {
	return TargetRevealedPayload{
		TargetIndex: game.Card.Target,
		TargetColor: palette.Color(game.Card.Target),
		Coordinate:  palette.Coordinate(game.Card.Target),
	}
}

func (s *Server) startGame(sess *session, code string) error {
	return s.withRoom(code, func(room *Room) error {
		if sess.connID != room.HostID {
			return ErrNotHost
		}
		if len(room.Players) < s.cfg.MinPlayers {
			return ErrTooFewPlayers
		}
		for i := range room.Players {
			p := &room.Players[i]
			if p.ConnID != room.HostID && !p.Ready {
				return ErrPlayersNotReady
			}
		}

		// A restart while a stale game lingers is allowed; its timers are
		// disarmed here and their state tags would miss anyway.
		s.cancelTimer(deadlineKey(room.Code))
		s.cancelTimer(pauseKey(room.Code))

		for i := range room.Players {
			room.Players[i].Score = 0
		}
		room.Game = &Game{
			RoundsTotal:  room.Settings.Rounds,
			CurrentRound: 1,
			CurrentPhase: 1,
			TurnIndex:    0,
			State:        stateAwaitingTarget,
			Card:         newCard(),
			Guesses:      make(map[string]*Cones),
			PhaseGuesses: make(map[string]PhaseGuess),
			StartedAt:    time.Now().UTC(),
		}

		room.emit(evGameStarted, GameStartedPayload{
			GameState:   room.gameState(),
			ClueGiver:   room.clueGiver().Name,
			ClueGiverID: room.clueGiver().ConnID,
		})
		room.emit(evRoomState, room.roomState())
		log.Printf("game started room=%s players=%d rounds=%d", room.Code, len(room.Players), room.Game.RoundsTotal)
		return nil
	})
}

// selectTarget pins the secret target to one of the four card colors.
// Re-selecting is allowed until a clue has been given.
func (s *Server) selectTarget(sess *session, code string, position int) error {
	return s.withRoom(code, func(room *Room) error {
		game := room.Game
		if game == nil {
			return ErrNoActiveGame
		}
		if room.clueGiver().ConnID != sess.connID {
			return ErrNotYourTurn
		}
		if position < 0 || position >= len(game.Card.Indices) {
			return ErrInvalidSelection
		}
		if game.State != stateAwaitingTarget && game.State != stateAwaitingClue {
			return ErrTargetLocked
		}
		game.Card.Target = game.Card.Indices[position]
		game.State = stateAwaitingClue
		room.emitTo(sess.connID, evTargetRevealed, targetRevealed(game))
		log.Printf("target selected room=%s round=%d", room.Code, game.CurrentRound)
		return nil
	})
}

func (s *Server) submitClue(sess *session, code, text string) error {
	return s.withRoom(code, func(room *Room) error {
		game := room.Game
		if game == nil {
			return ErrNoActiveGame
		}
		if game.Card.Target < 0 {
			return ErrTargetNotSelected
		}
		if room.clueGiver().ConnID != sess.connID {
			return ErrNotYourTurn
		}
		// A fresh clue during awaiting-guesses replaces the pending one
		// and re-arms the deadline; after the phase has completed the
		// command is stale and gets rejected.
		if game.State != stateAwaitingClue && game.State != stateAwaitingGuesses {
			return ErrClueNotExpected
		}
		clue, err := validateClue(text)
		if err != nil {
			return err
		}
		if words := len(strings.Fields(clue)); words != game.CurrentPhase {
			return WordCountError{Expected: game.CurrentPhase}
		}

		game.CurrentClue = clue
		game.PhaseGuesses = make(map[string]PhaseGuess)
		game.GuessDeadline = time.Now().UTC().Add(time.Duration(s.cfg.GuessDeadlineSeconds) * time.Second)
		game.State = stateAwaitingGuesses

		room.emit(evClueGiven, ClueGivenPayload{
			Clue:      clue,
			Phase:     game.CurrentPhase,
			ClueGiver: room.clueGiver().Name,
			Deadline:  game.GuessDeadline,
		})
		s.scheduleGuessDeadline(room.Code, clue, game.CurrentPhase, game.CurrentRound)
		log.Printf("clue given room=%s round=%d phase=%d clue=%q", room.Code, game.CurrentRound, game.CurrentPhase, clue)
		return nil
	})
}

func (s *Server) placeGuess(sess *session, code string, colorIndex int) error {
	return s.withRoom(code, func(room *Room) error {
		game := room.Game
		if game == nil {
			return ErrNoActiveGame
		}
		player, _ := room.findByConn(sess.connID)
		if player == nil {
			return ErrPlayerNotFound
		}
		if room.clueGiver().ConnID == sess.connID {
			return ErrClueGiverCannotGuess
		}
		if game.State != stateAwaitingGuesses {
			return ErrNotAcceptingGuesses
		}
		if colorIndex < 0 || colorIndex >= palette.Size {
			return ErrInvalidSelection
		}

		recordGuess(game, player, colorIndex, false)
		room.emit(evGuessPlaced, GuessPlacedPayload{
			PlayerName:      player.Name,
			Phase:           game.CurrentPhase,
			TotalGuesses:    room.phaseGuessCount(),
			ExpectedGuesses: len(room.Players) - 1,
		})
		log.Printf("guess placed room=%s player=%s phase=%d index=%d", room.Code, player.Name, game.CurrentPhase, colorIndex)
		s.maybeCompletePhase(room)
		return nil
	})
}

// recordGuess writes the cone slot for the current phase. Last write wins
// for repeat guesses within the same phase.
func recordGuess(game *Game, player *Player, colorIndex int, auto bool) {
	cones := game.Guesses[player.UserID]
	if cones == nil {
		cones = &Cones{}
		game.Guesses[player.UserID] = cones
	}
	index := colorIndex
	if game.CurrentPhase == 1 {
		cones.Cone1 = &index
	} else {
		cones.Cone2 = &index
	}
	game.PhaseGuesses[player.UserID] = PhaseGuess{
		Index:      colorIndex,
		PlayerName: player.Name,
		Timestamp:  time.Now().UTC(),
		Auto:       auto,
	}
}

// phaseGuessCount counts phase guesses belonging to current members, so
// a removed player's stale entry cannot hold a phase open.
func (r *Room) phaseGuessCount() int {
	count := 0
	for userID := range r.Game.PhaseGuesses {
		if player, _ := r.findByUser(userID); player != nil {
			count++
		}
	}
	return count
}

// maybeCompletePhase fires completion as soon as everyone except the clue
// giver has guessed. It races the deadline timer; both funnel into
// completePhase, which is guarded, so whichever runs second is a no-op.
func (s *Server) maybeCompletePhase(room *Room) {
	game := room.Game
	if game == nil || game.State != stateAwaitingGuesses {
		return
	}
	expected := len(room.Players) - 1
	if expected > 0 && room.phaseGuessCount() >= expected {
		s.completePhase(room)
	}
}

// autoFillGuesses assigns the palette center to every guesser who missed
// the deadline, flagged as automatic.
func (s *Server) autoFillGuesses(room *Room) {
	game := room.Game
	center := palette.Center()
	for i := range room.Players {
		if i == game.TurnIndex {
			continue
		}
		player := &room.Players[i]
		if _, ok := game.PhaseGuesses[player.UserID]; ok {
			continue
		}
		recordGuess(game, player, center, true)
		log.Printf("auto guess room=%s player=%s index=%d", room.Code, player.Name, center)
	}
}

func (s *Server) completePhase(room *Room) {
	game := room.Game
	if game == nil || game.State != stateAwaitingGuesses {
		return
	}
	s.cancelTimer(deadlineKey(room.Code))
	game.RoundClues = append(game.RoundClues, game.CurrentClue)
	game.State = statePhaseComplete
	game.GuessDeadline = time.Time{}

	guesses := make(map[string]PhaseGuess, len(game.PhaseGuesses))
	for userID, guess := range game.PhaseGuesses {
		guesses[userID] = guess
	}
	room.emit(evPhaseComplete, PhaseCompletePayload{Phase: game.CurrentPhase, Guesses: guesses})

	if game.CurrentPhase == 1 {
		if s.cfg.PhasePauseSeconds > 0 {
			s.schedulePhasePause(room.Code, game.CurrentRound)
		} else {
			s.advanceToPhaseTwo(room)
		}
		return
	}
	s.scoreRound(room)
}

// advanceToPhaseTwo moves into the two-word phase: same target, same clue
// giver, fresh clue and guesses.
func (s *Server) advanceToPhaseTwo(room *Room) {
	game := room.Game
	game.CurrentPhase = 2
	game.CurrentClue = ""
	game.PhaseGuesses = make(map[string]PhaseGuess)
	game.State = stateAwaitingClue

	room.emit(evPhaseChanged, PhaseChangedPayload{
		Round:       game.CurrentRound,
		Phase:       2,
		ClueGiver:   room.clueGiver().Name,
		ClueGiverID: room.clueGiver().ConnID,
	})
	room.emitTo(room.clueGiver().ConnID, evTargetRevealed, targetRevealed(game))
	log.Printf("phase advanced room=%s round=%d phase=2", room.Code, game.CurrentRound)
}

// scoreRound settles both cones for every guesser against the target and
// credits the clue giver one point per cone that landed in the frame.
// Every recorded cone counts, keyed on who placed it rather than on the
// turn index: a departure mid-round can promote a guesser into the clue
// giver seat, and their earlier cones still score.
func (s *Server) scoreRound(room *Room) {
	game := room.Game
	target := game.Card.Target
	cuer := room.clueGiver()
	cuerPoints := 0
	results := make([]PlayerRoundResult, 0, len(room.Players))

	for i := range room.Players {
		player := &room.Players[i]
		cones := game.Guesses[player.UserID]
		if cones == nil || (cones.Cone1 == nil && cones.Cone2 == nil) {
			continue
		}
		result := PlayerRoundResult{PlayerName: player.Name}
		scoreCone := func(cone int, index *int) {
			if index == nil {
				return
			}
			points := palette.Score(palette.Distance(*index, target))
			result.Cones = append(result.Cones, ConeResult{
				Cone:       cone,
				Index:      *index,
				Coordinate: palette.Coordinate(*index),
				Points:     points,
			})
			result.Total += points
			if points > 0 {
				cuerPoints++
			}
		}
		scoreCone(1, cones.Cone1)
		scoreCone(2, cones.Cone2)
		player.Score += result.Total
		results = append(results, result)
	}
	cuer.Score += cuerPoints

	game.History = append(game.History, RoundRecord{
		Round:       game.CurrentRound,
		TargetIndex: target,
		Clues:       append([]string(nil), game.RoundClues...),
		ClueGiver:   cuer.Name,
		CuerPoints:  cuerPoints,
		Results:     results,
	})
	game.State = stateRoundComplete

	room.emit(evRoundResults, RoundResultsPayload{
		Round:       game.CurrentRound,
		TargetIndex: target,
		TargetColor: palette.Color(target),
		Coordinate:  palette.Coordinate(target),
		Results:     results,
		CuerPoints:  cuerPoints,
		CuerName:    cuer.Name,
		Scoreboard:  room.scoreboard(),
	})
	room.emit(evRoomState, room.roomState())
	log.Printf("round scored room=%s round=%d cuer_points=%d", room.Code, game.CurrentRound, cuerPoints)
}

func (s *Server) nextRound(sess *session, code string) error {
	return s.withRoom(code, func(room *Room) error {
		if room.Game == nil {
			return ErrNoActiveGame
		}
		if sess.connID != room.HostID {
			return ErrNotHost
		}
		if room.Game.State != stateRoundComplete {
			return ErrRoundNotComplete
		}
		s.advanceRound(room)
		return nil
	})
}

func (s *Server) advanceRound(room *Room) {
	game := room.Game
	game.CurrentRound++
	if game.CurrentRound > game.RoundsTotal {
		s.endGame(room)
		return
	}
	game.CurrentPhase = 1
	game.TurnIndex = (game.TurnIndex + 1) % len(room.Players)
	game.Card = newCard()
	game.CurrentClue = ""
	game.RoundClues = nil
	game.Guesses = make(map[string]*Cones)
	game.PhaseGuesses = make(map[string]PhaseGuess)
	game.GuessDeadline = time.Time{}
	game.State = stateAwaitingTarget

	payload := NewRoundPayload{
		Round:       game.CurrentRound,
		CardIndices: game.Card.Indices,
		ClueGiver:   room.clueGiver().Name,
		ClueGiverID: room.clueGiver().ConnID,
	}
	for i, index := range game.Card.Indices {
		payload.CardColors[i] = palette.Color(index)
	}
	room.emit(evNewRound, payload)
	log.Printf("round advanced room=%s round=%d clue_giver=%s", room.Code, game.CurrentRound, room.clueGiver().Name)
}

// endGame publishes the final standings, hands the room back to the lobby
// and pushes the finished game to the history sink.
func (s *Server) endGame(room *Room) {
	game := room.Game

	final := room.scoreboard()
	sort.SliceStable(final, func(a, b int) bool { return final[a].Score > final[b].Score })
	winner := final[0].Name
	history := append([]RoundRecord(nil), game.History...)

	room.emit(evGameOver, GameOverPayload{
		Winner:       winner,
		FinalScores:  final,
		RoundHistory: history,
	})

	for i := range room.Players {
		room.Players[i].Ready = false
		room.Players[i].Score = 0
	}
	room.Game = nil
	room.emit(evRoomState, room.roomState())
	log.Printf("game over room=%s winner=%s rounds=%d", room.Code, winner, len(history))

	go s.persistGameHistory(room.Code, winner, final, history)
}
