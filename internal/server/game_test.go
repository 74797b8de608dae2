package server

import (
	"errors"
	"testing"

	"hues-and-cues/internal/palette"
)

// indexWithScore scans the palette for a cell scoring exactly want points
// against the target, so guesses in tests are deterministic regardless of
// which card the sampler dealt.
func indexWithScore(t *testing.T, target, want int) int {
	t.Helper()
	for i := 0; i < palette.Size; i++ {
		if palette.Score(palette.Distance(i, target)) == want {
			return i
		}
	}
	t.Fatalf("no palette index scores %d against target %d", want, target)
	return 0
}

func TestStartGameGating(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben")

	if err := srv.startGame(sessions[1], code); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := srv.setReady(sessions[1], code, false); err != nil {
		t.Fatalf("set ready: %v", err)
	}
	if err := srv.startGame(sessions[0], code); !errors.Is(err, ErrPlayersNotReady) {
		t.Fatalf("expected ErrPlayersNotReady, got %v", err)
	}
	if err := srv.setReady(sessions[1], code, true); err != nil {
		t.Fatalf("set ready: %v", err)
	}
	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}

	soloCode, solo := setupRoom(t, srv, "Solo")
	if err := srv.startGame(solo[0], soloCode); !errors.Is(err, ErrTooFewPlayers) {
		t.Fatalf("expected ErrTooFewPlayers, got %v", err)
	}
}

func TestSelectTargetValidation(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben")

	if err := srv.selectTarget(sessions[0], code, 0); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected ErrNoActiveGame, got %v", err)
	}
	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[1], code, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 4); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}

	room := mustRoom(t, srv, code)

	// Re-selecting is allowed until a clue locks the target in.
	if err := srv.selectTarget(sessions[0], code, 1); err != nil {
		t.Fatalf("re-select target: %v", err)
	}
	if room.Game.Card.Target != room.Game.Card.Indices[1] {
		t.Fatalf("expected target to move to the second card color")
	}

	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); !errors.Is(err, ErrTargetLocked) {
		t.Fatalf("expected ErrTargetLocked, got %v", err)
	}
}

func TestSubmitClueValidation(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "crimson"); !errors.Is(err, ErrTargetNotSelected) {
		t.Fatalf("expected ErrTargetNotSelected, got %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	if err := srv.submitClue(sessions[1], code, "crimson"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}

	err := srv.submitClue(sessions[0], code, "dark red")
	var wordErr WordCountError
	if !errors.As(err, &wordErr) || wordErr.Expected != 1 {
		t.Fatalf("expected one-word WordCountError, got %v", err)
	}
	room := mustRoom(t, srv, code)
	if room.Game.CurrentClue != "" || room.Game.State != stateAwaitingClue {
		t.Fatalf("rejected clue must not change game state")
	}

	if err := srv.submitClue(sessions[0], code, "  crimson  "); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	if room.Game.CurrentClue != "crimson" || room.Game.State != stateAwaitingGuesses {
		t.Fatalf("expected trimmed clue recorded, got %q in state %s", room.Game.CurrentClue, room.Game.State)
	}
	if room.Game.GuessDeadline.IsZero() {
		t.Fatalf("expected guess deadline armed")
	}
}

func TestPlaceGuessValidation(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, 0); !errors.Is(err, ErrNotAcceptingGuesses) {
		t.Fatalf("expected ErrNotAcceptingGuesses before a clue, got %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	if err := srv.placeGuess(sessions[0], code, 0); !errors.Is(err, ErrClueGiverCannotGuess) {
		t.Fatalf("expected ErrClueGiverCannotGuess, got %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, palette.Size); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("expected ErrInvalidSelection, got %v", err)
	}
	if err := srv.placeGuess(newTestSession(), code, 0); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
}

func TestGuessOverwriteWithinPhase(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}

	room := mustRoom(t, srv, code)
	benUserID := room.Players[1].UserID

	if err := srv.placeGuess(sessions[1], code, 10); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, 20); err != nil {
		t.Fatalf("replace guess: %v", err)
	}
	if got := *room.Game.Guesses[benUserID].Cone1; got != 20 {
		t.Fatalf("expected last guess to win, got %d", got)
	}
	if room.phaseGuessCount() != 1 {
		t.Fatalf("expected one counted guesser, got %d", room.phaseGuessCount())
	}
	if room.Game.State != stateAwaitingGuesses {
		t.Fatalf("phase must stay open until every guesser has placed")
	}
}

func TestFullRoundFlowAndScoring(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}

	room := mustRoom(t, srv, code)
	target := room.Game.Card.Target

	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, target); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.placeGuess(sessions[2], code, indexWithScore(t, target, 0)); err != nil {
		t.Fatalf("place guess: %v", err)
	}

	// With the pause disabled the last guess flips straight into phase two.
	if room.Game.CurrentPhase != 2 || room.Game.State != stateAwaitingClue {
		t.Fatalf("expected phase 2 awaiting clue, got phase %d state %s", room.Game.CurrentPhase, room.Game.State)
	}
	if room.Game.CurrentClue != "" {
		t.Fatalf("expected clue cleared for phase 2")
	}
	if len(room.Game.RoundClues) != 1 || room.Game.RoundClues[0] != "crimson" {
		t.Fatalf("expected phase-one clue recorded, got %v", room.Game.RoundClues)
	}

	if err := srv.submitClue(sessions[0], code, "crimson"); err == nil {
		t.Fatalf("expected one-word clue rejected in phase 2")
	}
	if err := srv.submitClue(sessions[0], code, "dark red"); err != nil {
		t.Fatalf("submit phase-two clue: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, target); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.placeGuess(sessions[2], code, indexWithScore(t, target, 2)); err != nil {
		t.Fatalf("place guess: %v", err)
	}

	if room.Game.State != stateRoundComplete {
		t.Fatalf("expected round complete, got %s", room.Game.State)
	}
	// Ben landed two bullseyes, Clara one two-point cone, and the clue
	// giver collects a point for each cone that scored.
	if got := room.Players[1].Score; got != 6 {
		t.Fatalf("expected Ben at 6 points, got %d", got)
	}
	if got := room.Players[2].Score; got != 2 {
		t.Fatalf("expected Clara at 2 points, got %d", got)
	}
	if got := room.Players[0].Score; got != 3 {
		t.Fatalf("expected clue giver at 3 points, got %d", got)
	}

	record := room.Game.History[0]
	if record.Round != 1 || record.TargetIndex != target || record.CuerPoints != 3 {
		t.Fatalf("unexpected round record: %+v", record)
	}
	if len(record.Clues) != 2 {
		t.Fatalf("expected both clues recorded, got %v", record.Clues)
	}
}

func TestNextRoundGatingAndRotation(t *testing.T) {
	srv := New(nil, testConfig())
	sessions := []*session{newTestSession(), newTestSession(), newTestSession()}
	created, err := srv.createRoom(sessions[0], "Ada", Settings{Rounds: 2})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	code := created.Code
	for i, name := range []string{"Ben", "Clara"} {
		if _, err := srv.joinRoom(sessions[i+1], code, name, ""); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := srv.setReady(sessions[i+1], code, true); err != nil {
			t.Fatalf("ready: %v", err)
		}
	}

	if err := srv.nextRound(sessions[0], code); !errors.Is(err, ErrNoActiveGame) {
		t.Fatalf("expected ErrNoActiveGame, got %v", err)
	}
	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.nextRound(sessions[0], code); !errors.Is(err, ErrRoundNotComplete) {
		t.Fatalf("expected ErrRoundNotComplete, got %v", err)
	}

	room := mustRoom(t, srv, code)
	playRound(t, srv, code, sessions, 0)

	if err := srv.nextRound(sessions[1], code); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := srv.nextRound(sessions[0], code); err != nil {
		t.Fatalf("next round: %v", err)
	}

	game := room.Game
	if game.CurrentRound != 2 || game.CurrentPhase != 1 || game.State != stateAwaitingTarget {
		t.Fatalf("unexpected round 2 state: round=%d phase=%d state=%s", game.CurrentRound, game.CurrentPhase, game.State)
	}
	if game.TurnIndex != 1 {
		t.Fatalf("expected clue giver rotated to Ben, got turn index %d", game.TurnIndex)
	}
	if game.Card.Target != -1 || len(game.Guesses) != 0 || len(game.RoundClues) != 0 {
		t.Fatalf("expected fresh round state")
	}
}

// playRound drives both phases of the current round to completion with the
// player at clueGiver giving clues and everyone else guessing the target.
func playRound(t *testing.T, srv *Server, code string, sessions []*session, clueGiver int) {
	t.Helper()
	room := mustRoom(t, srv, code)
	if err := srv.selectTarget(sessions[clueGiver], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	target := room.Game.Card.Target
	for _, clue := range []string{"crimson", "dark red"} {
		if err := srv.submitClue(sessions[clueGiver], code, clue); err != nil {
			t.Fatalf("submit clue %q: %v", clue, err)
		}
		for i, sess := range sessions {
			if i == clueGiver {
				continue
			}
			if err := srv.placeGuess(sess, code, target); err != nil {
				t.Fatalf("place guess: %v", err)
			}
		}
	}
	if room.Game.State != stateRoundComplete {
		t.Fatalf("expected round complete, got %s", room.Game.State)
	}
}

func TestGuesserLeavingCompletesPhase(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, 0); err != nil {
		t.Fatalf("place guess: %v", err)
	}

	srv.leaveRoom(sessions[2], code)

	room := mustRoom(t, srv, code)
	if room.Game.CurrentPhase != 2 || room.Game.State != stateAwaitingClue {
		t.Fatalf("expected departure to close the phase, got phase %d state %s", room.Game.CurrentPhase, room.Game.State)
	}
}

func TestClueGiverDisconnectRoundStillResolves(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	room := mustRoom(t, srv, code)
	target := room.Game.Card.Target

	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, target); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.placeGuess(sessions[2], code, target); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "dark red"); err != nil {
		t.Fatalf("submit phase-two clue: %v", err)
	}

	// The clue giver drops after the phase-two clue; their seat is held
	// and the remaining guessers carry the round home without them.
	srv.handleDisconnect(sessions[0])

	if err := srv.placeGuess(sessions[1], code, target); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.placeGuess(sessions[2], code, indexWithScore(t, target, 2)); err != nil {
		t.Fatalf("place guess: %v", err)
	}

	if room.Game.State != stateRoundComplete {
		t.Fatalf("expected round complete, got %s", room.Game.State)
	}
	ada := &room.Players[0]
	if ada.Connected {
		t.Fatalf("expected clue giver still marked disconnected")
	}
	// Ben 2 bullseyes, Clara one bullseye and one two-pointer: four
	// scoring cones credited to the absent clue giver.
	if ada.Score != 4 {
		t.Fatalf("expected disconnected clue giver at 4 points, got %d", ada.Score)
	}
	record := room.Game.History[0]
	if record.ClueGiver != "Ada" || record.CuerPoints != 4 {
		t.Fatalf("unexpected round record: %+v", record)
	}
}

func TestPromotedClueGiverKeepsEarlierConeScores(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	room := mustRoom(t, srv, code)
	target := room.Game.Card.Target

	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, target); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.placeGuess(sessions[2], code, indexWithScore(t, target, 0)); err != nil {
		t.Fatalf("place guess: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "dark red"); err != nil {
		t.Fatalf("submit phase-two clue: %v", err)
	}
	if err := srv.placeGuess(sessions[1], code, target); err != nil {
		t.Fatalf("place guess: %v", err)
	}

	// Ada leaves mid guessing; Ben inherits the clue giver seat and the
	// departure closes the phase. Ben's cones from earlier in the round
	// must still score.
	srv.leaveRoom(sessions[0], code)

	if room.Game.State != stateRoundComplete {
		t.Fatalf("expected round complete, got %s", room.Game.State)
	}
	if room.clueGiver().Name != "Ben" {
		t.Fatalf("expected Ben promoted to clue giver, got %s", room.clueGiver().Name)
	}
	ben := &room.Players[0]
	// Two bullseyes plus the clue giver credit for his own scoring cones.
	if ben.Score != 8 {
		t.Fatalf("expected Ben at 8 points, got %d", ben.Score)
	}
	record := room.Game.History[0]
	if record.ClueGiver != "Ben" || record.CuerPoints != 2 {
		t.Fatalf("unexpected round record: %+v", record)
	}
	if len(record.Results) != 2 {
		t.Fatalf("expected both guessers' cones in the record, got %+v", record.Results)
	}
}

func TestGuessDeadlineAutoFills(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}
	room := mustRoom(t, srv, code)
	if err := srv.placeGuess(sessions[1], code, 7); err != nil {
		t.Fatalf("place guess: %v", err)
	}

	srv.handleGuessDeadline(code, "crimson", 1, 1)

	if room.Game.CurrentPhase != 2 || room.Game.State != stateAwaitingClue {
		t.Fatalf("expected deadline to close the phase, got phase %d state %s", room.Game.CurrentPhase, room.Game.State)
	}
	benCone := room.Game.Guesses[room.Players[1].UserID].Cone1
	claraCone := room.Game.Guesses[room.Players[2].UserID].Cone1
	if benCone == nil || *benCone != 7 {
		t.Fatalf("expected Ben's own guess preserved")
	}
	if claraCone == nil || *claraCone != palette.Center() {
		t.Fatalf("expected Clara auto-filled with the palette center")
	}
}

func TestStaleDeadlineIsNoOp(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if err := srv.selectTarget(sessions[0], code, 0); err != nil {
		t.Fatalf("select target: %v", err)
	}
	if err := srv.submitClue(sessions[0], code, "crimson"); err != nil {
		t.Fatalf("submit clue: %v", err)
	}

	room := mustRoom(t, srv, code)

	// Wrong clue tag: the timer was armed for a clue that has since been
	// replaced, so firing must change nothing.
	srv.handleGuessDeadline(code, "scarlet", 1, 1)
	if room.Game.State != stateAwaitingGuesses || room.Game.CurrentPhase != 1 {
		t.Fatalf("stale deadline mutated the game: phase %d state %s", room.Game.CurrentPhase, room.Game.State)
	}

	// Wrong round tag.
	srv.handleGuessDeadline(code, "crimson", 1, 2)
	if room.Game.State != stateAwaitingGuesses {
		t.Fatalf("stale deadline mutated the game")
	}

	// Unknown room is swallowed.
	srv.handleGuessDeadline("NOSUCH", "crimson", 1, 1)
}

func TestStalePhasePauseIsNoOp(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}

	room := mustRoom(t, srv, code)
	srv.handlePhasePause(code, 1)
	if room.Game.State != stateAwaitingTarget || room.Game.CurrentPhase != 1 {
		t.Fatalf("stale pause mutated the game: phase %d state %s", room.Game.CurrentPhase, room.Game.State)
	}
}

func TestGameOverResetsRoomToLobby(t *testing.T) {
	srv := New(nil, testConfig())
	code, sessions := setupRoom(t, srv, "Ada", "Ben", "Clara")

	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	playRound(t, srv, code, sessions, 0)

	if err := srv.nextRound(sessions[0], code); err != nil {
		t.Fatalf("next round: %v", err)
	}

	room := mustRoom(t, srv, code)
	if room.Game != nil {
		t.Fatalf("expected game cleared after the final round")
	}
	for i := range room.Players {
		p := &room.Players[i]
		if p.Score != 0 {
			t.Fatalf("expected %s score reset, got %d", p.Name, p.Score)
		}
		if i > 0 && p.Ready {
			t.Fatalf("expected %s unready after game over", p.Name)
		}
	}

	// The room is immediately startable again once everyone readies up.
	for _, sess := range sessions[1:] {
		if err := srv.setReady(sess, code, true); err != nil {
			t.Fatalf("ready: %v", err)
		}
	}
	if err := srv.startGame(sessions[0], code); err != nil {
		t.Fatalf("restart game: %v", err)
	}
	if room.Game == nil || room.Game.CurrentRound != 1 {
		t.Fatalf("expected a fresh game")
	}
}
