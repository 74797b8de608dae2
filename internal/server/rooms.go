package server

import (
	"log"
	"time"
)

const maxChatHistory = 200

type CreateRoomResult struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
}

type JoinRoomResult struct {
	UserID      string           `json:"userId"`
	Reconnected bool             `json:"reconnected"`
	RoomState   RoomStatePayload `json:"roomState"`
	Chat        []ChatMessage    `json:"chat,omitempty"`
}

type RoomStateResult struct {
	RoomState RoomStatePayload  `json:"roomState"`
	GameState *GameStatePayload `json:"gameState,omitempty"`
	ClueGiver string            `json:"clueGiver,omitempty"`
}

func (s *Server) createRoom(sess *session, name string, settings Settings) (CreateRoomResult, error) {
	cleanName, err := validateName(name)
	if err != nil {
		return CreateRoomResult{}, err
	}
	room := s.registry.Create(sess.connID, cleanName, s.clampSettings(settings))
	result := CreateRoomResult{Code: room.Code, UserID: room.Players[0].UserID}

	_ = s.withRoom(room.Code, func(room *Room) error {
		s.hub.subscribe(sess, room.Code)
		sess.room = room.Code
		room.emit(evRoomState, room.roomState())
		return nil
	})
	log.Printf("room created room=%s host=%s", room.Code, cleanName)
	return result, nil
}

func (s *Server) joinRoom(sess *session, code, name, userID string) (JoinRoomResult, error) {
	cleanName, err := validateName(name)
	if err != nil {
		return JoinRoomResult{}, err
	}
	var result JoinRoomResult
	err = s.withRoom(code, func(room *Room) error {
		if player, _ := room.findByUser(userID); player != nil {
			s.reconnectPlayer(room, sess, player)
			result = JoinRoomResult{
				UserID:      player.UserID,
				Reconnected: true,
				RoomState:   room.roomState(),
				Chat:        recentChat(room),
			}
			return nil
		}

		if room.nameTaken(cleanName) {
			return ErrNameTaken
		}
		if len(room.Players) >= room.Settings.MaxPlayers {
			return ErrRoomFull
		}
		uid := userID
		if uid == "" {
			uid = newUserID()
		}
		room.Players = append(room.Players, Player{
			ConnID:    sess.connID,
			UserID:    uid,
			Name:      cleanName,
			Connected: true,
		})
		s.hub.subscribe(sess, room.Code)
		sess.room = room.Code
		room.emit(evRoomState, room.roomState())
		room.systemNotice(cleanName + " joined the room")

		result = JoinRoomResult{
			UserID:    uid,
			RoomState: room.roomState(),
			Chat:      recentChat(room),
		}
		log.Printf("player joined room=%s player=%s", room.Code, cleanName)
		return nil
	})
	return result, err
}

// reconnectPlayer rebinds a returning player to their new connection and
// replays the private game snapshot they missed: current game state, the
// active clue, and the secret target if they are the clue giver.
func (s *Server) reconnectPlayer(room *Room, sess *session, player *Player) {
	if room.HostID == player.ConnID {
		room.HostID = sess.connID
	}
	player.ConnID = sess.connID
	player.Connected = true
	player.DisconnectedAt = time.Time{}
	s.cancelTimer(graceKey(room.Code, player.UserID))

	s.hub.subscribe(sess, room.Code)
	sess.room = room.Code
	room.emit(evRoomState, room.roomState())
	room.systemNotice(player.Name + " reconnected")

	if game := room.Game; game != nil {
		room.emitTo(sess.connID, evGameStarted, GameStartedPayload{
			GameState:   room.gameState(),
			ClueGiver:   room.clueGiver().Name,
			ClueGiverID: room.clueGiver().ConnID,
		})
		if room.clueGiver().ConnID == sess.connID && game.Card.Target >= 0 {
			room.emitTo(sess.connID, evTargetRevealed, targetRevealed(game))
		}
		if game.CurrentClue != "" {
			room.emitTo(sess.connID, evClueGiven, ClueGivenPayload{
				Clue:      game.CurrentClue,
				Phase:     game.CurrentPhase,
				ClueGiver: room.clueGiver().Name,
				Deadline:  game.GuessDeadline,
			})
		}
	}
	log.Printf("player reconnected room=%s player=%s", room.Code, player.Name)
}

func (s *Server) setReady(sess *session, code string, ready bool) error {
	return s.withRoom(code, func(room *Room) error {
		player, _ := room.findByConn(sess.connID)
		if player == nil {
			return ErrPlayerNotFound
		}
		player.Ready = ready
		room.emit(evRoomState, room.roomState())
		return nil
	})
}

func (s *Server) getRoomState(code string) (RoomStateResult, error) {
	var result RoomStateResult
	err := s.withRoom(code, func(room *Room) error {
		result.RoomState = room.roomState()
		if room.Game != nil {
			state := room.gameState()
			result.GameState = &state
			result.ClueGiver = room.clueGiver().Name
		}
		return nil
	})
	return result, err
}

func (s *Server) chat(sess *session, code, message string) error {
	cleanMessage, err := validateChat(message)
	if err != nil {
		return err
	}
	return s.withRoom(code, func(room *Room) error {
		player, _ := room.findByConn(sess.connID)
		if player == nil {
			return ErrPlayerNotFound
		}
		msg := ChatMessage{
			Type:       chatTypePlayer,
			PlayerName: player.Name,
			Message:    cleanMessage,
			Timestamp:  time.Now().UTC(),
		}
		room.Chat = appendChat(room.Chat, msg)
		room.emit(evChatMessage, msg)
		return nil
	})
}

// leaveRoom removes the sender immediately. Best effort: an unknown room
// or player is not an error.
func (s *Server) leaveRoom(sess *session, code string) {
	_ = s.withRoom(code, func(room *Room) error {
		if _, index := room.findByConn(sess.connID); index >= 0 {
			s.dropPlayer(room, index)
		}
		return nil
	})
	s.hub.unsubscribe(sess)
	sess.room = ""
}

// handleDisconnect marks the player as disconnected and starts the grace
// window instead of removing them, so a page refresh or a flaky network
// does not cost them their seat mid-game.
func (s *Server) handleDisconnect(sess *session) {
	code := sess.room
	s.hub.remove(sess)
	if code == "" {
		return
	}
	_ = s.withRoom(code, func(room *Room) error {
		player, _ := room.findByConn(sess.connID)
		if player == nil || !player.Connected {
			return nil
		}
		player.Connected = false
		player.DisconnectedAt = time.Now().UTC()
		room.emit(evRoomState, room.roomState())
		room.systemNotice(player.Name + " disconnected")
		s.scheduleGraceRemoval(room.Code, player.UserID)
		log.Printf("player disconnected room=%s player=%s", room.Code, player.Name)
		return nil
	})
}

// dropPlayer performs the actual removal: host promotion, the turn-index
// fallback to the first player when the departing clue giver's slot no
// longer exists, and a completion check when the departure shrinks the
// set of required guessers.
func (s *Server) dropPlayer(room *Room, index int) {
	player := room.Players[index]
	room.Players = append(room.Players[:index], room.Players[index+1:]...)
	s.cancelTimer(graceKey(room.Code, player.UserID))

	if len(room.Players) == 0 {
		log.Printf("room emptied room=%s", room.Code)
		return
	}
	if room.HostID == player.ConnID {
		room.HostID = room.Players[0].ConnID
		room.systemNotice(room.Players[0].Name + " is now the host")
	}
	room.emit(evRoomState, room.roomState())
	room.systemNotice(player.Name + " left the room")
	log.Printf("player left room=%s player=%s", room.Code, player.Name)

	if game := room.Game; game != nil {
		if game.TurnIndex >= len(room.Players) {
			game.TurnIndex = 0
		}
		if game.State == stateAwaitingGuesses {
			s.maybeCompletePhase(room)
		}
	}
}

func (r *Room) systemNotice(message string) {
	msg := ChatMessage{
		Type:      chatTypeSystem,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	r.Chat = appendChat(r.Chat, msg)
	r.emit(evChatMessage, msg)
}

func appendChat(chat []ChatMessage, msg ChatMessage) []ChatMessage {
	chat = append(chat, msg)
	if len(chat) > maxChatHistory {
		chat = chat[len(chat)-maxChatHistory:]
	}
	return chat
}

func recentChat(room *Room) []ChatMessage {
	const replay = 50
	if len(room.Chat) <= replay {
		return append([]ChatMessage(nil), room.Chat...)
	}
	return append([]ChatMessage(nil), room.Chat[len(room.Chat)-replay:]...)
}
