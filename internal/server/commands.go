package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errMalformedCommand = errors.New("malformed command")

// command is one inbound client frame. The optional ID is echoed back in
// the ack so clients can correlate request and response.
type command struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ackPayload struct {
	Type  string `json:"type"`
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type createRoomRequest struct {
	Name     string   `json:"name"`
	Settings Settings `json:"settings"`
}

type joinRoomRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

type roomRequest struct {
	Code string `json:"code"`
}

type readyRequest struct {
	Code  string `json:"code"`
	Ready bool   `json:"ready"`
}

type selectTargetRequest struct {
	Code        string `json:"code"`
	TargetIndex int    `json:"targetIndex"`
}

type clueRequest struct {
	Code string `json:"code"`
	Clue string `json:"clue"`
}

type guessRequest struct {
	Code       string `json:"code"`
	GuessIndex int    `json:"guessIndex"`
}

type chatRequest struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// dispatch maps a command frame onto the room or game operation it names.
// The returned data, if any, rides back in the ack.
func (s *Server) dispatch(sess *session, cmd command) (any, error) {
	switch cmd.Type {
	case "create_room":
		var req createRoomRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return s.createRoom(sess, req.Name, req.Settings)
	case "join_room":
		var req joinRoomRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return s.joinRoom(sess, req.Code, req.Name, req.UserID)
	case "get_room_state":
		var req roomRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return s.getRoomState(req.Code)
	case "player_ready":
		var req readyRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return nil, s.setReady(sess, req.Code, req.Ready)
	case "start_game":
		var req roomRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return nil, s.startGame(sess, req.Code)
	case "select_target_color":
		var req selectTargetRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return nil, s.selectTarget(sess, req.Code, req.TargetIndex)
	case "send_clue":
		var req clueRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return nil, s.submitClue(sess, req.Code, req.Clue)
	case "place_guess":
		var req guessRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return nil, s.placeGuess(sess, req.Code, req.GuessIndex)
	case "chat_message":
		var req chatRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return nil, s.chat(sess, req.Code, req.Message)
	case "next_round":
		var req roomRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return nil, s.nextRound(sess, req.Code)
	case "leave_room":
		var req roomRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		s.leaveRoom(sess, req.Code)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func decode(raw json.RawMessage, dest any) error {
	if len(raw) == 0 {
		return errMalformedCommand
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errMalformedCommand
	}
	return nil
}
