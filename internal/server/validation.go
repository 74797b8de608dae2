package server

import (
	"fmt"
	"strings"
)

const (
	maxNameLength = 20
	maxClueLength = 60
	maxChatLength = 280
)

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateClue(text string) (string, error) {
	return validateText("clue", text, maxClueLength)
}

func validateChat(text string) (string, error) {
	return validateText("message", text, maxChatLength)
}

func validateText(field, value string, maxLength int) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if len(trimmed) > maxLength {
		return "", fmt.Errorf("%s must be at most %d characters", field, maxLength)
	}
	return trimmed, nil
}

// clampSettings fills defaults and bounds user-supplied room settings.
func (s *Server) clampSettings(settings Settings) Settings {
	if settings.MaxPlayers <= 0 {
		settings.MaxPlayers = s.cfg.DefaultMaxPlayers
	}
	if settings.MaxPlayers < s.cfg.MinPlayers {
		settings.MaxPlayers = s.cfg.MinPlayers
	}
	if settings.MaxPlayers > s.cfg.MaxRoomPlayers {
		settings.MaxPlayers = s.cfg.MaxRoomPlayers
	}
	if settings.Rounds <= 0 {
		settings.Rounds = s.cfg.DefaultRounds
	}
	if settings.Rounds > s.cfg.MaxRoundsPerGame {
		settings.Rounds = s.cfg.MaxRoundsPerGame
	}
	return settings
}
