package server

import (
	"encoding/json"
	"log"

	"hues-and-cues/internal/db"
	"hues-and-cues/internal/palette"

	"gorm.io/datatypes"
)

// persistGameHistory pushes a finished game into the write-behind sink.
// It runs off the room's lock with copied data; a failure is logged and
// otherwise ignored, because live sessions never read this table.
func (s *Server) persistGameHistory(roomCode, winner string, scores []ScoreEntry, history []RoundRecord) {
	if s.db == nil {
		return
	}
	record := db.GameHistory{
		RoomCode: roomCode,
		Winner:   winner,
		Rounds:   len(history),
	}
	for _, entry := range scores {
		record.Players = append(record.Players, db.PlayerResult{
			Name:  entry.Name,
			Score: entry.Score,
		})
	}
	for _, round := range history {
		clues, err := json.Marshal(round.Clues)
		if err != nil {
			log.Printf("marshal round clues failed room=%s round=%d error=%v", roomCode, round.Round, err)
			continue
		}
		results, err := json.Marshal(round.Results)
		if err != nil {
			log.Printf("marshal round results failed room=%s round=%d error=%v", roomCode, round.Round, err)
			continue
		}
		record.History = append(record.History, db.RoundHistory{
			Number:      round.Round,
			ClueGiver:   round.ClueGiver,
			TargetIndex: round.TargetIndex,
			TargetColor: palette.Color(round.TargetIndex),
			Clues:       datatypes.JSON(clues),
			Results:     datatypes.JSON(results),
		})
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Printf("persist game history failed room=%s error=%v", roomCode, err)
		return
	}
	log.Printf("game history persisted room=%s winner=%s id=%d", roomCode, winner, record.ID)
}
