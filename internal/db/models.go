package db

import (
	"time"

	"gorm.io/datatypes"
)

// GameHistory is the write-behind record of one finished game. The server
// only ever inserts these; nothing reads them back at runtime.
type GameHistory struct {
	ID        uint      `gorm:"primaryKey"`
	RoomCode  string    `gorm:"size:12;index;not null"`
	Winner    string    `gorm:"size:64"`
	Rounds    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Players   []PlayerResult
	History   []RoundHistory
}

type PlayerResult struct {
	ID            uint      `gorm:"primaryKey"`
	GameHistoryID uint      `gorm:"index;not null"`
	Name          string    `gorm:"size:64;not null"`
	Score         int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type RoundHistory struct {
	ID            uint           `gorm:"primaryKey"`
	GameHistoryID uint           `gorm:"index;not null;uniqueIndex:idx_round_history_game_number"`
	Number        int            `gorm:"not null;uniqueIndex:idx_round_history_game_number"`
	ClueGiver     string         `gorm:"size:64;not null"`
	TargetIndex   int            `gorm:"not null"`
	TargetColor   string         `gorm:"size:8;not null"`
	Clues         datatypes.JSON `gorm:"type:jsonb"`
	Results       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"not null"`
	UpdatedAt     time.Time      `gorm:"not null"`
}
