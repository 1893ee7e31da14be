// internal/store/models.go
//
// gorm models for the reference backend.
package store

import "time"

// User is a session holder. Anonymous users are created by POST /session.
type User struct {
	ID        string `gorm:"primaryKey"`
	Anonymous bool
	CreatedAt time.Time
}

// Discovery records the first time an element was produced by anyone.
type Discovery struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;not null"` // element.ID of the name
	Element   string `gorm:"not null"`
	Emoji     string
	UserID    string `gorm:"index"`
	CreatedAt time.Time
}

// DailyResult is one user's completion of one daily puzzle.
type DailyResult struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"uniqueIndex:idx_daily_user_date;not null"`
	PuzzleDate       string `gorm:"uniqueIndex:idx_daily_user_date;not null"`
	PuzzleNumber     int
	ElapsedTime      int
	MovesCount       int
	ParMoves         int
	NewDiscoveries   int
	FirstDiscoveries int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Score is a leaderboard row; one per game, date and user.
type Score struct {
	ID         uint   `gorm:"primaryKey"`
	GameType   string `gorm:"uniqueIndex:idx_score_game_date_user;not null"`
	PuzzleDate string `gorm:"uniqueIndex:idx_score_game_date_user;index:idx_score_board;not null"`
	UserID     string `gorm:"uniqueIndex:idx_score_game_date_user;not null"`
	Score      int    `gorm:"index:idx_score_board"`
	Metadata   string // JSON object
	CreatedAt  time.Time
}

// Slot is one creative save slot; Data holds the JSON save.
type Slot struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"uniqueIndex:idx_slot_user_number;not null"`
	SlotNumber int    `gorm:"uniqueIndex:idx_slot_user_number;not null"`
	Name       string
	Data       string
	UpdatedAt  time.Time
}
