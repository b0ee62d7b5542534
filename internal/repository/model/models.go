package model

import "time"

// Session is one persisted session record. The full record, with roster,
// document, chat, cursors and signals, is kept as JSON in Data.
type Session struct {
	ID        string    `gorm:"size:64;primaryKey"`
	JoinCode  string    `gorm:"size:64;uniqueIndex;not null"`
	CreatorID string    `gorm:"size:255;index;not null"`
	Title     string    `gorm:"size:255"`
	IsActive  bool      `gorm:"index;not null"`
	Version   int64     `gorm:"not null"`
	Data      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	EndedAt   *time.Time
}

func (Session) TableName() string {
	return "sessions"
}
