package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// SettingKeyUnreadBooks holds the JSON-encoded unread snapshot consumed
	// by the widget process.
	SettingKeyUnreadBooks = "unread_books"

	// SettingKeySnapshotPublishedAt records when the snapshot was last written.
	SettingKeySnapshotPublishedAt = "unread_books_published_at"
)
