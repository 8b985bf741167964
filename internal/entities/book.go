package entities

import (
	"fmt"
	"time"
)

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index;size:512" json:"title"`
	IsRead      bool      `gorm:"default:false" json:"is_read"`
	CurrentPage *int      `json:"current_page,omitempty"`
	MaxPage     *int      `json:"max_page,omitempty"`
	ImageKind   string    `gorm:"size:10" json:"image_kind,omitempty"`
	ImageRef    string    `gorm:"size:2048" json:"image_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) IsUnread() bool {
	return !b.IsRead
}

// Image reconstructs the tagged image reference from the persisted columns.
// Returns nil when the book has no image.
func (b *Book) Image() BookImage {
	return DecodeImage(b.ImageKind, b.ImageRef)
}

// SetImage writes the image reference into the persisted columns.
// Passing nil clears the image.
func (b *Book) SetImage(img BookImage) {
	b.ImageKind, b.ImageRef = EncodeImage(img)
}

// ProgressText renders the book's reading progress the way the lists and the
// widget show it: "N %" when both page fields are known and current does not
// exceed max, "---" otherwise.
func (b *Book) ProgressText() string {
	return ProgressText(b.CurrentPage, b.MaxPage)
}

// ProgressText is the shared progress rendering used by Book and the unread
// snapshot projection. Truncates toward zero, matching integer percent.
func ProgressText(currentPage, maxPage *int) string {
	if currentPage == nil || maxPage == nil || *maxPage <= 0 {
		return "---"
	}
	if *currentPage > *maxPage {
		return "---"
	}
	return fmt.Sprintf("%d %%", *currentPage*100 / *maxPage)
}
