// Package snapshot publishes a cross-process copy of the unread backlog.
// The main app rewrites the slot whenever the unread set changes; the widget
// process reads it on its own cadence and must tolerate staleness.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ponmiso/tsundoku-server/internal/entities"
)

// KeyValueStore is the shared slot both processes can reach. The settings
// repository satisfies it in production; tests use an in-memory fake.
type KeyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// UnreadBook is the value-type projection of an unread book. It carries no
// live-store ownership, only what the widget renders.
type UnreadBook struct {
	Title       string    `json:"title"`
	CurrentPage *int      `json:"current_page,omitempty"`
	MaxPage     *int      `json:"max_page,omitempty"`
	ImageKind   string    `json:"image_kind,omitempty"`
	ImageRef    string    `json:"image_ref,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// ProgressText renders progress the same way the main app's lists do.
func (b UnreadBook) ProgressText() string {
	return entities.ProgressText(b.CurrentPage, b.MaxPage)
}

// Image reconstructs the tagged image reference, nil when absent.
func (b UnreadBook) Image() entities.BookImage {
	return entities.DecodeImage(b.ImageKind, b.ImageRef)
}

func project(book *entities.Book) UnreadBook {
	return UnreadBook{
		Title:       book.Title,
		CurrentPage: book.CurrentPage,
		MaxPage:     book.MaxPage,
		ImageKind:   book.ImageKind,
		ImageRef:    book.ImageRef,
		Created:     book.CreatedAt,
		Updated:     book.UpdatedAt,
	}
}

// Publisher writes the unread snapshot into the shared slot.
type Publisher struct {
	store KeyValueStore
}

func NewPublisher(store KeyValueStore) *Publisher {
	return &Publisher{store: store}
}

// Publish filters books to the unread set, projects them to value copies and
// writes the JSON-encoded sequence. Input order is preserved, so passing a
// list already sorted by last update keeps the widget's ordering consistent.
func (p *Publisher) Publish(books []entities.Book) error {
	unread := make([]UnreadBook, 0, len(books))
	for i := range books {
		if books[i].IsUnread() {
			unread = append(unread, project(&books[i]))
		}
	}

	data, err := json.Marshal(unread)
	if err != nil {
		return fmt.Errorf("encode unread snapshot: %w", err)
	}

	if err := p.store.Set(entities.SettingKeyUnreadBooks, string(data)); err != nil {
		return fmt.Errorf("write unread snapshot: %w", err)
	}

	// The timestamp is informational; its failure must not fail the publish.
	_ = p.store.Set(entities.SettingKeySnapshotPublishedAt, time.Now().Format(time.RFC3339))

	return nil
}

// Reader is the widget-side consumer of the snapshot slot.
type Reader struct {
	store KeyValueStore
}

func NewReader(store KeyValueStore) *Reader {
	return &Reader{store: store}
}

// Load returns the published unread books. The snapshot is best-effort: an
// absent slot, a read failure or a malformed payload all load as empty.
func (r *Reader) Load() []UnreadBook {
	value, err := r.store.Get(entities.SettingKeyUnreadBooks)
	if err != nil || value == "" {
		return nil
	}

	var books []UnreadBook
	if err := json.Unmarshal([]byte(value), &books); err != nil {
		return nil
	}
	return books
}
