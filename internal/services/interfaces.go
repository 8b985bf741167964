package services

import (
	"context"

	"github.com/ponmiso/tsundoku-server/internal/entities"
	"github.com/ponmiso/tsundoku-server/internal/metadata"
)

// BookStore is the persistence surface the workflow needs. The books
// repository implements it.
type BookStore interface {
	CreateBook(book *entities.Book) error
	SaveBook(book *entities.Book) error
	GetBookByID(id uint) (*entities.Book, error)
	GetAllBooks() ([]entities.Book, error)
	SearchBooks(query string) ([]entities.Book, error)
	DeleteBook(id uint) error
}

// MetadataResolver fetches normalized book metadata for a validated ISBN-13.
type MetadataResolver interface {
	Resolve(ctx context.Context, isbn13 string) (*metadata.BookMetadata, error)
}

// ImageStore manages cover image files: staging, promotion into permanent
// storage and best-effort cleanup.
type ImageStore interface {
	StashTemporary(data []byte) (string, error)
	Promote(tempPath string) (string, error)
	ResolveExisting(path string) (string, bool)
	Remove(path string)
}

// SnapshotPublisher republishes the unread snapshot for the widget process.
type SnapshotPublisher interface {
	Publish(books []entities.Book) error
}

// CoverInvalidator drops cached remote covers when a book's cover changes
// or the book goes away.
type CoverInvalidator interface {
	Invalidate(bookID uint) error
}

// CoverPrefetcher queues a background download of a remote cover so the
// first list render doesn't block on the image host.
type CoverPrefetcher interface {
	PrefetchCover(bookID uint, coverURL string)
}
