// Package services orchestrates the add/edit/delete workflows: validation,
// metadata lookup, image promotion and the repository commit, in that order.
package services

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/ponmiso/tsundoku-server/internal/entities"
	"github.com/ponmiso/tsundoku-server/internal/isbn"
	"github.com/ponmiso/tsundoku-server/internal/metadata"
)

// BookService runs the book workflows against injected collaborators.
// One instance corresponds to one logical workflow surface; the lookup
// single-flight guard is per instance, so independent screens don't block
// each other.
type BookService struct {
	store     BookStore
	resolver  MetadataResolver
	images    ImageStore
	publisher SnapshotPublisher

	coverInvalidator CoverInvalidator
	coverPrefetcher  CoverPrefetcher

	resolving atomic.Bool
}

// NewBookService creates a workflow service.
func NewBookService(store BookStore, resolver MetadataResolver, images ImageStore, publisher SnapshotPublisher) *BookService {
	return &BookService{
		store:     store,
		resolver:  resolver,
		images:    images,
		publisher: publisher,
	}
}

// SetCoverInvalidator sets the cover cache invalidator (optional).
func (s *BookService) SetCoverInvalidator(invalidator CoverInvalidator) {
	s.coverInvalidator = invalidator
}

// SetCoverPrefetcher sets the background cover prefetcher (optional).
func (s *BookService) SetCoverPrefetcher(prefetcher CoverPrefetcher) {
	s.coverPrefetcher = prefetcher
}

// LookupResult prefills the add form after a successful ISBN resolution.
type LookupResult struct {
	Title       string                 `json:"title"`
	CurrentPage *int                   `json:"current_page,omitempty"`
	MaxPage     *int                   `json:"max_page,omitempty"`
	Image       entities.BookImage     `json:"-"`
	Metadata    *metadata.BookMetadata `json:"metadata"`
}

// Lookup validates a scanned or typed code and resolves it against the
// metadata service. While one lookup is in flight, further calls return
// ErrLookupInFlight without touching the network, so rapid re-scans don't
// fan out into duplicate requests.
func (s *BookService) Lookup(ctx context.Context, code string) (*LookupResult, error) {
	isbn13, err := isbn.Validate(code)
	if err != nil {
		return nil, err
	}

	if !s.resolving.CompareAndSwap(false, true) {
		return nil, ErrLookupInFlight
	}
	defer s.resolving.Store(false)

	md, err := s.resolver.Resolve(ctx, isbn13)
	if err != nil {
		return nil, err
	}

	// The screen may have been dismissed while the request was in flight;
	// a late result must be discarded, not applied.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	result := &LookupResult{
		Title:    md.Title,
		Metadata: md,
	}
	if md.PageCount != nil {
		pages := *md.PageCount
		zero := 0
		result.MaxPage = &pages
		result.CurrentPage = &zero
	}
	if md.CoverURL != "" {
		result.Image = entities.RemoteImage{URL: md.CoverURL}
	}
	return result, nil
}

// BookInput carries the form fields for an add or edit commit.
type BookInput struct {
	Title       string
	IsRead      bool
	CurrentPage *int
	MaxPage     *int

	// Image is the pending cover reference. A LocalImage pointing into the
	// temp directory is promoted during commit.
	Image entities.BookImage

	// WithoutImage is the fallback after a failed promotion: commit the
	// book and leave the image out (add) or keep the previous one (edit).
	WithoutImage bool
}

func validateInput(input BookInput) error {
	if input.Title == "" {
		return ErrTitleRequired
	}
	if input.CurrentPage != nil && input.MaxPage != nil && *input.CurrentPage > *input.MaxPage {
		return ErrPageOverflow
	}
	return nil
}

// AddBook commits a new book. A pending local image is promoted first; if
// promotion fails the commit is aborted with ErrImagePromotion so the caller
// can offer the save-without-image fallback instead of losing the form.
func (s *BookService) AddBook(ctx context.Context, input BookInput) (*entities.Book, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	img := input.Image
	if input.WithoutImage {
		img = nil
	}
	if local, ok := img.(entities.LocalImage); ok {
		promoted, err := s.images.Promote(local.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImagePromotion, err)
		}
		img = entities.LocalImage{Path: promoted}
	}

	book := &entities.Book{
		Title:       input.Title,
		IsRead:      input.IsRead,
		CurrentPage: input.CurrentPage,
		MaxPage:     input.MaxPage,
	}
	book.SetImage(img)

	if err := s.store.CreateBook(book); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.prefetchCover(book)
	s.republish(ctx)
	return book, nil
}

// UpdateBook commits edits to an existing book. When the image changed, the
// new file is promoted before the old one is deleted, so there is no window
// with neither in place. The old file's removal is best-effort.
func (s *BookService) UpdateBook(ctx context.Context, id uint, input BookInput) (*entities.Book, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	book, err := s.store.GetBookByID(id)
	if err != nil {
		return nil, fmt.Errorf("load book %d: %w", id, err)
	}

	oldImage := book.Image()
	if !input.WithoutImage && imageChanged(oldImage, input.Image) {
		img := input.Image
		if local, ok := img.(entities.LocalImage); ok {
			promoted, err := s.images.Promote(local.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrImagePromotion, err)
			}
			img = entities.LocalImage{Path: promoted}
		}
		book.SetImage(img)

		if oldLocal, ok := oldImage.(entities.LocalImage); ok {
			s.images.Remove(oldLocal.Path)
		}
		if s.coverInvalidator != nil {
			_ = s.coverInvalidator.Invalidate(id)
		}
	}

	book.Title = input.Title
	book.IsRead = input.IsRead
	book.CurrentPage = input.CurrentPage
	book.MaxPage = input.MaxPage

	if err := s.store.SaveBook(book); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.prefetchCover(book)
	s.republish(ctx)
	return book, nil
}

// DeleteBook removes a book and, for a locally stored cover, its backing
// file. Remote covers touch no files beyond the cache invalidation. File
// cleanup failures are swallowed; the row is already gone.
func (s *BookService) DeleteBook(ctx context.Context, id uint) error {
	book, err := s.store.GetBookByID(id)
	if err != nil {
		return fmt.Errorf("load book %d: %w", id, err)
	}

	if err := s.store.DeleteBook(id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if local, ok := book.Image().(entities.LocalImage); ok {
		if path, exists := s.images.ResolveExisting(local.Path); exists {
			s.images.Remove(path)
		}
	}
	if s.coverInvalidator != nil {
		_ = s.coverInvalidator.Invalidate(id)
	}

	s.republish(ctx)
	return nil
}

// GetBook returns a single book.
func (s *BookService) GetBook(id uint) (*entities.Book, error) {
	return s.store.GetBookByID(id)
}

// ListBooks returns books matching the title query, newest update first.
func (s *BookService) ListBooks(query string) ([]entities.Book, error) {
	return s.store.SearchBooks(query)
}

// RepublishSnapshot recomputes and rewrites the unread snapshot from the
// current store contents.
func (s *BookService) RepublishSnapshot() error {
	books, err := s.store.GetAllBooks()
	if err != nil {
		return fmt.Errorf("load books for snapshot: %w", err)
	}
	return s.publisher.Publish(books)
}

// republish refreshes the widget snapshot after a mutation. The snapshot is
// best-effort, so a failure is logged and the mutation still succeeds.
func (s *BookService) republish(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.RepublishSnapshot(); err != nil {
		log.Printf("Failed to republish unread snapshot: %v", err)
	}
}

func (s *BookService) prefetchCover(book *entities.Book) {
	if s.coverPrefetcher == nil {
		return
	}
	if remote, ok := book.Image().(entities.RemoteImage); ok {
		s.coverPrefetcher.PrefetchCover(book.ID, remote.URL)
	}
}

func imageChanged(before, after entities.BookImage) bool {
	beforeKind, beforeRef := entities.EncodeImage(before)
	afterKind, afterRef := entities.EncodeImage(after)
	return beforeKind != afterKind || beforeRef != afterRef
}
