// Package books provides database operations for the book backlog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123)
package books

import (
	"gorm.io/gorm"

	"github.com/ponmiso/tsundoku-server/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a new book.
func (r *Repository) CreateBook(book *entities.Book) error {
	return r.db.Create(book).Error
}

// SaveBook writes all fields of an existing book inside a transaction, so a
// failed commit leaves the stored record untouched.
func (r *Repository) SaveBook(book *entities.Book) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Save(book).Error
	})
}

// GetBookByID retrieves a single book.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks returns every book, most recently updated first. That is the
// order both list screens and the widget snapshot use.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("updated_at DESC").Find(&books).Error
	return books, err
}

// SearchBooks returns books whose title contains the query (case-insensitive),
// most recently updated first. An empty query matches everything.
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	if query == "" {
		return r.GetAllBooks()
	}
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.Where("LOWER(title) LIKE LOWER(?)", pattern).
		Order("updated_at DESC").Find(&books).Error
	return books, err
}

// GetUnreadBooks returns the unread set, most recently updated first.
func (r *Repository) GetUnreadBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Where("is_read = ?", false).Order("updated_at DESC").Find(&books).Error
	return books, err
}

// DeleteBook removes a book. Image file cleanup is the caller's concern;
// this layer only touches rows.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// CountBooks returns total and unread book counts.
func (r *Repository) CountBooks() (total int64, unread int64, err error) {
	err = r.db.Model(&entities.Book{}).Count(&total).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Book{}).Where("is_read = ?", false).Count(&unread).Error
	return
}
