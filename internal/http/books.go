package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ponmiso/tsundoku-server/internal/entities"
	"github.com/ponmiso/tsundoku-server/internal/services"
)

// BookWorkflow is the slice of the book service the books controller needs.
type BookWorkflow interface {
	AddBook(ctx context.Context, input services.BookInput) (*entities.Book, error)
	UpdateBook(ctx context.Context, id uint, input services.BookInput) (*entities.Book, error)
	DeleteBook(ctx context.Context, id uint) error
	GetBook(id uint) (*entities.Book, error)
	ListBooks(query string) ([]entities.Book, error)
}

type BooksController struct {
	workflow BookWorkflow
}

func NewBooksController(workflow BookWorkflow) *BooksController {
	return &BooksController{workflow: workflow}
}

// BookRequest is the JSON body for create and update.
type BookRequest struct {
	Title       string `json:"title"`
	IsRead      bool   `json:"is_read"`
	CurrentPage *int   `json:"current_page"`
	MaxPage     *int   `json:"max_page"`

	// ImageKind is "url" or "file"; ImageRef is the URL or staged path.
	// Both empty means no image.
	ImageKind string `json:"image_kind"`
	ImageRef  string `json:"image_ref"`

	// WithoutImage commits the book without touching the image, used as
	// the fallback after a failed image promotion.
	WithoutImage bool `json:"without_image"`
}

func (r BookRequest) toInput() services.BookInput {
	return services.BookInput{
		Title:        r.Title,
		IsRead:       r.IsRead,
		CurrentPage:  r.CurrentPage,
		MaxPage:      r.MaxPage,
		Image:        entities.DecodeImage(r.ImageKind, r.ImageRef),
		WithoutImage: r.WithoutImage,
	}
}

// BookResponse is the JSON shape for a single book.
type BookResponse struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	IsRead       bool   `json:"is_read"`
	CurrentPage  *int   `json:"current_page"`
	MaxPage      *int   `json:"max_page"`
	ProgressText string `json:"progress_text"`
	ImageKind    string `json:"image_kind,omitempty"`
	ImageRef     string `json:"image_ref,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func toBookResponse(book *entities.Book) BookResponse {
	return BookResponse{
		ID:           book.ID,
		Title:        book.Title,
		IsRead:       book.IsRead,
		CurrentPage:  book.CurrentPage,
		MaxPage:      book.MaxPage,
		ProgressText: entities.ProgressText(book.CurrentPage, book.MaxPage),
		ImageKind:    book.ImageKind,
		ImageRef:     book.ImageRef,
		CreatedAt:    book.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    book.UpdatedAt.Format(time.RFC3339),
	}
}

// GetAllBooks lists books, newest update first. An optional q parameter
// filters by title substring.
// GET /api/books
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	books, err := controller.workflow.ListBooks(c.Query("q"))
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	responses := make([]BookResponse, 0, len(books))
	for i := range books {
		responses = append(responses, toBookResponse(&books[i]))
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": responses, "count": len(responses)})
}

// GetBook returns one book.
// GET /api/books/:id
func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.workflow.GetBook(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, toBookResponse(book))
}

// CreateBook commits a new book.
// POST /api/books
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := controller.workflow.AddBook(c.Request.Context(), req.toInput())
	if err != nil {
		respondWorkflowError(c, err, "create book")
		return
	}
	c.IndentedJSON(http.StatusCreated, toBookResponse(book))
}

// UpdateBook commits edits to an existing book.
// PUT /api/books/:id
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := controller.workflow.UpdateBook(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondWorkflowError(c, err, "update book")
		return
	}
	c.IndentedJSON(http.StatusOK, toBookResponse(book))
}

// DeleteBook removes a book and its local cover file.
// DELETE /api/books/:id
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.workflow.DeleteBook(c.Request.Context(), id); err != nil {
		respondWorkflowError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Book deleted"})
}

// respondWorkflowError maps book workflow errors onto HTTP statuses. The
// image promotion code tells clients the save-without-image retry is
// available; the persistence message matches what the user should do.
func respondWorkflowError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, services.ErrTitleRequired):
		respondBadRequest(c, "title is required")
	case errors.Is(err, services.ErrPageOverflow):
		respondBadRequest(c, "current page exceeds max page")
	case errors.Is(err, services.ErrImagePromotion):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "could not store the cover image",
			Code:  "image_promotion_failed",
		})
	case errors.Is(err, services.ErrPersistence):
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "could not save the book, restart the app and try again",
			Code:  "persistence_failed",
		})
	default:
		respondInternalError(c, err, context)
	}
}
