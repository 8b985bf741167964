package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ponmiso/tsundoku-server/internal/entities"
	"github.com/ponmiso/tsundoku-server/internal/isbn"
	"github.com/ponmiso/tsundoku-server/internal/metadata"
	"github.com/ponmiso/tsundoku-server/internal/services"
)

// BookLookup is the slice of the book service the lookup controller needs.
type BookLookup interface {
	Lookup(ctx context.Context, code string) (*services.LookupResult, error)
}

type LookupController struct {
	lookup BookLookup
}

func NewLookupController(lookup BookLookup) *LookupController {
	return &LookupController{lookup: lookup}
}

// LookupResponse prefills an add form from resolved metadata.
type LookupResponse struct {
	Title       string   `json:"title"`
	CurrentPage *int     `json:"current_page,omitempty"`
	MaxPage     *int     `json:"max_page,omitempty"`
	ImageKind   string   `json:"image_kind,omitempty"`
	ImageRef    string   `json:"image_ref,omitempty"`
	Description string   `json:"description,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Publisher   string   `json:"publisher,omitempty"`
	Label       string   `json:"label,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	ISBN13      string   `json:"isbn13"`
}

// Lookup resolves an ISBN barcode into form prefill data.
// GET /api/lookup?code=9784...
func (controller *LookupController) Lookup(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		respondBadRequest(c, "code query parameter is required")
		return
	}

	result, err := controller.lookup.Lookup(c.Request.Context(), code)
	if err != nil {
		respondLookupError(c, err)
		return
	}

	resp := LookupResponse{
		Title:       result.Title,
		CurrentPage: result.CurrentPage,
		MaxPage:     result.MaxPage,
	}
	resp.ImageKind, resp.ImageRef = entities.EncodeImage(result.Image)
	if md := result.Metadata; md != nil {
		resp.Description = md.Description
		resp.Authors = md.Authors
		resp.Publisher = md.Publisher
		resp.Label = md.Label
		resp.ISBN13 = md.ISBN13
		if md.PublishDate != nil {
			resp.PublishDate = md.PublishDate.Format("2006-01-02")
		}
	}
	c.IndentedJSON(http.StatusOK, resp)
}

func respondLookupError(c *gin.Context, err error) {
	var invalidCode *isbn.InvalidCodeError
	switch {
	case errors.As(err, &invalidCode):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "invalid_isbn",
		})
	case errors.Is(err, metadata.ErrBookNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "no book found for this code",
			Code:  "book_not_found",
		})
	case errors.Is(err, services.ErrLookupInFlight):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "a lookup is already in progress",
			Code:  "lookup_in_flight",
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "lookup cancelled"})
	default:
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "metadata service unavailable",
			Code:  "lookup_failed",
		})
	}
}
