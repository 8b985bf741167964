package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ponmiso/tsundoku-server/internal/entities"
)

// CoverCache downloads and caches remote covers.
type CoverCache interface {
	GetCover(ctx context.Context, bookID uint, coverURL string) (string, error)
}

// ImageResolver locates stored cover photo files.
type ImageResolver interface {
	ResolveExisting(path string) (string, bool)
}

// CoversController serves book cover images regardless of where they live:
// local photo files are served from image storage, remote covers from the
// download cache.
type CoversController struct {
	cache  CoverCache
	images ImageResolver
	books  BookWorkflow
}

func NewCoversController(cache CoverCache, images ImageResolver, books BookWorkflow) *CoversController {
	return &CoversController{
		cache:  cache,
		images: images,
		books:  books,
	}
}

// GetCover serves a book's cover image.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.books.GetBook(id)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	switch img := book.Image().(type) {
	case entities.LocalImage:
		// Stored references may predate a storage move; resolve by
		// basename before giving up.
		path, exists := cc.images.ResolveExisting(img.Path)
		if !exists {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(path)
	case entities.RemoteImage:
		if cc.cache == nil {
			c.Redirect(http.StatusTemporaryRedirect, img.URL)
			return
		}
		cachePath, err := cc.cache.GetCover(c.Request.Context(), id, img.URL)
		if err != nil || cachePath == "" {
			// Fallback: redirect to original URL
			c.Redirect(http.StatusTemporaryRedirect, img.URL)
			return
		}
		c.File(cachePath)
	default:
		c.Status(http.StatusNotFound)
	}
}
