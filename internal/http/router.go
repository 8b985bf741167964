package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Create controllers with appropriate interfaces
	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.BookWorkflow)
	lookupController := NewLookupController(cfg.BookLookup)

	var coversController *CoversController
	if cfg.ImageResolver != nil {
		coversController = NewCoversController(cfg.CoverCache, cfg.ImageResolver, cfg.BookWorkflow)
	}
	var imagesController *ImagesController
	if cfg.ImageStager != nil {
		imagesController = NewImagesController(cfg.ImageStager)
	}
	var widgetController *WidgetController
	if cfg.SnapshotReader != nil {
		widgetController = NewWidgetController(cfg.SnapshotReader)
	}

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	router.GET("/api/books", booksController.GetAllBooks)
	router.POST("/api/books", booksController.CreateBook)
	router.GET("/api/books/:id", booksController.GetBook)
	router.PUT("/api/books/:id", booksController.UpdateBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)

	// Barcode lookup endpoint
	router.GET("/api/lookup", lookupController.Lookup)

	// Book cover endpoint
	if coversController != nil {
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// Photo staging endpoint
	if imagesController != nil {
		router.POST("/api/images", imagesController.StageImage)
	}

	// Widget snapshot endpoint
	if widgetController != nil {
		router.GET("/api/widget/unread", widgetController.GetUnread)
	}

	return router
}
