package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ponmiso/tsundoku-server/internal/snapshot"
)

// SnapshotReader loads the published unread snapshot.
type SnapshotReader interface {
	Load() []snapshot.UnreadBook
}

// WidgetController serves the unread snapshot to widget-style consumers.
// It reads only the published snapshot, never the books table, so it keeps
// working even when the main store is mid-migration or locked.
type WidgetController struct {
	reader SnapshotReader
}

func NewWidgetController(reader SnapshotReader) *WidgetController {
	return &WidgetController{reader: reader}
}

// UnreadEntry is the widget JSON shape for one unread book.
type UnreadEntry struct {
	Title        string `json:"title"`
	ProgressText string `json:"progress_text"`
	ImageKind    string `json:"image_kind,omitempty"`
	ImageRef     string `json:"image_ref,omitempty"`
}

// defaultUnreadLimit caps the widget list, which renders only the first few
// unread books.
const defaultUnreadLimit = 5

// GetUnread returns the published unread snapshot, capped at the widget's
// display size unless a limit parameter overrides it (limit=0 returns all).
// A missing or unreadable snapshot yields an empty list, not an error.
// GET /api/widget/unread
func (controller *WidgetController) GetUnread(c *gin.Context) {
	books := controller.reader.Load()

	limit := defaultUnreadLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondBadRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}

	entries := make([]UnreadEntry, 0, len(books))
	for _, book := range books {
		entries = append(entries, UnreadEntry{
			Title:        book.Title,
			ProgressText: book.ProgressText(),
			ImageKind:    book.ImageKind,
			ImageRef:     book.ImageRef,
		})
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": entries, "count": len(entries)})
}
