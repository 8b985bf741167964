package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponmiso/tsundoku-server/internal/snapshot"
)

type fakeSnapshotReader struct {
	books []snapshot.UnreadBook
}

func (f *fakeSnapshotReader) Load() []snapshot.UnreadBook {
	return f.books
}

func TestWidgetUnread(t *testing.T) {
	gin.SetMode(gin.TestMode)

	current, max := 30, 100
	reader := &fakeSnapshotReader{books: []snapshot.UnreadBook{
		{Title: "First", CurrentPage: &current, MaxPage: &max, ImageKind: "url", ImageRef: "https://example.com/c.jpg"},
		{Title: "Second"},
	}}
	controller := NewWidgetController(reader)

	router := gin.New()
	router.GET("/api/widget/unread", controller.GetUnread)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/widget/unread", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Books []UnreadEntry `json:"books"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, "First", response.Books[0].Title)
	assert.Equal(t, "30 %", response.Books[0].ProgressText)
	assert.Equal(t, "url", response.Books[0].ImageKind)
	assert.Equal(t, "---", response.Books[1].ProgressText)
}

func TestWidgetUnreadCapsAtLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var books []snapshot.UnreadBook
	for i := 0; i < 8; i++ {
		books = append(books, snapshot.UnreadBook{Title: "Book"})
	}
	controller := NewWidgetController(&fakeSnapshotReader{books: books})

	router := gin.New()
	router.GET("/api/widget/unread", controller.GetUnread)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/widget/unread", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 5, response.Count)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/widget/unread?limit=0", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 8, response.Count)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/widget/unread?limit=2", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
}

func TestWidgetUnreadEmptySnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)

	controller := NewWidgetController(&fakeSnapshotReader{})

	router := gin.New()
	router.GET("/api/widget/unread", controller.GetUnread)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/widget/unread", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Books []UnreadEntry `json:"books"`
		Count int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 0, response.Count)
	assert.NotNil(t, response.Books)
}

type fakeStager struct {
	data []byte
	err  error
}

func (f *fakeStager) StashTemporary(data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.data = data
	return "/tmp/photo_1.jpg", nil
}

func TestStageImage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stager := &fakeStager{}
	controller := NewImagesController(stager)

	router := gin.New()
	router.POST("/api/images", controller.StageImage)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/images", bytes.NewReader([]byte("jpeg bytes")))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "file", response["image_kind"])
	assert.Equal(t, "/tmp/photo_1.jpg", response["image_ref"])
	assert.Equal(t, []byte("jpeg bytes"), stager.data)
}

func TestStageImageRejectsEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	controller := NewImagesController(&fakeStager{})

	router := gin.New()
	router.POST("/api/images", controller.StageImage)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/images", bytes.NewReader(nil))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
