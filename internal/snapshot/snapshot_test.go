package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponmiso/tsundoku-server/internal/entities"
)

type fakeStore struct {
	values map[string]string
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (s *fakeStore) Get(key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.values[key], nil
}

func (s *fakeStore) Set(key, value string) error {
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

func intPtr(v int) *int { return &v }

func TestPublishFiltersToUnread(t *testing.T) {
	store := newFakeStore()
	publisher := NewPublisher(store)

	books := []entities.Book{
		{Title: "Unread one", CurrentPage: intPtr(10), MaxPage: intPtr(100)},
		{Title: "Already read", IsRead: true},
		{Title: "Unread two"},
	}
	require.NoError(t, publisher.Publish(books))

	loaded := NewReader(store).Load()
	require.Len(t, loaded, 2)
	assert.Equal(t, "Unread one", loaded[0].Title)
	assert.Equal(t, "Unread two", loaded[1].Title)
	assert.Equal(t, "10 %", loaded[0].ProgressText())
	assert.Equal(t, "---", loaded[1].ProgressText())
}

func TestPublishEmptySet(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, NewPublisher(store).Publish(nil))

	// An explicit empty list, not a missing slot.
	assert.Equal(t, "[]", store.values[entities.SettingKeyUnreadBooks])
	assert.Empty(t, NewReader(store).Load())
}

func TestPublishCarriesImageRef(t *testing.T) {
	store := newFakeStore()

	book := entities.Book{Title: "With cover"}
	book.SetImage(entities.RemoteImage{URL: "https://example.com/c.jpg"})
	require.NoError(t, NewPublisher(store).Publish([]entities.Book{book}))

	loaded := NewReader(store).Load()
	require.Len(t, loaded, 1)
	img, ok := loaded[0].Image().(entities.RemoteImage)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/c.jpg", img.URL)
}

func TestLoadToleratesAbsence(t *testing.T) {
	assert.Empty(t, NewReader(newFakeStore()).Load())
}

func TestLoadToleratesMalformedPayload(t *testing.T) {
	store := newFakeStore()
	store.values[entities.SettingKeyUnreadBooks] = "{not json"
	assert.Empty(t, NewReader(store).Load())
}

func TestLoadToleratesStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("store offline")
	assert.Empty(t, NewReader(store).Load())
}

func TestPublishSurfacesStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("store offline")
	assert.Error(t, NewPublisher(store).Publish([]entities.Book{{Title: "x"}}))
}
