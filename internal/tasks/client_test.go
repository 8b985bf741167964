package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	executed := make(chan string, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	})
	client.Register(queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(TestTask{Value: "hello"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestPrefetchCoverTaskConfig(t *testing.T) {
	task := PrefetchCoverTask{BookID: 123, CoverURL: "https://example.com/cover.jpg"}
	cfg := task.Config()

	assert.Equal(t, "prefetch_cover", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 1*time.Minute, cfg.Timeout)
}

type fakeFetcher struct {
	calls []uint
	urls  []string
	err   error
}

func (f *fakeFetcher) GetCover(ctx context.Context, bookID uint, coverURL string) (string, error) {
	f.calls = append(f.calls, bookID)
	f.urls = append(f.urls, coverURL)
	if f.err != nil {
		return "", f.err
	}
	return "/cache/cover.jpg", nil
}

func TestPrefetchCoverProcessor(t *testing.T) {
	fetcher := &fakeFetcher{}
	processor := PrefetchCoverProcessor(fetcher)

	err := processor(context.Background(), PrefetchCoverTask{
		BookID:   7,
		CoverURL: "https://example.com/cover.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, fetcher.calls)
	assert.Equal(t, []string{"https://example.com/cover.jpg"}, fetcher.urls)
}

func TestPrefetchCoverProcessorSkipsEmptyURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	processor := PrefetchCoverProcessor(fetcher)

	err := processor(context.Background(), PrefetchCoverTask{BookID: 7})
	require.NoError(t, err)
	assert.Empty(t, fetcher.calls)
}

func TestPrefetchCoverProcessorPropagatesFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("host unreachable")}
	processor := PrefetchCoverProcessor(fetcher)

	err := processor(context.Background(), PrefetchCoverTask{
		BookID:   7,
		CoverURL: "https://example.com/cover.jpg",
	})
	assert.Error(t, err)
}

func TestPrefetchCoverProcessorNilFetcher(t *testing.T) {
	processor := PrefetchCoverProcessor(nil)

	err := processor(context.Background(), PrefetchCoverTask{
		BookID:   7,
		CoverURL: "https://example.com/cover.jpg",
	})
	assert.Error(t, err)
}
