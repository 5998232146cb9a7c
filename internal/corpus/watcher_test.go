package corpus

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsDebouncedChanges(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "replies.kdl")
	writeFile(t, path, `response "hello" "Hi"`)

	w, err := NewWatcher(root, []string{"*.kdl"}, 50*time.Millisecond, nil)
	require.NoError(t, err)

	var mu sync.Mutex
	var batches [][]string
	changed := make(chan struct{}, 4)
	w.OnChange(func(paths []string) {
		mu.Lock()
		batches = append(batches, paths)
		mu.Unlock()
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`response "hello" "Hi again"`), 0o644))
	}
	// ignored: wrong extension
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, batches)
	assert.Equal(t, []string{path}, batches[0])
	assert.GreaterOrEqual(t, w.Stats().Batches, int64(1))
}

func TestWatcherStopWithPendingEvents(t *testing.T) {
	root := t.TempDir()

	w, err := NewWatcher(root, nil, time.Hour, nil)
	require.NoError(t, err)
	w.OnChange(func([]string) { t.Error("flush must not run after stop") })

	require.NoError(t, w.Start())
	w.debouncer.addEvent(filepath.Join(root, "pending.kdl"))
	require.NoError(t, w.Stop())
}

func TestWatcherStartMissingRoot(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing"), nil, time.Millisecond, nil)
	require.NoError(t, err)

	assert.Error(t, w.Start())
	require.NoError(t, w.Stop())
}

func TestShouldProcessPath(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, []string{"replies/**/*.toml"}, time.Millisecond, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.True(t, w.shouldProcessPath(filepath.Join(root, "replies", "en", "a.toml")))
	assert.False(t, w.shouldProcessPath(filepath.Join(root, "replies", "en", "a.kdl")))
	assert.False(t, w.shouldProcessPath(filepath.Join(root, "a.toml")))
}
