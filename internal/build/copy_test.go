package build

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"index.php":        "<?php",
		"a/b/c/deep.php":   "deep",
		"assets/style.css": "body{}",
	})
	require.NoError(t, os.Mkdir(filepath.Join(src, "empty"), 0o755))
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink("index.php", filepath.Join(src, "link.php")))
	}

	dst := filepath.Join(t.TempDir(), "app")
	n, err := copyTree(context.Background(), src, dst, "", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(filepath.Join(dst, "a", "b", "c", "deep.php"))
	require.NoError(t, err)
	assert.Equal(t, "deep", string(data))
	assert.DirExists(t, filepath.Join(dst, "empty"))

	if runtime.GOOS != "windows" {
		target, err := os.Readlink(filepath.Join(dst, "link.php"))
		require.NoError(t, err)
		assert.Equal(t, "index.php", target)
	}
}

func TestCopyTreeMissingSource(t *testing.T) {
	_, err := copyTree(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), "", 1)
	assert.Error(t, err)
}

func TestCopyTreeSourceIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "index.php")
	require.NoError(t, os.WriteFile(file, []byte("<?php"), 0o644))
	_, err := copyTree(context.Background(), file, t.TempDir(), "", 1)
	assert.Error(t, err)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			defer unlock()
			n := active.Add(1)
			if n > maxActive.Load() {
				maxActive.Store(n)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive.Load())

	// Different keys do not block each other.
	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		k.Lock("b")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()

	k.mu.Lock()
	assert.Empty(t, k.locks)
	k.mu.Unlock()
}
