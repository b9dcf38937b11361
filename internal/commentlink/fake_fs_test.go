package commentlink

import (
	"context"
	"errors"
	"sync"
)

// fakeFS is an in-memory FileSystem keyed by normalized path.
type fakeFS struct {
	mu       sync.Mutex
	lines    map[string]int
	failures map[string]error
	blocking map[string]bool
	calls    []string
}

func newFakeFS(files map[string]int) *fakeFS {
	return &fakeFS{lines: files, failures: map[string]error{}, blocking: map[string]bool{}}
}

func (f *fakeFS) FileExists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	block := f.blocking[path]
	err := f.failures[path]
	_, ok := f.lines[path]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return false, ctx.Err()
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (f *fakeFS) LineCount(_ context.Context, path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.lines[path]
	if !ok {
		return 0, errors.New("no such file")
	}
	if n < 0 {
		return 0, errors.New("read failed")
	}
	return n, nil
}

func (f *fakeFS) checked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
