package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	ops      []string
	retries  int
	failures int
}

func (r *recordingObserver) ObserveOperation(op string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingObserver) ObserveRetryAttempt(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
}

func (r *recordingObserver) ObserveRetryFailure(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE error", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT error", syscall.ENOENT, false},
		{"generic error", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(file, []byte("data"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"existing file", file, true},
		{"existing directory", dir, true},
		{"missing file", filepath.Join(dir, "missing.mp4"), false},
		{"empty path", "", false},
		{"remote URL", "https://example.com/clip.mp4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Exists(tt.path); got != tt.want {
				t.Errorf("Exists(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestWithRetry_RetriesStaleHandles(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	config := RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	calls := 0
	got, err := withRetry("stat", "/nfs/file", config, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, syscall.ESTALE
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("withRetry() error: %v", err)
	}
	if got != 42 {
		t.Errorf("withRetry() = %d, want 42", got)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if obs.retries != 2 {
		t.Errorf("retries observed = %d, want 2", obs.retries)
	}
	if obs.failures != 0 {
		t.Errorf("failures observed = %d, want 0", obs.failures)
	}
	if len(obs.ops) != 1 || obs.ops[0] != "stat" {
		t.Errorf("operations observed = %v, want [stat]", obs.ops)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	config := RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

	calls := 0
	_, err := withRetry("open", "/nfs/file", config, func() (int, error) {
		calls++
		return 0, syscall.ESTALE
	})

	if !errors.Is(err, syscall.ESTALE) {
		t.Errorf("withRetry() error = %v, want ESTALE", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", calls)
	}
	if obs.failures != 1 {
		t.Errorf("failures observed = %d, want 1", obs.failures)
	}
}

func TestWithRetry_NonStaleFailsImmediately(t *testing.T) {
	calls := 0
	_, err := withRetry("stat", "/missing", DefaultRetryConfig(), func() (int, error) {
		calls++
		return 0, syscall.ENOENT
	})

	if !errors.Is(err, syscall.ENOENT) {
		t.Errorf("withRetry() error = %v, want ENOENT", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "frame.png")
	if err := os.WriteFile(file, []byte("png"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	f, err := OpenWithRetry(file, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("OpenWithRetry() error: %v", err)
	}
	f.Close()

	if _, err := OpenWithRetry(filepath.Join(dir, "nope"), DefaultRetryConfig()); !os.IsNotExist(err) {
		t.Errorf("OpenWithRetry(missing) error = %v, want not-exist", err)
	}
}
