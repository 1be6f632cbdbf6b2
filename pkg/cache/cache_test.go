package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mergeerr "github.com/matzehuels/nativemerge/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want nil, false, nil", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestFileCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get(missing) hit, want miss")
	}
	if err := c.Set(ctx, "k", []byte(`{"a":"libfoo.so"}`), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v; want hit", hit, err)
	}
	if string(data) != `{"a":"libfoo.so"}` {
		t.Errorf("Get() = %s", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() after Delete hit, want miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestFileCache_ExpiredAndCorruptEntriesMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry hit, want miss")
	}

	if err := os.MkdirAll(filepath.Dir(c.path("bad")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path("bad"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry = %v, %v; want miss", hit, err)
	}
	if _, err := os.Stat(c.path("bad")); !errors.Is(err, os.ErrNotExist) {
		t.Error("corrupt entry was not removed")
	}
}

func TestFileCache_Clear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	entries, err := os.ReadDir(c.Dir())
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear() left %d entries", len(entries))
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	buf := []byte("one")
	_ = c.Set(ctx, "1", buf, 0)
	buf[0] = 'X'
	got, hit, _ := c.Get(ctx, "1")
	if !hit || string(got) != "one" {
		t.Errorf("Get(1) = %q, %v; want stored copy", got, hit)
	}

	_ = c.Set(ctx, "2", []byte("two"), time.Minute)
	_ = c.Set(ctx, "3", []byte("three"), 0)
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "1"); hit {
		t.Error("least recently used entry survived eviction")
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "2"); hit {
		t.Error("expired entry hit, want miss")
	}
	if _, hit, _ := c.Get(ctx, "3"); !hit {
		t.Error("entry without ttl expired")
	}
}

func TestRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "memcached://nope")
	if !mergeerr.Is(err, mergeerr.ErrCodeInvalidConfig) {
		t.Errorf("NewRedisCache() error = %v, want INVALID_CONFIG", err)
	}
}

func TestRedisCache_Unreachable(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 100 * time.Millisecond })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0")
	if !mergeerr.Is(err, mergeerr.ErrCodeCacheUnavailable) {
		t.Errorf("NewRedisCache() error = %v, want CACHE_UNAVAILABLE", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash() is not deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Hash() collides for different inputs")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(h1))
	}
}

func TestFingerprint(t *testing.T) {
	f1, err := Fingerprint([]byte(`{"a":"libfoo.so"}`))
	if err != nil {
		t.Fatalf("Fingerprint() error = %v", err)
	}
	f2, _ := Fingerprint([]byte(`{"a":"libfoo.so"}`))
	f3, _ := Fingerprint([]byte(`{"a":"libbar.so"}`))
	if f1 != f2 {
		t.Errorf("Fingerprint() = %s then %s, want equal", f1, f2)
	}
	if f1 == f3 {
		t.Error("Fingerprint() collides for different mappings")
	}
	if len(f1) != 16 {
		t.Errorf("len(Fingerprint()) = %d, want 16", len(f1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := k.ResultKey("arm64", "cfg1", "graph1")
	if !strings.HasPrefix(base, "result:") {
		t.Errorf("ResultKey() = %s, want result: prefix", base)
	}
	if base != k.ResultKey("arm64", "cfg1", "graph1") {
		t.Error("ResultKey() is not deterministic")
	}
	for _, other := range []string{
		k.ResultKey("x86_64", "cfg1", "graph1"),
		k.ResultKey("arm64", "cfg2", "graph1"),
		k.ResultKey("arm64", "cfg1", "graph2"),
	} {
		if other == base {
			t.Errorf("ResultKey() = %s for different inputs", other)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
	got := scoped.ResultKey("arm64", "c", "g")
	want := "v1.2.0:" + NewDefaultKeyer().ResultKey("arm64", "c", "g")
	if got != want {
		t.Errorf("ResultKey() = %s, want %s", got, want)
	}

	fallback := NewScopedKeyer(nil, "p:").ResultKey("a", "b", "c")
	if want := "p:" + (DefaultKeyer{}).ResultKey("a", "b", "c"); fallback != want {
		t.Errorf("ResultKey() with nil inner = %s, want %s", fallback, want)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	err := Retryable(ErrUnavailable)
	if !IsRetryable(err) {
		t.Error("IsRetryable(Retryable(err)) = false")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error() = %s, want %s", err, ErrUnavailable)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Error("Retryable does not unwrap")
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable(plain) = true")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 100 * time.Millisecond })
	ctx := context.Background()
	stop := errors.New("stop")

	tests := []struct {
		name      string
		fail      int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"success", 0, nil, 1, nil},
		{"non-retryable", 5, stop, 1, stop},
		{"retry once", 1, Retryable(ErrUnavailable), 2, nil},
		{"give up", 5, Retryable(ErrUnavailable), 3, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.fail {
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RetryWithBackoff() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("RetryWithBackoff() = %v, want context.Canceled", err)
	}
}
