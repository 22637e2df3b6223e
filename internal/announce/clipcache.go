package announce

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"codeberg.org/snonux/bingobg/internal"
	"golang.org/x/sync/singleflight"
)

// LoadTimeout bounds how long a single clip may take to load
const LoadTimeout = 2500 * time.Millisecond

// ClipFormats are tried in order for every number
var ClipFormats = []string{"mp3", "wav"}

// Clip is a loaded, playable clip file
type Clip struct {
	Number int
	Format string
	Path   string
	Size   int64
}

// ClipCache remembers per number either a loaded clip or that none exists.
// The source is a local directory or an http(s) base URL.
type ClipCache struct {
	source  string
	timeout time.Duration
	client  *http.Client

	mu      sync.Mutex
	entries map[int]*Clip
	tmpDir  string
	group   singleflight.Group
}

// NewClipCache creates a cache reading clips from source
func NewClipCache(source string, timeout time.Duration) *ClipCache {
	if timeout <= 0 {
		timeout = LoadTimeout
	}
	return &ClipCache{
		source:  strings.TrimSpace(source),
		timeout: timeout,
		client:  &http.Client{},
		entries: make(map[int]*Clip),
	}
}

// Lookup returns the cached result for n. known is false when n has not
// been loaded yet; a known nil clip means no clip exists.
func (c *ClipCache) Lookup(n int) (clip *Clip, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip, known = c.entries[n]
	return clip, known
}

// Load fetches the clip for n, trying each of ClipFormats within the load
// timeout. Concurrent loads of the same number share one fetch; a caller
// whose ctx ends stops waiting without failing the others. The outcome is
// cached either way.
func (c *ClipCache) Load(ctx context.Context, n int) (*Clip, error) {
	if clip, known := c.Lookup(n); known {
		if clip == nil {
			return nil, fmt.Errorf("%w %d", ErrNoClip, n)
		}
		return clip, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The shared fetch must not die with whichever caller started it; each
	// format is still bounded by the load timeout.
	ch := c.group.DoChan(strconv.Itoa(n), func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), n)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Clip), nil
	}
}

func (c *ClipCache) load(ctx context.Context, n int) (*Clip, error) {
	if c.source == "" {
		c.store(n, nil)
		return nil, fmt.Errorf("%w %d: no clip source", ErrNoClip, n)
	}

	var errs []string
	for _, format := range ClipFormats {
		loadCtx, cancel := context.WithTimeout(ctx, c.timeout)
		clip, err := c.fetch(loadCtx, n, format)
		cancel()

		if err == nil {
			c.store(n, clip)
			return clip, nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", format, err))
	}

	c.store(n, nil)
	return nil, fmt.Errorf("%w %d (%s)", ErrNoClip, n, strings.Join(errs, "; "))
}

func (c *ClipCache) store(n int, clip *Clip) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[n] = clip
}

// Forget drops every cached result
func (c *ClipCache) Forget() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]*Clip)
}

// Close removes clips downloaded from a remote source
func (c *ClipCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tmpDir == "" {
		return nil
	}
	err := os.RemoveAll(c.tmpDir)
	c.tmpDir = ""
	return err
}

func (c *ClipCache) remote() bool {
	return strings.HasPrefix(c.source, "http://") || strings.HasPrefix(c.source, "https://")
}

func (c *ClipCache) fetch(ctx context.Context, n int, format string) (*Clip, error) {
	name := internal.ClipFileName(n, format)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	type result struct {
		clip *Clip
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var clip *Clip
		var err error
		if c.remote() {
			clip, err = c.fetchRemote(ctx, n, format, name)
		} else {
			clip, err = c.fetchLocal(n, format, filepath.Join(c.source, name))
		}
		done <- result{clip, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("loading %s: %w", name, ctx.Err())
	case r := <-done:
		return r.clip, r.err
	}
}

func (c *ClipCache) fetchLocal(n int, format, path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := checkClip(data, format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Clip{Number: n, Format: format, Path: path, Size: int64(len(data))}, nil
}

func (c *ClipCache) fetchRemote(ctx context.Context, n int, format, name string) (*Clip, error) {
	clipURL, err := url.JoinPath(c.source, name)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clipURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", clipURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := checkClip(data, format); err != nil {
		return nil, fmt.Errorf("%s: %w", clipURL, err)
	}

	dir, err := c.downloadDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, err
	}

	return &Clip{Number: n, Format: format, Path: path, Size: int64(len(data))}, nil
}

func (c *ClipCache) downloadDir() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tmpDir != "" {
		return c.tmpDir, nil
	}
	dir, err := os.MkdirTemp("", "bingobg-clips-")
	if err != nil {
		return "", fmt.Errorf("failed to create clip download directory: %w", err)
	}
	c.tmpDir = dir
	return dir, nil
}

// checkClip rejects data that cannot be a clip of the given format
func checkClip(data []byte, format string) error {
	if len(data) == 0 {
		return fmt.Errorf("empty clip")
	}

	switch format {
	case "wav":
		if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
			return fmt.Errorf("not a WAVE file")
		}
	case "mp3":
		id3 := bytes.HasPrefix(data, []byte("ID3"))
		frameSync := len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
		if !id3 && !frameSync {
			return fmt.Errorf("not an MP3 file")
		}
	}

	return nil
}
