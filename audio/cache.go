package audio

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"example.com/parentator/assets"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Cache hands out one Sound per URL and decodes WAV data in the background.
type Cache struct {
	mu     sync.RWMutex
	sounds map[string]*Sound
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		sounds: make(map[string]*Sound),
		logger: logger,
	}
}

// Load returns immediately. Failures are logged and leave the handle silent.
func (c *Cache) Load(url string) *Sound {
	c.mu.RLock()
	if s, ok := c.sounds[url]; ok {
		c.mu.RUnlock()
		return s
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if s, ok := c.sounds[url]; ok {
		return s
	}

	s := NewSound(url)
	c.sounds[url] = s

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		buf, err := decode(url)
		if err != nil {
			c.logger.Warn("sound unavailable", "url", url, "err", err)
		}
		s.finish(buf, err)
	}()

	return s
}

// Wait blocks until every background decode started so far has finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sounds)
}

func decode(url string) (*beep.Buffer, error) {
	path, ok := assets.LocalPath(url)
	if !ok {
		return nil, fmt.Errorf("unsupported sound location '%s'", url)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sound: %w", err)
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode wav '%s': %w", path, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("read wav '%s': %w", path, err)
	}

	return buf, nil
}
