package proxy

import (
	"context"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"longwave/internal/tts"
)

// AudioCache is a content-addressed in-memory cache of synthesized audio.
// Identical markup with the same voice and encoding produces the same
// audio, so repeat requests (the broadcast replays the same warning lines
// often) are served without an upstream call. Concurrent misses for the
// same key are coalesced into a single upstream request.
type AudioCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	order      []string // insertion order for eviction
	maxEntries int
	ttl        time.Duration
	nowFn      func() time.Time

	group singleflight.Group
}

type cacheEntry struct {
	resp     *tts.SynthesizeResponse
	expireAt time.Time
}

// NewAudioCache creates a cache holding at most maxEntries responses, each
// valid for ttl. A maxEntries of zero disables storage; lookups then always
// miss but coalescing still applies.
func NewAudioCache(maxEntries int, ttl time.Duration) *AudioCache {
	return &AudioCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		nowFn:      time.Now,
	}
}

// CacheKey derives the content address for a synthesis request: a
// blake2b-256 digest over the markup, voice, and audio settings.
func CacheKey(req tts.SynthesizeRequest) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(req.Input.SSML))
	h.Write([]byte{0})
	h.Write([]byte(req.Voice.LanguageCode))
	h.Write([]byte{0})
	h.Write([]byte(req.Voice.Name))
	h.Write([]byte{0})
	h.Write([]byte(req.AudioConfig.AudioEncoding))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.AudioConfig.SampleRateHertz)))
	return hex.EncodeToString(h.Sum(nil))
}

// GetOrFill returns the cached response for the request, or runs fill to
// produce one, stores it, and returns it. Concurrent callers with the same
// key share a single fill execution. The boolean reports a cache hit.
func (c *AudioCache) GetOrFill(ctx context.Context, req tts.SynthesizeRequest, fill func(context.Context) (*tts.SynthesizeResponse, error)) (*tts.SynthesizeResponse, bool, error) {
	key := CacheKey(req)

	if resp, ok := c.get(key); ok {
		return resp, true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A coalesced waiter may arrive after the first caller stored
		// the entry; check again under the flight.
		if resp, ok := c.get(key); ok {
			return resp, nil
		}
		resp, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		c.put(key, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*tts.SynthesizeResponse), false, nil
}

func (c *AudioCache) get(key string) (*tts.SynthesizeResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.nowFn().After(e.expireAt) {
		c.remove(key)
		return nil, false
	}
	return e.resp, true
}

func (c *AudioCache) put(key string, resp *tts.SynthesizeResponse) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key].resp = resp
		c.entries[key].expireAt = c.nowFn().Add(c.ttl)
		return
	}

	// Evict oldest entries until there is room.
	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.entries[key] = &cacheEntry{resp: resp, expireAt: c.nowFn().Add(c.ttl)}
	c.order = append(c.order, key)
}

// remove deletes a key from the map and the order slice. Called with the
// lock held.
func (c *AudioCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of live entries.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
