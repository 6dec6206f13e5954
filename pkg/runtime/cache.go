package runtime

import (
	"sync"
	"time"

	"sentra-hq/warden/pkg/engine"
)

// cacheKey identifies a cached verdict. The ruleset fingerprint and mode are
// part of the key, so a reload or mode change can never serve a stale
// verdict; entries for retired rulesets simply stop matching.
type cacheKey struct {
	content string
	ruleset string
	mode    engine.Mode
}

type cacheEntry struct {
	verdict *engine.Verdict
	expires time.Time
}

// VerdictCache is a TTL cache for evaluation verdicts keyed by (content
// fingerprint, ruleset fingerprint, mode).
type VerdictCache struct {
	mu         sync.Mutex
	entries    map[cacheKey]*cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewVerdictCache creates a cache holding at most maxEntries verdicts for
// ttl each.
func NewVerdictCache(ttl time.Duration, maxEntries int) *VerdictCache {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	return &VerdictCache{
		entries:    make(map[cacheKey]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached verdict for the key, or ok=false on miss or
// expiry. The returned verdict is a copy; mutating it does not affect the
// cache.
func (c *VerdictCache) Get(contentFP, rulesetFP string, mode engine.Mode) (*engine.Verdict, bool) {
	key := cacheKey{content: contentFP, ruleset: rulesetFP, mode: mode}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return cloneVerdict(entry.verdict), true
}

// Put stores a verdict for the key.
func (c *VerdictCache) Put(contentFP, rulesetFP string, mode engine.Mode, verdict *engine.Verdict) {
	key := cacheKey{content: contentFP, ruleset: rulesetFP, mode: mode}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = &cacheEntry{
		verdict: cloneVerdict(verdict),
		expires: c.now().Add(c.ttl),
	}
}

// evictLocked drops expired entries; if none expired, it drops an arbitrary
// entry so the cache never exceeds its bound.
func (c *VerdictCache) evictLocked() {
	now := c.now()
	evicted := false
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
			evicted = true
		}
	}
	if !evicted {
		for key := range c.entries {
			delete(c.entries, key)
			break
		}
	}
}

// InvalidateRuleset removes every entry cached under the given ruleset
// fingerprint. Called on ruleset swap to reclaim memory immediately.
func (c *VerdictCache) InvalidateRuleset(rulesetFP string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.ruleset == rulesetFP {
			delete(c.entries, key)
		}
	}
}

// Purge removes all entries.
func (c *VerdictCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*cacheEntry)
}

// Len returns the current number of cached entries.
func (c *VerdictCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneVerdict(v *engine.Verdict) *engine.Verdict {
	clone := *v
	if v.Violations != nil {
		clone.Violations = append([]engine.Violation(nil), v.Violations...)
	}
	return &clone
}
