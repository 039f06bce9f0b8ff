package toc

import (
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTagCacheSize is number of distinct document contents remembered by
// TagCache when no size is configured.
const DefaultTagCacheSize = 1024

// TagCache memoizes ExtractTags by exact document content. Documents with
// identical text (templates, stubs) are scanned once.
type TagCache struct {
	cache *lru.Cache[[sha256.Size]byte, Tags]
}

func NewTagCache(size int) (*TagCache, error) {
	if size <= 0 {
		size = DefaultTagCacheSize
	}
	cache, err := lru.New[[sha256.Size]byte, Tags](size)
	if err != nil {
		return nil, fmt.Errorf("unable to create tag cache: %w", err)
	}
	return &TagCache{cache: cache}, nil
}

// Extract returns tags for the document content, scanning it only when the
// same content was not seen before.
func (c *TagCache) Extract(data []byte) Tags {
	if c == nil {
		return ExtractTags(string(data))
	}
	key := sha256.Sum256(data)
	if tags, ok := c.cache.Get(key); ok {
		return tags
	}
	tags := ExtractTags(string(data))
	c.cache.Add(key, tags)
	return tags
}

// Len returns number of cached entries.
func (c *TagCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
