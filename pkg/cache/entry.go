package cache

import "time"

// Entry represents a cached catalog response.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag,omitempty"`

	// Expires is when the entry stops being served without revalidation
	Expires time.Time `json:"expires"`

	// LastModified from the response, used for If-Modified-Since
	LastModified time.Time `json:"last_modified,omitempty"`

	// StatusCode of the cached response
	StatusCode int `json:"status_code"`

	// CachedAt is when the response was stored
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true once the entry needs revalidation.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the remaining freshness, 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
