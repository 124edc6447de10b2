package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "catalog"

// Key identifies a cached catalog response.
type Key struct {
	// Endpoint is the catalog path, e.g. "/albums/gd1977-05-08"
	Endpoint string

	// Query are the request query parameters
	Query url.Values
}

// String generates a deterministic key.
//
// Example:
//
//	catalog:albums:limit=2:offset=0:sort=identifier
func (k Key) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(k.Query[name], ",")))
		}
	}

	return strings.Join(parts, ":")
}
