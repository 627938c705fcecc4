package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key addresses a cached gateway response. Logically identical queries with
// differently ordered parameters must produce the same key.
type Key struct {
	// Endpoint discriminates the upstream operation (e.g. "search", "product").
	Endpoint string

	// Params are the query parameters of the inbound request.
	Params url.Values
}

// String generates a deterministic cache key string.
// Format: mkt:endpoint:param1=val1:param2=val2
//
// Example:
//
//	mkt:search:q=keyboard:size=30
func (k Key) String() string {
	parts := []string{"mkt"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Params sorted by name for determinism.
	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(k.Params[name], ",")))
		}
	}

	return strings.Join(parts, ":")
}
