package upstream

import (
	"github.com/storebridge/market-gateway/pkg/normalize"
)

// SearchResponse is the raw marketplace search payload.
type SearchResponse struct {
	Products   []normalize.RawProduct `json:"products"`
	NextCursor string                 `json:"nextCursor,omitempty"`
	Total      int                    `json:"total,omitempty"`
}

// ProductResponse is the raw marketplace single-product payload.
type ProductResponse struct {
	Product normalize.RawProduct `json:"product"`
}
