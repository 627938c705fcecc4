package upstream

import (
	"net/url"
	"strconv"
)

// Sort orders for marketplace searches. The upstream accepts only this set.
type Sort string

const (
	SortRecent    Sort = "recent"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortPopular   Sort = "popular"
)

var validSorts = map[Sort]bool{
	SortRecent:    true,
	SortPriceAsc:  true,
	SortPriceDesc: true,
	SortPopular:   true,
}

// Size bounds for a single search page.
const (
	MinSize     = 1
	MaxSize     = 100
	DefaultSize = 30
)

// Query holds the normalized parameters of a product search.
type Query struct {
	Size         int
	Q            string
	Cursor       string
	Sort         Sort
	CategoryID   string
	BrandID      string
	MinPrice     *int
	MaxPrice     *int
	FreeShipping bool
}

// ParseQuery builds a Query from raw inbound parameters, applying the
// clamping and coercion rules of the storefront contract:
//
//   - size clamped to [1,100], defaulting when absent or non-numeric
//   - sort must be one of the known orders, else dropped
//   - min/max price parsed to integers; non-numeric values and the literal
//     placeholder "undefined" are treated as absent
//   - freeShipping is true only for the literal string "true"
func ParseQuery(values url.Values) Query {
	q := Query{
		Size:         DefaultSize,
		Q:            values.Get("q"),
		Cursor:       values.Get("cursor"),
		CategoryID:   values.Get("categoryId"),
		BrandID:      values.Get("brandId"),
		MinPrice:     parsePrice(values.Get("minPrice")),
		MaxPrice:     parsePrice(values.Get("maxPrice")),
		FreeShipping: values.Get("freeShipping") == "true",
	}

	if size, err := strconv.Atoi(values.Get("size")); err == nil {
		q.Size = clampSize(size)
	}

	if sort := Sort(values.Get("sort")); validSorts[sort] {
		q.Sort = sort
	}

	return q
}

func clampSize(size int) int {
	if size < MinSize {
		return MinSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// parsePrice returns nil for absent, non-numeric, or placeholder values.
func parsePrice(raw string) *int {
	if raw == "" || raw == "undefined" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

// Values renders the query as upstream request parameters. Only set fields
// are included, so the canonical cache key derived from it is stable.
func (q Query) Values() url.Values {
	values := url.Values{}
	values.Set("size", strconv.Itoa(q.Size))

	if q.Q != "" {
		values.Set("q", q.Q)
	}
	if q.Cursor != "" {
		values.Set("cursor", q.Cursor)
	}
	if q.Sort != "" {
		values.Set("sort", string(q.Sort))
	}
	if q.CategoryID != "" {
		values.Set("categoryId", q.CategoryID)
	}
	if q.BrandID != "" {
		values.Set("brandId", q.BrandID)
	}
	if q.MinPrice != nil {
		values.Set("minPrice", strconv.Itoa(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		values.Set("maxPrice", strconv.Itoa(*q.MaxPrice))
	}
	if q.FreeShipping {
		values.Set("freeShipping", "true")
	}

	return values
}
