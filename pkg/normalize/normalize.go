// Package normalize maps raw marketplace records into the storefront's
// canonical product schema, applying currency conversion and image-list
// expansion.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// markup is the fixed percentage added to every converted amount before
// rounding.
const markup = 1.10

// ImageCountPlaceholder is the substitutable token in upstream image URL
// templates. The upstream sends one template plus an image count instead of
// a URL list.
const ImageCountPlaceholder = "{cnt}"

// RawProduct is a product record as returned by the marketplace API.
// Optional fields may be absent and degrade to defaults during Transform.
type RawProduct struct {
	PID           string  `json:"pid"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	ShippingFee   float64 `json:"shippingFee"`
	ImageTemplate string  `json:"imageUrl,omitempty"`
	ImageCount    int     `json:"imageCount,omitempty"`
	Condition     string  `json:"condition,omitempty"`
	SaleStatus    string  `json:"saleStatus,omitempty"`
	Quantity      int     `json:"quantity,omitempty"`
	SellerUID     string  `json:"sellerUid,omitempty"`
	CreatedAt     int64   `json:"createdAt,omitempty"`
}

// Product is the storefront's canonical product shape. Immutable once
// produced by Transform.
type Product struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	PriceSource       float64  `json:"priceSource"`
	ShippingFee       float64  `json:"shippingFee"`
	ShippingFeeSource float64  `json:"shippingFeeSource"`
	Currency          string   `json:"currency"`
	Images            []string `json:"images"`
	Condition         string   `json:"condition"`
	SaleStatus        string   `json:"saleStatus"`
	Quantity          int      `json:"quantity"`
	SellerRef         string   `json:"sellerRef"`
	CreatedAt         string   `json:"createdAt"`
}

// Normalizer transforms raw marketplace records.
type Normalizer struct {
	currency string
}

// New creates a Normalizer emitting prices in the given target currency code.
func New(targetCurrency string) *Normalizer {
	return &Normalizer{currency: targetCurrency}
}

// Transform maps a raw record into the canonical schema using the given
// exchange rate. Missing optional upstream fields degrade to defaults
// (empty description, zero counts) rather than erroring.
func (n *Normalizer) Transform(raw RawProduct, rate float64) Product {
	created := ""
	if raw.CreatedAt > 0 {
		created = time.Unix(raw.CreatedAt, 0).UTC().Format(time.RFC3339)
	}

	return Product{
		ID:                raw.PID,
		Title:             raw.Name,
		Description:       raw.Description,
		Price:             Convert(raw.Price, rate),
		PriceSource:       raw.Price,
		ShippingFee:       Convert(raw.ShippingFee, rate),
		ShippingFeeSource: raw.ShippingFee,
		Currency:          n.currency,
		Images:            ExpandImages(raw.ImageTemplate, raw.ImageCount),
		Condition:         raw.Condition,
		SaleStatus:        raw.SaleStatus,
		Quantity:          raw.Quantity,
		SellerRef:         raw.SellerUID,
		CreatedAt:         created,
	}
}

// Convert applies the exchange rate and markup to a source amount:
// round2(source × rate × 1.10). A zero or absent source yields zero.
func Convert(source, rate float64) float64 {
	return Round2(source * rate * markup)
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ExpandImages produces the ordered image URL list for positions 1..count
// by substituting the count placeholder in the template. An absent template
// or a non-positive count yields an empty list.
func ExpandImages(template string, count int) []string {
	if template == "" || count <= 0 || !strings.Contains(template, ImageCountPlaceholder) {
		return []string{}
	}

	urls := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		urls = append(urls, strings.ReplaceAll(template, ImageCountPlaceholder, strconv.Itoa(i)))
	}
	return urls
}
