package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/storebridge/market-gateway/pkg/logging"
)

// HTTPFetcher retrieves the target-currency rate from an HTTP provider.
// Providers differ in the field carrying the rate map, so both known
// shapes ("rates" and "conversion_rates") are accepted.
type HTTPFetcher struct {
	url        string
	target     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// rateResponse covers the two provider response shapes in the wild.
type rateResponse struct {
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// NewHTTPFetcher creates a fetcher for the given provider URL and target
// currency code (e.g. "USD").
func NewHTTPFetcher(url, targetCurrency string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		url:        url,
		target:     targetCurrency,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewLogger("rate-fetcher"),
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read rate response: %w", err)
	}

	var parsed rateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("decode rate response: %w", err)
	}

	if rate, ok := parsed.Rates[f.target]; ok && rate > 0 {
		return rate, nil
	}
	if rate, ok := parsed.ConversionRates[f.target]; ok && rate > 0 {
		return rate, nil
	}

	return 0, fmt.Errorf("rate for %s missing from provider response", f.target)
}
