package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher_RatesField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"KRW","rates":{"USD":0.00074,"EUR":0.00068}}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, "USD", time.Second)

	rate, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if rate != 0.00074 {
		t.Errorf("rate = %v, want 0.00074", rate)
	}
}

func TestHTTPFetcher_ConversionRatesField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base_code":"KRW","conversion_rates":{"USD":0.00075}}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, "USD", time.Second)

	rate, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if rate != 0.00075 {
		t.Errorf("rate = %v, want 0.00075", rate)
	}
}

func TestHTTPFetcher_MissingTargetCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.00068}}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, "USD", time.Second)

	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Error("Fetch should fail when the target currency is absent")
	}
}

func TestHTTPFetcher_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL, "USD", time.Second)

	if _, err := fetcher.Fetch(context.Background()); err == nil {
		t.Error("Fetch should fail on non-200 status")
	}
}
