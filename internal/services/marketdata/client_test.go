package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/bondval/internal/services/gateway"
)

func TestFetchBonds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"ticker":"SU26238RMFS4","name":"OFZ 26238","price":556.5,"coupon":35.4,
			 "coupon_period_days":182,"maturity_date":"2041-05-15","nominal":1000,
			 "accrued_interest":12.3,"market_ytm":14.5,"volume":150000,"duration":2900},
			{"ticker":"BROKEN","name":"bad date","price":900,"coupon":30,
			 "coupon_period_days":182,"maturity_date":"not-a-date","nominal":1000}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL)
	bonds, err := client.FetchBonds(context.Background())
	if err != nil {
		t.Fatalf("FetchBonds() error = %v", err)
	}
	if len(bonds) != 1 {
		t.Fatalf("got %d bonds, want 1 (malformed row dropped)", len(bonds))
	}

	b := bonds[0]
	if b.Ticker != "SU26238RMFS4" {
		t.Errorf("Ticker = %q", b.Ticker)
	}
	if b.Price != 556.5 || b.Coupon != 35.4 || b.CouponPeriodDays != 182 {
		t.Errorf("record = %+v", b)
	}
	if b.MaturityDate.Year() != 2041 {
		t.Errorf("MaturityDate = %v", b.MaturityDate)
	}
}

func TestFetchRateHistory_SortsNewestFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"date":"2025-01-10","rate":21.0},
			{"date":"2025-06-06","rate":20.0},
			{"date":"2024-10-28","rate":21.0}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL)
	points, err := client.FetchRateHistory(context.Background())
	if err != nil {
		t.Fatalf("FetchRateHistory() error = %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Date.After(points[i-1].Date) {
			t.Errorf("points not sorted newest first at %d", i)
		}
	}
	if points[0].Rate != 20.0 {
		t.Errorf("newest rate = %v, want 20.0", points[0].Rate)
	}
}

func TestFetch_UpstreamErrorIsTyped(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"not found", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream unhappy", tt.status)
			}))
			defer server.Close()

			client := NewClient(server.URL, server.URL)
			_, err := client.FetchBonds(context.Background())
			if err == nil {
				t.Fatal("FetchBonds() succeeded, want error")
			}

			var depErr *gateway.DependencyError
			if !errors.As(err, &depErr) {
				t.Fatalf("error %v is not a DependencyError", err)
			}
			if depErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", depErr.StatusCode, tt.status)
			}
			if depErr.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", depErr.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestFetchBonds_RespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.FetchBonds(ctx); err == nil {
		t.Fatal("FetchBonds() succeeded with cancelled context")
	}
}
