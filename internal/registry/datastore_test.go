package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/streets-name-id/internal/retry"
)

func TestFetchAllPaginates(t *testing.T) {
	// Three records served one per page to exercise the offset walk.
	records := []string{
		`{"official_code": 1001, "street_name": "הרצל", "city_name": "תל אביב"}`,
		`{"official_code": "1002", "street_name": "ויצמן", "city_name": "תל אביב"}`,
		`{"official_code": 1003, "street_name": "הנשיא", "city_name": "חיפה"}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("resource_id"); got != "res-1" {
			t.Errorf("resource_id = %q, want res-1", got)
		}
		offset := 0
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)

		page := ""
		index := offset
		if index < len(records) {
			page = records[index]
		}
		fmt.Fprintf(w, `{"success": true, "result": {"total": %d, "records": [%s]}}`, len(records), page)
	}))
	defer server.Close()

	client := NewClient(server.URL, "res-1", "test-agent", &retry.Policy{MaxAttempts: 1})
	client.pageSize = 1
	rows, err := client.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].ID != "1001" || rows[1].ID != "1002" {
		t.Errorf("numeric and string identifiers must both decode: %q, %q", rows[0].ID, rows[1].ID)
	}
	if rows[2].Settlement != "חיפה" {
		t.Errorf("settlement = %q, want חיפה", rows[2].Settlement)
	}
}

func TestFetchSettlementFiltersClientSide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": true, "result": {"total": 2, "records": [
			{"official_code": 1, "street_name": "הרצל", "city_name": "תל אביב"},
			{"official_code": 2, "street_name": "הנשיא", "city_name": "חיפה"}
		]}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "res-1", "test-agent", &retry.Policy{MaxAttempts: 1})
	rows, err := client.FetchSettlement(context.Background(), "חיפה")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "הנשיא" {
		t.Errorf("rows = %v, want only the חיפה row", rows)
	}
}

func TestFetchSettlementReusesFullFetch(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"success": true, "result": {"total": 2, "records": [
			{"official_code": 1, "street_name": "הרצל", "city_name": "תל אביב"},
			{"official_code": 2, "street_name": "הנשיא", "city_name": "חיפה"}
		]}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "res-1", "test-agent", &retry.Policy{MaxAttempts: 1})
	for _, settlement := range []string{"תל אביב", "חיפה", "תל אביב"} {
		rows, err := client.FetchSettlement(context.Background(), settlement)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != 1 || rows[0].Settlement != settlement {
			t.Errorf("rows for %s = %v, want one matching row", settlement, rows)
		}
	}
	if hits != 1 {
		t.Errorf("datastore hit %d times, want 1 (full fetch reused across settlements)", hits)
	}
}

func TestFetchAllFailureAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "res-1", "test-agent", &retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond})
	if _, err := client.FetchAll(context.Background()); err == nil {
		t.Fatal("expected error when every page fetch fails")
	}
}
