package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/streets-name-id/internal/retry"
)

const overpassFixture = `{
  "elements": [
    {
      "type": "way",
      "id": 1234,
      "tags": {"highway": "residential", "name": "רחוב הרצל", "name:en": "Herzl Street"},
      "geometry": [{"lat": 32.07, "lon": 34.78}, {"lat": 32.08, "lon": 34.79}]
    },
    {
      "type": "node",
      "id": 99,
      "tags": {"name": "ignored"}
    }
  ]
}`

func TestFetchSettlement(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotQuery = r.FormValue("data")
		w.Write([]byte(overpassFixture))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-agent", &retry.Policy{MaxAttempts: 1})
	segments, err := client.FetchSettlement(context.Background(), "תל אביב-יפו")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gotQuery, `area["name"="תל אביב-יפו"]`) {
		t.Errorf("query missing settlement area clause: %s", gotQuery)
	}
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1 (node elements skipped)", len(segments))
	}
	seg := segments[0]
	if seg.ID != "way/1234" {
		t.Errorf("id = %q, want way/1234", seg.ID)
	}
	if seg.Tags["name"] != "רחוב הרצל" || seg.Tags["name:en"] != "Herzl Street" {
		t.Errorf("tags not carried: %v", seg.Tags)
	}
	if len(seg.Geometry) != 2 || seg.Geometry[0][0] != 34.78 || seg.Geometry[0][1] != 32.07 {
		t.Errorf("geometry = %v, want lon/lat points", seg.Geometry)
	}
}

func TestFetchSettlementRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
			return
		}
		w.Write([]byte(`{"elements": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-agent", &retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})
	if _, err := client.FetchSettlement(context.Background(), "חיפה"); err != nil {
		t.Fatalf("unexpected error after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("server called %d times, want 2", calls)
	}
}
