package jobsearch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spigell/jobai/internal/apperr"
	"github.com/spigell/jobai/internal/leads"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(nil, "secret", "api.test")
	c.APIURL = srv.URL
	return c
}

func TestSearchRequiresKeywords(t *testing.T) {
	t.Parallel()

	_, err := New(nil, "", "").Search(context.Background(), Params{Keywords: "  "})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchWithoutKeyReturnsDemoLeads(t *testing.T) {
	t.Parallel()

	c := New(nil, "", "")
	if !c.Demo() {
		t.Fatalf("expected demo client")
	}

	got, err := c.Search(context.Background(), Params{Keywords: "Go", Location: "Berlin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 demo leads, got %d", got.Len())
	}
	for _, lead := range got.Items {
		if lead.Status != leads.StatusReady || lead.RecruiterEmail == "" {
			t.Fatalf("expected demo lead with email, got %+v", lead)
		}
	}
	if got.Items[0].Title != "Hiring: Go Developer" {
		t.Fatalf("unexpected title %q", got.Items[0].Title)
	}
}

func TestSearchDecodesItems(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != SearchPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-RapidAPI-Key") != "secret" || r.Header.Get("X-RapidAPI-Host") != "api.test" {
			t.Errorf("missing api headers: %v", r.Header)
		}
		q := r.URL.Query()
		if q.Get("keywords") != "golang" || q.Get("location") != "Remote" || q.Get("locationId") != worldwideLocationID {
			t.Errorf("unexpected query %v", q)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"id":123,"title":"Go Engineer","company":{"name":"Acme"},"description":"Write to hiring@acme.io"},
			{"urn":"urn:li:2","company":"Beta","snippet":"No contact here","link":"https://b.example/2","postedDate":"today"},
			{}
		]}`))
	})

	got, err := c.Search(context.Background(), Params{Keywords: "golang", Location: "Remote"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("expected 3 leads, got %d", got.Len())
	}

	first := got.Items[0]
	if first.ID != "123" || first.Company != "Acme" || first.Status != leads.StatusReady || first.RecruiterEmail != "hiring@acme.io" {
		t.Fatalf("unexpected first lead %+v", first)
	}
	if first.URL != "https://www.linkedin.com/jobs/view/123" || first.Posted != "Recently" {
		t.Fatalf("unexpected defaults %+v", first)
	}

	second := got.Items[1]
	if second.ID != "urn:li:2" || second.Company != "Beta" || second.Status != leads.StatusNoEmail || second.URL != "https://b.example/2" {
		t.Fatalf("unexpected second lead %+v", second)
	}

	third := got.Items[2]
	if third.ID != "job-2" || third.Title != "Job Title" || third.Company != "Unknown Company" {
		t.Fatalf("unexpected fallback lead %+v", third)
	}
}

func TestSearchHandlesGzipAndEmptyResults(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte(`{"items":[]}`))
		zw.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	})

	got, err := c.Search(context.Background(), Params{Keywords: "rust"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("expected no leads, got %d", got.Len())
	}
}

func TestSearchBadStatus(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), Params{Keywords: "go"})
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
