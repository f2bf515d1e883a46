package saucenao_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"saucebatch/internal/saucenao"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := saucenao.New("", "https://example.com", 5, 80); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestSearchSendsMultipartUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("api_key") != "key" || query.Get("output_type") != "2" {
			t.Fatalf("unexpected query: %q", r.URL.RawQuery)
		}
		if query.Get("numres") != "5" || query.Get("minsim") != "80" || query.Get("dbmask") != "999" {
			t.Fatalf("unexpected knobs: %q", r.URL.RawQuery)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "cat.jpg" {
			t.Fatalf("filename = %q", header.Filename)
		}
		payload, _ := io.ReadAll(file)
		if string(payload) != "raw-bytes" {
			t.Fatalf("payload = %q", payload)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"header":{"similarity":"92.31"},"data":{"ext_urls":["https://www.pixiv.net/a?illust_id=1"],"source":"https://twitter.com/a/status/2"}},
			{"header":{"similarity":"55.00"},"data":{"ext_urls":["https://www.pixiv.net/a?illust_id=3"]}},
			{"header":{"similarity":"80.00"},"data":{}}
		]}`))
	}))
	t.Cleanup(server.Close)

	client, err := saucenao.New("key", server.URL, 5, 80)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	entries, err := client.Search(context.Background(), "cat.jpg", []byte("raw-bytes"), 70)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	// Entry two is below threshold, entry three has no URLs.
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want 1 entry", entries)
	}
	if entries[0].Similarity != 92.31 {
		t.Fatalf("similarity = %v", entries[0].Similarity)
	}

	pool := saucenao.CandidateURLs(entries)
	want := []string{"https://www.pixiv.net/a?illust_id=1", "https://twitter.com/a/status/2"}
	if !reflect.DeepEqual(pool, want) {
		t.Fatalf("pool = %v, want %v", pool, want)
	}
}

func TestSearchSimilarityComparedNumerically(t *testing.T) {
	// Lexically "9.5" > "85.0"; numerically it is far below threshold.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"header":{"similarity":"9.5"},"data":{"ext_urls":["https://x.com/s/1"]}}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := saucenao.New("key", server.URL, 5, 80)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := client.Search(context.Background(), "a.png", nil, 70)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want none", entries)
	}
}

func TestSearchNon200ReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := saucenao.New("key", server.URL, 5, 80)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Search(context.Background(), "a.png", nil, 70)
	var statusErr *saucenao.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", statusErr.Code)
	}
}

func TestSearchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>rate limited</html>")
	}))
	t.Cleanup(server.Close)

	client, err := saucenao.New("key", server.URL, 5, 80)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Search(context.Background(), "a.png", nil, 70)
	if !errors.Is(err, saucenao.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestSearchMalformedSimilarity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[{"header":{"similarity":"high"},"data":{"ext_urls":["https://x.com/s/1"]}}]}`)
	}))
	t.Cleanup(server.Close)

	client, err := saucenao.New("key", server.URL, 5, 80)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Search(context.Background(), "a.png", nil, 70)
	if !errors.Is(err, saucenao.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
	if !strings.Contains(err.Error(), "high") {
		t.Fatalf("error should name the bad value: %v", err)
	}
}

func TestCandidateURLsEmptyEntries(t *testing.T) {
	if pool := saucenao.CandidateURLs(nil); pool != nil {
		t.Fatalf("pool = %v, want nil", pool)
	}
}
