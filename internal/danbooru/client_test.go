package danbooru_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"saucebatch/internal/danbooru"
)

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := danbooru.New("", "key", "https://example.com"); err == nil {
		t.Fatal("expected error when username missing")
	}
	if _, err := danbooru.New("alice", "", "https://example.com"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestPostExtractsEnrichmentFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/999.json" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "alice" || pass != "key" {
			t.Fatalf("basic auth = %q %q %v", user, pass, ok)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"pixiv_id": 42,
			"parent_id": null,
			"has_active_children": true,
			"source": "https://twitter.com/artist/status/7",
			"media_asset": {"variants": [
				{"type": "180x180", "url": "https://cdn.example/thumb.jpg"},
				{"type": "original", "url": "https://cdn.example/full.png"}
			]}
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := danbooru.New("alice", "key", server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	info, err := client.Post(context.Background(), "999")
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if info.PixivID != "42" {
		t.Fatalf("PixivID = %q", info.PixivID)
	}
	if info.SocialURL != "https://twitter.com/artist/status/7" {
		t.Fatalf("SocialURL = %q", info.SocialURL)
	}
	if info.ParentID != "" {
		t.Fatalf("ParentID = %q, want empty for null", info.ParentID)
	}
	if !info.HasActiveChildren {
		t.Fatal("HasActiveChildren = false")
	}
	if info.OriginalURL != "https://cdn.example/full.png" {
		t.Fatalf("OriginalURL = %q", info.OriginalURL)
	}
}

func TestPostNonSocialSourceIgnored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"pixiv_id": null,
			"source": "https://www.pixiv.net/artworks/1",
			"media_asset": {"variants": [{"type": "original", "url": "https://cdn.example/a.png"}]}
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := danbooru.New("alice", "key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	info, err := client.Post(context.Background(), "1")
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if info.SocialURL != "" {
		t.Fatalf("SocialURL = %q, want empty", info.SocialURL)
	}
	if info.PixivID != "" {
		t.Fatalf("PixivID = %q, want empty for null", info.PixivID)
	}
}

func TestPostMissingOriginalVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"media_asset": {"variants": [{"type": "sample", "url": "https://cdn.example/s.jpg"}]}}`))
	}))
	t.Cleanup(server.Close)

	client, err := danbooru.New("alice", "key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Post(context.Background(), "2"); err == nil {
		t.Fatal("expected error when original variant is absent")
	}
}

func TestPostHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client, err := danbooru.New("alice", "key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Post(context.Background(), "3"); err == nil {
		t.Fatal("expected error for 404")
	}
}
