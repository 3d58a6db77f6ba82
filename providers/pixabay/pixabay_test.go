package pixabay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petal-labs/scribe/core"
)

func TestSearchImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "pb-key" {
			t.Errorf("key = %q", q.Get("key"))
		}
		if q.Get("q") != "yellow flowers" || q.Get("per_page") != "3" || q.Get("orientation") != "vertical" || q.Get("image_type") != "photo" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"total": 4692,
			"totalHits": 500,
			"hits": [{
				"id": 195893,
				"pageURL": "https://pixabay.com/en/blossom-bloom-flower-195893/",
				"tags": "blossom, bloom, flower",
				"webformatURL": "https://pixabay.com/get/35bbf209e13e39d2_640.jpg",
				"largeImageURL": "https://pixabay.com/get/ed6a99fd0a76647_1280.jpg",
				"imageWidth": 4000,
				"imageHeight": 2250,
				"user_id": 48777,
				"user": "Josch13"
			}]
		}`))
	}))
	defer server.Close()

	p, err := New("pb-key", WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := p.SearchImages(context.Background(), &core.ImageSearchRequest{
		Query:       "yellow flowers",
		PerPage:     1,
		Orientation: core.OrientationPortrait,
	})
	if err != nil {
		t.Fatalf("SearchImages() error = %v", err)
	}
	if resp.Total != 500 || len(resp.Photos) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	ph := resp.Photos[0]
	if ph.ID != "195893" || ph.ImageURL != "https://pixabay.com/get/ed6a99fd0a76647_1280.jpg" || ph.Alt != "blossom, bloom, flower" {
		t.Errorf("photo = %+v", ph)
	}
	if ph.PhotographerURL != "https://pixabay.com/users/Josch13-48777/" {
		t.Errorf("PhotographerURL = %q", ph.PhotographerURL)
	}
}

func TestSearchImagesInvalidKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("[ERROR 400] Invalid or missing API key (https://pixabay.com/api/docs/)."))
	}))
	defer server.Close()

	p, _ := New("wrong", WithBaseURL(server.URL))
	_, err := p.SearchImages(context.Background(), &core.ImageSearchRequest{Query: "x"})
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if strings.Contains(err.Error(), "wrong") {
		t.Errorf("error leaks the key: %v", err)
	}
}

func TestSearchImagesBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`[ERROR 400] "page" is out of valid range.`))
	}))
	defer server.Close()

	p, _ := New("k", WithBaseURL(server.URL))
	_, err := p.SearchImages(context.Background(), &core.ImageSearchRequest{Query: "x", Page: 99})
	if core.KindOf(err) != core.KindBadRequest {
		t.Errorf("KindOf() = %q, want bad_request", core.KindOf(err))
	}
}

func TestSearchPayloadClamps(t *testing.T) {
	if got := SearchPayload(&core.ImageSearchRequest{Query: "q"})["per_page"]; got != defaultPerPage {
		t.Errorf("default per_page = %v", got)
	}
	if got := SearchPayload(&core.ImageSearchRequest{Query: "q", PerPage: 900})["per_page"]; got != maxPerPage {
		t.Errorf("max per_page = %v", got)
	}
	if _, ok := SearchPayload(&core.ImageSearchRequest{Query: "q", Orientation: core.OrientationSquare})["orientation"]; ok {
		t.Error("square has no pixabay orientation and should be omitted")
	}
}

func TestSettingsCredential(t *testing.T) {
	settings := core.SettingsFunc(func(key string) (string, bool) {
		return "from-settings", key == "providers.pixabay.api_key"
	})
	if _, err := New("", WithSettings(settings)); err != nil {
		t.Errorf("New() with settings error = %v", err)
	}
	if _, err := New(""); !errors.Is(err, core.ErrMissingCredential) {
		t.Errorf("New() without key error = %v", err)
	}
}
