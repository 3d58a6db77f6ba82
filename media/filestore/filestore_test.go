package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petal-labs/scribe/content"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestSaveInlineData(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "https://blog.example/media/")
	if err != nil {
		t.Fatal(err)
	}

	ref, err := s.Save(context.Background(), content.MediaSource{Data: pngHeader}, content.MediaMeta{Title: "Sunset", Caption: "Evening"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ref.ID != 1 {
		t.Errorf("ID = %d, want 1", ref.ID)
	}
	if !strings.HasPrefix(ref.URL, "https://blog.example/media/") || !strings.HasSuffix(ref.URL, ".png") {
		t.Errorf("URL = %q", ref.URL)
	}

	name := filepath.Base(ref.URL)
	got, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(pngHeader) {
		t.Errorf("stored bytes differ")
	}

	raw, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		t.Fatal(err)
	}
	var side sidecar
	if err := json.Unmarshal(raw, &side); err != nil {
		t.Fatal(err)
	}
	if side.Title != "Sunset" || side.Caption != "Evening" || side.ID != 1 {
		t.Errorf("sidecar = %+v", side)
	}

	ref2, err := s.Save(context.Background(), content.MediaSource{Data: pngHeader}, content.MediaMeta{})
	if err != nil {
		t.Fatal(err)
	}
	if ref2.ID != 2 || ref2.URL == ref.URL {
		t.Errorf("second ref = %+v, want a fresh id and name", ref2)
	}
}

func TestSaveDownloadsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegdata"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	s, _ := New(dir, "/uploads")

	ref, err := s.Save(context.Background(), content.MediaSource{URL: srv.URL + "/photo"}, content.MediaMeta{})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(ref.URL, "/uploads/") || !strings.HasSuffix(ref.URL, ".jpg") {
		t.Errorf("URL = %q", ref.URL)
	}
	got, _ := os.ReadFile(filepath.Join(dir, filepath.Base(ref.URL)))
	if string(got) != "jpegdata" {
		t.Errorf("stored = %q", got)
	}
}

func TestSaveURLExtensionFromPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	s, _ := New(t.TempDir(), "")
	ref, err := s.Save(context.Background(), content.MediaSource{URL: srv.URL + "/a/b/Photo.JPEG?w=100"}, content.MediaMeta{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(ref.URL, ".jpeg") || strings.Contains(ref.URL, "/") {
		t.Errorf("URL = %q", ref.URL)
	}
}

func TestSaveDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s, _ := New(t.TempDir(), "")
	_, err := s.Save(context.Background(), content.MediaSource{URL: srv.URL + "/x.png?key=secret"}, content.MediaMeta{})
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Errorf("error leaks query: %v", err)
	}
}

func TestSaveTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	s, _ := New(t.TempDir(), "", WithMaxBytes(16))
	if _, err := s.Save(context.Background(), content.MediaSource{Data: make([]byte, 17)}, content.MediaMeta{}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("inline error = %v, want ErrTooLarge", err)
	}
	if _, err := s.Save(context.Background(), content.MediaSource{URL: srv.URL}, content.MediaMeta{}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("download error = %v, want ErrTooLarge", err)
	}
}

func TestSaveEmptySourceDeclined(t *testing.T) {
	s, _ := New(t.TempDir(), "")
	ref, err := s.Save(context.Background(), content.MediaSource{}, content.MediaMeta{})
	if ref != nil || err != nil {
		t.Errorf("Save(empty) = %v, %v; want nil, nil", ref, err)
	}
}

func TestStoreRendersImageBlock(t *testing.T) {
	s, _ := New(t.TempDir(), "https://blog.example/m")
	block := content.NewGeneratedImage("iVBORw0KGgo=", "Sunset", "", "")

	got := block.Render(context.Background(), s)
	if !strings.Contains(got, `"id":1`) || !strings.Contains(got, `src="https://blog.example/m/`) {
		t.Errorf("Render() = %s", got)
	}
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Error("expected error for empty dir")
	}
}
