package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/petal-labs/scribe/cli/config"
	"github.com/petal-labs/scribe/content"
	"github.com/petal-labs/scribe/usage"
)

const fakeOutline = `{"title": "Tide Pools", "sections": [
	{"heading": "What lives there", "summary": "Anemones, crabs and snails."},
	{"heading": "Visiting safely", "summary": "Timing the tides."},
	{"heading": "Leave no trace", "summary": "Put rocks back."}
]}`

type fakeAPI struct {
	*httptest.Server

	mu        sync.Mutex
	auth      []string
	chatCalls atomic.Int32
	failChat  int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.chatCalls.Add(1)
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()

		if f.failChat != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.failChat)
			_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
			return
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		output := "Rock pools hold a surprising amount of life.\n\nLook closely and move slowly."
		if _, ok := body["response_format"]; ok {
			output = fakeOutline
		}
		writeJSONResponse(w, map[string]any{
			"id":    "chatcmpl-1",
			"model": body["model"],
			"choices": []any{map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": output},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})

	mux.HandleFunc("GET /v1/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, map[string]any{
			"total_results": 1,
			"photos": []any{map[string]any{
				"id":           7,
				"url":          "https://www.pexels.com/photo/7/",
				"alt":          "Starfish on a rock",
				"photographer": "Ana Silva",
				"src":          map[string]any{"large2x": f.URL + "/photos/7.jpg"},
			}},
		})
	})

	mux.HandleFunc("GET /youtube/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, map[string]any{
			"items": []any{map[string]any{
				"id":      map[string]any{"kind": "youtube#video", "videoId": "vid123"},
				"snippet": map[string]any{"title": "Exploring tide pools", "channelTitle": "Coast"},
			}},
		})
	})

	mux.HandleFunc("GET /photos/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("\xff\xd8\xff\xe0fake-jpeg"))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func writeJSONResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) config(t *testing.T) *config.Config {
	cfg := testConfig(t)
	cfg.Providers["openai"] = config.ProviderConfig{BaseURL: f.URL}
	cfg.Providers["pexels"] = config.ProviderConfig{BaseURL: f.URL}
	cfg.Providers["youtube"] = config.ProviderConfig{BaseURL: f.URL + "/youtube"}
	return cfg
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, id := range []string{"OPENAI", "PEXELS", "PIXABAY", "YOUTUBE"} {
		t.Setenv(id+"_API_KEY", "")
		t.Setenv("SCRIBE_PROVIDERS_"+id+"_API_KEY", "")
		t.Setenv("SCRIBE_PROVIDERS_"+id+"_BASE_URL", "")
	}
	t.Setenv("SCRIBE_PROVIDERS_OPENAI_MODEL", "")
}

func TestGenerateMarkup(t *testing.T) {
	clearProviderEnv(t)
	api := newFakeAPI(t)
	cfg := api.config(t)

	ta := newTestApp(t, cfg, "")
	_ = ta.keys.Set("openai", "sk-test")

	if err := ta.run("generate", "--topic", "Tide pools", "--sections", "2"); err != nil {
		t.Fatalf("generate error = %v\nstderr: %s", err, ta.stderr.String())
	}

	out := ta.stdout.String()
	for _, want := range []string{
		`<!-- wp:heading -->`,
		`What lives there</h2>`,
		`Visiting safely</h2>`,
		`<!-- wp:paragraph -->`,
		`<p>Look closely and move slowly.</p>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markup missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Leave no trace") {
		t.Error("outline not truncated to --sections")
	}

	if got := api.chatCalls.Load(); got != 3 {
		t.Errorf("chat calls = %d, want 3 (outline + 2 sections)", got)
	}
	for _, h := range api.auth {
		if h != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want stored key", h)
		}
	}

	records, err := usage.ReadFile(cfg.Usage.Path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("usage records = %d, want 3", len(records))
	}
	for _, rec := range records {
		if rec.Provider != "openai" || rec.PromptUnits != 10 || rec.CompletionUnits != 5 {
			t.Errorf("record = %+v", rec)
		}
	}
}

func TestGenerateMarkdownToFile(t *testing.T) {
	clearProviderEnv(t)
	api := newFakeAPI(t)
	cfg := api.config(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	ta := newTestApp(t, cfg, "")
	outPath := filepath.Join(t.TempDir(), "out", "tide-pools.md")

	if err := ta.run("generate", "--topic", "Tide pools", "--sections", "1", "--format", "markdown", "--out", outPath); err != nil {
		t.Fatalf("generate error = %v\nstderr: %s", err, ta.stderr.String())
	}
	if ta.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty when --out is set", ta.stdout.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	md := string(data)
	if !strings.HasPrefix(md, "# Tide Pools\n\n") {
		t.Errorf("markdown = %q", md)
	}
	if !strings.Contains(md, "## What lives there") || strings.Contains(md, "wp:") {
		t.Errorf("markdown = %q", md)
	}
	if api.auth[0] != "Bearer sk-env" {
		t.Errorf("Authorization = %q, want env key", api.auth[0])
	}
}

func TestGenerateStockImagesAndVideo(t *testing.T) {
	clearProviderEnv(t)
	api := newFakeAPI(t)
	cfg := api.config(t)

	ta := newTestApp(t, cfg, "")
	_ = ta.keys.Set("openai", "sk-test")
	_ = ta.keys.Set("pexels", "px-test")
	_ = ta.keys.Set("youtube", "yt-test")
	blocksPath := filepath.Join(t.TempDir(), "blocks.json")

	err := ta.run("generate",
		"--topic", "Tide pools",
		"--sections", "2",
		"--images", "stock",
		"--video",
		"--blocks", blocksPath,
		"--media-url", "https://cdn.example.com/m",
	)
	if err != nil {
		t.Fatalf("generate error = %v\nstderr: %s", err, ta.stderr.String())
	}

	out := ta.stdout.String()
	if n := strings.Count(out, "<!-- wp:image"); n != 2 {
		t.Errorf("image blocks = %d, want 2:\n%s", n, out)
	}
	if !strings.Contains(out, "https://cdn.example.com/m/") || !strings.Contains(out, "Photo by Ana Silva") {
		t.Errorf("markup missing stored image:\n%s", out)
	}
	if n := strings.Count(out, "https://www.youtube.com/watch?v=vid123"); n != 1 {
		t.Errorf("watch URL appears %d times, want 1", n)
	}
	if strings.Index(out, "watch?v=vid123") > strings.Index(out, "Visiting safely") {
		t.Error("video not placed after the first section")
	}

	data, err := os.ReadFile(blocksPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	blocks, err := content.UnmarshalBlocks(data)
	if err != nil {
		t.Fatalf("UnmarshalBlocks() error = %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("saved blocks = %d, want 3", len(blocks))
	}
	if blocks[0].Key() != content.KeyPexels || blocks[1].Key() != content.KeyYouTube {
		t.Errorf("block keys = %s, %s", blocks[0].Key(), blocks[1].Key())
	}
	if url := blocks[0].ToMap()["url"]; url != api.URL+"/photos/7.jpg" {
		t.Errorf("stock url = %v", url)
	}
}

func TestGenerateJSON(t *testing.T) {
	clearProviderEnv(t)
	api := newFakeAPI(t)

	ta := newTestApp(t, api.config(t), "")
	_ = ta.keys.Set("openai", "sk-test")

	if err := ta.run("generate", "--topic", "Tide pools", "--format", "json"); err != nil {
		t.Fatalf("generate error = %v\nstderr: %s", err, ta.stderr.String())
	}

	var doc struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Sections []struct {
			Heading string `json:"heading"`
			Body    string `json:"body"`
		} `json:"sections"`
		Usage []map[string]any `json:"usage"`
	}
	if err := json.Unmarshal(ta.stdout.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, ta.stdout.String())
	}
	if doc.ID == "" || doc.Title != "Tide Pools" || len(doc.Sections) != 3 {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Usage) != 4 {
		t.Errorf("usage entries = %d, want 4", len(doc.Usage))
	}
}

func TestGenerateMissingCredential(t *testing.T) {
	clearProviderEnv(t)
	api := newFakeAPI(t)

	ta := newTestApp(t, api.config(t), "")

	err := ta.run("generate", "--topic", "Tide pools")
	if got := exitCode(err); got != ExitValidation {
		t.Fatalf("exit code = %d, want %d (err = %v)", got, ExitValidation, err)
	}
	if !strings.Contains(ta.stderr.String(), "scribe keys set openai") {
		t.Errorf("stderr = %q", ta.stderr.String())
	}
	if api.chatCalls.Load() != 0 {
		t.Error("request sent without a credential")
	}
}

func TestGenerateMissingStockCredential(t *testing.T) {
	clearProviderEnv(t)
	api := newFakeAPI(t)

	ta := newTestApp(t, api.config(t), "")
	_ = ta.keys.Set("openai", "sk-test")

	err := ta.run("generate", "--topic", "Tide pools", "--images", "stock", "--stock", "pixabay")
	if got := exitCode(err); got != ExitValidation {
		t.Fatalf("exit code = %d, want %d", got, ExitValidation)
	}
	if !strings.Contains(ta.stderr.String(), "pixabay") {
		t.Errorf("stderr = %q", ta.stderr.String())
	}
}

func TestGenerateProviderRejectsKey(t *testing.T) {
	clearProviderEnv(t)
	api := newFakeAPI(t)
	api.failChat = http.StatusUnauthorized

	ta := newTestApp(t, api.config(t), "")
	_ = ta.keys.Set("openai", "sk-wrong")

	err := ta.run("generate", "--topic", "Tide pools")
	if got := exitCode(err); got != ExitProvider {
		t.Fatalf("exit code = %d, want %d (err = %v)", got, ExitProvider, err)
	}
	if !strings.Contains(ta.stderr.String(), "rejected the API key") {
		t.Errorf("stderr = %q", ta.stderr.String())
	}
	if api.chatCalls.Load() != 1 {
		t.Errorf("chat calls = %d, want 1 (authentication is not retried)", api.chatCalls.Load())
	}
}

func TestGenerateFlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing topic", []string{"generate"}, `required flag(s) "topic" not set`},
		{"bad images", []string{"generate", "--topic", "x", "--images", "paint"}, "unknown image mode"},
		{"bad format", []string{"generate", "--topic", "x", "--format", "pdf"}, "unsupported format"},
		{"bad size", []string{"generate", "--topic", "x", "--image-size", "10x10"}, "unsupported image size"},
		{"bad stock", []string{"generate", "--topic", "x", "--images", "stock", "--stock", "flickr"}, "unsupported stock provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, testConfig(t), "")

			err := ta.run(tt.args...)
			if got := exitCode(err); got != ExitValidation {
				t.Fatalf("exit code = %d, want %d", got, ExitValidation)
			}
			if !strings.Contains(ta.stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", ta.stderr.String(), tt.want)
			}
		})
	}
}
