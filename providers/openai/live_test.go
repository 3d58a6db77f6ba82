//go:build integration

package openai

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/petal-labs/scribe/core"
)

// Live tests run with: go test -tags integration ./providers/...
func liveClient(t *testing.T) *OpenAI {
	t.Helper()
	if os.Getenv(DefaultAPIKeyEnvVar) == "" {
		t.Skipf("%s not set", DefaultAPIKeyEnvVar)
	}
	p, err := NewFromEnv(WithModel("gpt-4o-mini"))
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}
	return p
}

func TestLiveChat(t *testing.T) {
	p := liveClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := p.Chat(ctx, &core.ChatRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Reply with the single word: pong"}},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Output == "" {
		t.Error("empty output")
	}
	if resp.Usage.TotalTokens == 0 {
		t.Error("Usage.TotalTokens should be > 0")
	}
	t.Logf("model=%s output=%q tokens=%d", resp.Model, resp.Output, resp.Usage.TotalTokens)
}

func TestLiveChatRejectsBadKey(t *testing.T) {
	liveClient(t)

	p, err := New("sk-invalid", WithModel("gpt-4o-mini"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = p.Chat(ctx, &core.ChatRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "hi"}},
	})
	if core.KindOf(err) != core.KindAuthentication {
		t.Errorf("kind = %q, want authentication (err = %v)", core.KindOf(err), err)
	}
}
