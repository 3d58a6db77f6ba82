//go:build integration

package pexels

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/petal-labs/scribe/core"
)

func TestLiveSearchImages(t *testing.T) {
	if os.Getenv(DefaultAPIKeyEnvVar) == "" {
		t.Skipf("%s not set", DefaultAPIKeyEnvVar)
	}
	p, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := p.SearchImages(ctx, &core.ImageSearchRequest{Query: "lighthouse", PerPage: 3})
	if err != nil {
		t.Fatalf("SearchImages() error = %v", err)
	}
	if len(resp.Photos) == 0 {
		t.Fatal("no photos returned")
	}
	for _, photo := range resp.Photos {
		if photo.ImageURL == "" {
			t.Errorf("photo %s has no image URL", photo.ID)
		}
	}
	t.Logf("Pexels: %d of %d photos, first by %s", len(resp.Photos), resp.Total, resp.Photos[0].Photographer)
}
