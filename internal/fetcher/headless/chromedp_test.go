package headless

import (
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func TestNewChromedpLimiterValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewChromedp(Config{MaxParallel: -1}); err == nil {
		t.Fatal("expected error for negative max parallel")
	}
	renderer, err := NewChromedp(Config{MaxParallel: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer renderer.Close()
	if cap(renderer.limiter) != 2 {
		t.Fatalf("expected limiter capacity 2, got %d", cap(renderer.limiter))
	}
}

func TestRendererNavTimeoutDefault(t *testing.T) {
	t.Parallel()

	renderer := &Renderer{}
	if got := renderer.navTimeout(); got != 45*time.Second {
		t.Fatalf("expected default nav timeout, got %v", got)
	}
	renderer.cfg.NavigationTimeout = time.Second
	if got := renderer.navTimeout(); got != time.Second {
		t.Fatalf("expected override to be used, got %v", got)
	}
}

func TestResponseMetaCaptureAndFallbacks(t *testing.T) {
	t.Parallel()

	meta := newResponseMeta()
	meta.capture(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status: 204,
			URL:    "https://eur-lex.europa.eu/legal-content/EN/TXT/?uri=CELEX:32024R0001",
		},
	})
	status, url := meta.snapshotWithFallbacks("https://req", "")
	if status != 204 || url != "https://eur-lex.europa.eu/legal-content/EN/TXT/?uri=CELEX:32024R0001" {
		t.Fatalf("unexpected snapshot values: status=%d url=%s", status, url)
	}

	meta = newResponseMeta()
	status, url = meta.snapshotWithFallbacks("https://req", "https://final")
	if status != http.StatusOK || url != "https://final" {
		t.Fatalf("expected fallback values, got status=%d url=%s", status, url)
	}

	// Sub-resource responses never overwrite the document metadata.
	meta.capture(&network.EventResponseReceived{
		Type:     network.ResourceTypeScript,
		Response: &network.Response{Status: 500, URL: "https://cdn"},
	})
	if status, _ := meta.snapshot(); status != 0 {
		t.Fatalf("expected script response to be ignored, got status %d", status)
	}
}
