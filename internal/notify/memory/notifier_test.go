package memory

import (
	"context"
	"testing"
)

func TestNotifierRecordsPublishes(t *testing.T) {
	t.Parallel()

	notifier := New()
	if err := notifier.Publish(context.Background(), "32024R0001"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := notifier.Publish(context.Background(), "32019L0790"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	published := notifier.Published()
	if len(published) != 2 {
		t.Fatalf("expected 2 published celex numbers, got %d", len(published))
	}
	if published[0] != "32024R0001" || published[1] != "32019L0790" {
		t.Fatalf("celex numbers not recorded in order: %v", published)
	}

	published[0] = "modified"
	if notifier.Published()[0] == "modified" {
		t.Fatal("expected Published() to return a copy")
	}
	if err := notifier.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
