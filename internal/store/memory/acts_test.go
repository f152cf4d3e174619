package memory

import (
	"context"
	"testing"

	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
)

func TestActStoreLifecycle(t *testing.T) {
	t.Parallel()

	acts := NewActStore()
	ctx := context.Background()

	if _, err := acts.UpsertAct(ctx, eurlex.LegalAct{Title: "missing identifier"}); err == nil {
		t.Fatal("expected error for act without celex number")
	}

	first, err := acts.UpsertAct(ctx, eurlex.LegalAct{Celex: "32024R0001", Title: "v1"})
	if err != nil {
		t.Fatalf("UpsertAct() error = %v", err)
	}
	second, err := acts.UpsertAct(ctx, eurlex.LegalAct{Celex: "32019L0790", Title: "directive"})
	if err != nil {
		t.Fatalf("UpsertAct() error = %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}

	replaced, err := acts.UpsertAct(ctx, eurlex.LegalAct{Celex: "32024R0001", Title: "v2"})
	if err != nil {
		t.Fatalf("UpsertAct() replace error = %v", err)
	}
	if replaced != first {
		t.Fatalf("expected stable id across replace, got %q then %q", first, replaced)
	}

	n, err := acts.CountActs(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CountActs() = %d, %v; want 2", n, err)
	}

	ids, err := acts.ListCelexNumbers(ctx)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListCelexNumbers() = %v, %v", ids, err)
	}

	newest, err := acts.ListActs(ctx, 1)
	if err != nil || len(newest) != 1 {
		t.Fatalf("ListActs(1) = %v, %v", newest, err)
	}
	if newest[0].Celex != "32024R0001" || newest[0].Title != "v2" {
		t.Fatalf("expected most recently written act first, got %+v", newest[0])
	}

	all, err := acts.ListActs(ctx, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListActs(0) = %v, %v", all, err)
	}
}
