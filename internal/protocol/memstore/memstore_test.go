package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/linnemanlabs/mikey/internal/protocol"
)

func TestStore_PutAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	p := &protocol.Protocol{ID: "error-recovery", Name: "Error Recovery", Tier: protocol.TierSystem}
	if err := s.Put(ctx, p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, "error-recovery")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected protocol to be found")
	}
	if got.Name != "Error Recovery" {
		t.Errorf("Name = %q, want %q", got.Name, "Error Recovery")
	}
	if got.Tier != protocol.TierSystem {
		t.Errorf("Tier = %d, want %d", got.Tier, protocol.TierSystem)
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing ID")
	}
}

func TestStore_ListPreservesOrder(t *testing.T) {
	t.Parallel()

	s := New(
		&protocol.Protocol{ID: "c"},
		&protocol.Protocol{ID: "a"},
		&protocol.Protocol{ID: "b"},
	)
	// overwrite keeps position
	_ = s.Put(context.Background(), &protocol.Protocol{ID: "a", Name: "updated"})

	ps, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"c", "a", "b"}
	if len(ps) != len(want) {
		t.Fatalf("len = %d, want %d", len(ps), len(want))
	}
	for i, id := range want {
		if ps[i].ID != id {
			t.Errorf("ps[%d].ID = %q, want %q", i, ps[i].ID, id)
		}
	}
	if ps[1].Name != "updated" {
		t.Errorf("ps[1].Name = %q, want %q", ps[1].Name, "updated")
	}
}

func TestStore_Replace(t *testing.T) {
	t.Parallel()

	s := New(&protocol.Protocol{ID: "old"})
	ctx := context.Background()
	if err := s.Replace(ctx, []*protocol.Protocol{{ID: "x"}, {ID: "y"}}); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, ok, _ := s.Get(ctx, "old"); ok {
		t.Error("expected old protocol to be gone after Replace")
	}
	ps, _ := s.List(ctx)
	if len(ps) != 2 || ps[0].ID != "x" || ps[1].ID != "y" {
		t.Errorf("List after Replace = %v, want [x y]", ids(ps))
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := New(&protocol.Protocol{ID: "p", Triggers: []string{"one"}})
	ctx := context.Background()

	got, _, _ := s.Get(ctx, "p")
	got.Name = "mutated"
	got.Triggers[0] = "mutated"

	again, _, _ := s.Get(ctx, "p")
	if again.Name != "" {
		t.Errorf("Name = %q, store was mutated through returned copy", again.Name)
	}
	if again.Triggers[0] != "one" {
		t.Errorf("Triggers[0] = %q, store slice was shared", again.Triggers[0])
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	for i := range n {
		id := fmt.Sprintf("p-%d", i)

		go func() {
			defer wg.Done()
			_ = s.Put(ctx, &protocol.Protocol{ID: id})
		}()

		go func() {
			defer wg.Done()
			_, _, _ = s.Get(ctx, id)
			_, _ = s.List(ctx)
		}()
	}

	wg.Wait()

	ps, _ := s.List(ctx)
	if len(ps) != n {
		t.Errorf("len = %d, want %d", len(ps), n)
	}
}

func ids(ps []*protocol.Protocol) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
