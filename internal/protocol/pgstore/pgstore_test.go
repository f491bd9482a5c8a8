package pgstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/linnemanlabs/mikey/internal/postgres"
	"github.com/linnemanlabs/mikey/internal/protocol"
	"github.com/linnemanlabs/mikey/internal/protocol/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("MIKEY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("MIKEY_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	// every test starts from an empty catalog
	if err := s.Replace(ctx, nil); err != nil {
		t.Fatalf("Replace(nil): %v", err)
	}
	return s
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}

func TestPutAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	p := &protocol.Protocol{
		ID:            "create-project",
		Name:          "Create Project Protocol",
		Version:       "1.0.0",
		Tier:          protocol.TierWorkflow,
		Purpose:       "Guide the creation of new software projects",
		Triggers:      []string{`User says "create a new project"`},
		Keywords:      []string{"scaffold"},
		Status:        protocol.StatusActive,
		ImplementedBy: "create_project",
		Content:       "# Create Project Protocol",
	}
	if err := s.Put(ctx, p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}

	assertEqual(t, "Name", p.Name, got.Name)
	assertEqual(t, "Version", p.Version, got.Version)
	assertEqual(t, "Tier", p.Tier, got.Tier)
	assertEqual(t, "Purpose", p.Purpose, got.Purpose)
	assertEqual(t, "Status", p.Status, got.Status)
	assertEqual(t, "ImplementedBy", p.ImplementedBy, got.ImplementedBy)
	assertEqual(t, "Content", p.Content, got.Content)
	if len(got.Triggers) != 1 || got.Triggers[0] != p.Triggers[0] {
		t.Errorf("Triggers = %v, want %v", got.Triggers, p.Triggers)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "scaffold" {
		t.Errorf("Keywords = %v, want [scaffold]", got.Keywords)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("Get returned ok=true for missing id")
	}
}

func TestPutKeepsOrdinal(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := s.Put(ctx, &protocol.Protocol{ID: id, Name: id, Status: protocol.StatusActive}); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}
	if err := s.Put(ctx, &protocol.Protocol{ID: "b", Name: "b2", Status: protocol.StatusActive}); err != nil {
		t.Fatalf("Put b again: %v", err)
	}

	ps, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var ids []string
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	if len(ids) != 3 || ids[0] != "b" || ids[1] != "a" || ids[2] != "c" {
		t.Errorf("List order = %v, want [b a c]", ids)
	}
	if ps[0].Name != "b2" {
		t.Errorf("ps[0].Name = %q, want b2", ps[0].Name)
	}
}

func TestReplace(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, &protocol.Protocol{ID: "stale", Status: protocol.StatusActive})
	err := s.Replace(ctx, []*protocol.Protocol{
		{ID: "z", Status: protocol.StatusActive},
		{ID: "y", Status: protocol.StatusDeprecated},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, ok, _ := s.Get(ctx, "stale"); ok {
		t.Error("stale protocol survived Replace")
	}
	ps, _ := s.List(ctx)
	if len(ps) != 2 || ps[0].ID != "z" || ps[1].ID != "y" {
		t.Errorf("List after Replace has wrong order or size: %d entries", len(ps))
	}
	if ps[1].Status != protocol.StatusDeprecated {
		t.Errorf("Status = %q, want deprecated", ps[1].Status)
	}
}
