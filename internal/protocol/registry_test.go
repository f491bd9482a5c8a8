package protocol

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeStore implements Store over a slice for testing.
type fakeStore struct {
	ps      []*Protocol
	listErr error
}

func (f *fakeStore) Get(_ context.Context, id string) (*Protocol, bool, error) {
	if f.listErr != nil {
		return nil, false, f.listErr
	}
	for _, p := range f.ps {
		if p.ID == id {
			return p.Clone(), true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeStore) List(_ context.Context) ([]*Protocol, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ps, nil
}

func (f *fakeStore) Put(_ context.Context, p *Protocol) error {
	f.ps = append(f.ps, p)
	return nil
}

func (f *fakeStore) Replace(_ context.Context, ps []*Protocol) error {
	f.ps = ps
	return nil
}

func testCatalog() []*Protocol {
	return []*Protocol{
		{
			ID: "prompt-processing", Name: "Prompt Processing Protocol", Tier: TierMeta, Status: StatusActive,
			Purpose:  "Pre-process every user prompt",
			Triggers: []string{"Any new user message"},
		},
		{
			ID: "create-project", Name: "Create Project Protocol", Tier: TierWorkflow, Status: StatusActive,
			Purpose:  "Guide the creation of new software projects",
			Triggers: []string{`User says "set up a new repo"`, `User says "make me a project called..."`},
			Keywords: []string{"scaffold"},
		},
		{
			ID: "kaggle", Name: "Kaggle Submission Protocol", Tier: TierWorkflow, Status: StatusActive,
			Purpose:  "Submit to a math competition",
			Triggers: []string{`User mentions "olympiad" and "kaggle"`},
		},
		{
			ID: "maintenance", Name: "System Maintenance Protocol", Tier: TierSystem, Status: StatusInactive,
			Purpose:  "Periodic housekeeping",
			Keywords: []string{"maintenance"},
		},
	}
}

func newTestRegistry() *Registry {
	return NewRegistry(&fakeStore{ps: testCatalog()})
}

func TestNewRegistry_NilStore_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("NewRegistry(nil) did not panic")
		}
	}()
	NewRegistry(nil)
}

func TestLookupByID(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	p, ok, err := r.LookupByID(context.Background(), "create-project")
	if err != nil {
		t.Fatalf("LookupByID: %v", err)
	}
	if !ok {
		t.Fatal("expected create-project to be found")
	}
	if p.Tier != TierWorkflow {
		t.Errorf("Tier = %d, want %d", p.Tier, TierWorkflow)
	}

	if _, ok, _ := r.LookupByID(context.Background(), "medium-article"); ok {
		t.Error("expected medium-article to be absent")
	}
}

func TestListAll(t *testing.T) {
	t.Parallel()

	all, err := newTestRegistry().ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}
	if all["kaggle"].Name != "Kaggle Submission Protocol" {
		t.Errorf("kaggle name = %q", all["kaggle"].Name)
	}
}

func TestList_Filter(t *testing.T) {
	t.Parallel()

	workflow := TierWorkflow
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"prompt-processing", "create-project", "kaggle", "maintenance"}},
		{"tier", Filter{Tier: &workflow}, []string{"create-project", "kaggle"}},
		{"status", Filter{Status: StatusInactive}, []string{"maintenance"}},
		{"tier and status", Filter{Tier: &workflow, Status: StatusInactive}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := newTestRegistry().List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if strings.Join(protocolIDs(got), ",") != strings.Join(tt.want, ",") {
				t.Errorf("List = %v, want %v", protocolIDs(got), tt.want)
			}
		})
	}
}

func TestMatchBySituation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		situation string
		want      []string
	}{
		{"keyword", "Please SCAFFOLD an api", []string{"create-project"}},
		{"quoted trigger phrase", "could you set up a new repo for me", []string{"create-project"}},
		{"ellipsis trimmed", "make me a project called zebra", []string{"create-project"}},
		{"either quoted phrase", "kaggle deadline is near", []string{"kaggle"}},
		{"catalog order", "olympiad scaffold", []string{"create-project", "kaggle"}},
		{"inactive skipped", "time for maintenance", nil},
		{"unquoted trigger text ignored", "any new user message", nil},
		{"blank", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := newTestRegistry().MatchBySituation(context.Background(), tt.situation)
			if err != nil {
				t.Fatalf("MatchBySituation: %v", err)
			}
			if strings.Join(protocolIDs(got), ",") != strings.Join(tt.want, ",") {
				t.Errorf("MatchBySituation(%q) = %v, want %v", tt.situation, protocolIDs(got), tt.want)
			}
		})
	}
}

func TestSituationCues(t *testing.T) {
	t.Parallel()

	p := &Protocol{
		Keywords: []string{"Scaffold", "kaggle"},
		Triggers: []string{`User mentions "olympiad" and "kaggle"`},
	}
	got := SituationCues(p, "scaffold a kaggle olympiad entry")
	want := []string{"scaffold", "kaggle", "olympiad"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("SituationCues = %v, want %v", got, want)
	}
}

func TestQuotedPhrases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{`User says "create a new project"`, []string{"create a new project"}},
		{`User says "write", "draft", "document"`, []string{"write", "draft", "document"}},
		{`Unterminated "quote`, nil},
		{`No quotes at all`, nil},
		{`Empty "" quotes`, nil},
	}

	for _, tt := range tests {
		got := quotedPhrases(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("quotedPhrases(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	r := newTestRegistry()
	tests := []struct {
		query string
		want  []string
	}{
		{"PROJECT", []string{"create-project"}},
		{"math", []string{"kaggle"}},
		{"protocol", []string{"prompt-processing", "create-project", "kaggle", "maintenance"}},
		{"housekeeping", []string{"maintenance"}},
		{"", nil},
		{"nothing-matches-this", nil},
	}

	for _, tt := range tests {
		got, err := r.Search(context.Background(), tt.query)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		if strings.Join(protocolIDs(got), ",") != strings.Join(tt.want, ",") {
			t.Errorf("Search(%q) = %v, want %v", tt.query, protocolIDs(got), tt.want)
		}
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	idx, err := newTestRegistry().Index(context.Background())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if idx.Total != 4 {
		t.Errorf("Total = %d, want 4", idx.Total)
	}
	if idx.ByStatus[StatusActive] != 3 || idx.ByStatus[StatusInactive] != 1 {
		t.Errorf("ByStatus = %v", idx.ByStatus)
	}
	if len(idx.Tiers) != 3 {
		t.Fatalf("len(Tiers) = %d, want 3", len(idx.Tiers))
	}
	for i, want := range []Tier{TierMeta, TierSystem, TierWorkflow} {
		if idx.Tiers[i].Tier != want {
			t.Errorf("Tiers[%d].Tier = %d, want %d", i, idx.Tiers[i].Tier, want)
		}
	}
	if idx.Tiers[2].Label != "workflow" || len(idx.Tiers[2].Protocols) != 2 {
		t.Errorf("workflow group = %+v", idx.Tiers[2])
	}
}

func TestRegistry_StoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	r := NewRegistry(&fakeStore{listErr: boom})
	ctx := context.Background()

	if _, _, err := r.LookupByID(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("LookupByID err = %v, want wrapped %v", err, boom)
	}
	if _, err := r.ListAll(ctx); !errors.Is(err, boom) {
		t.Errorf("ListAll err = %v, want wrapped %v", err, boom)
	}
	if _, err := r.MatchBySituation(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("MatchBySituation err = %v, want wrapped %v", err, boom)
	}
	if _, err := r.Search(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("Search err = %v, want wrapped %v", err, boom)
	}
	if _, err := r.Index(ctx); !errors.Is(err, boom) {
		t.Errorf("Index err = %v, want wrapped %v", err, boom)
	}
}

func TestTierString(t *testing.T) {
	t.Parallel()

	tests := map[Tier]string{
		TierMeta: "meta", TierSystem: "system", TierFoundation: "foundation", TierWorkflow: "workflow", 7: "custom",
	}
	for tier, want := range tests {
		if got := tier.String(); got != want {
			t.Errorf("Tier(%d).String() = %q, want %q", tier, got, want)
		}
	}
}

func protocolIDs(ps []*Protocol) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
