package protocol

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/linnemanlabs/go-core/xerrors"
)

// Registry answers catalog queries over a Store.
type Registry struct {
	store Store
}

// NewRegistry creates a registry backed by store.
func NewRegistry(store Store) *Registry {
	if store == nil {
		panic(xerrors.New("protocol store is required"))
	}
	return &Registry{store: store}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Tier   *Tier
	Status Status
}

func (f Filter) match(p *Protocol) bool {
	if f.Tier != nil && p.Tier != *f.Tier {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	return true
}

// LookupByID returns the protocol with the given id, if any.
func (r *Registry) LookupByID(ctx context.Context, id string) (*Protocol, bool, error) {
	p, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("lookup protocol %q: %w", id, err)
	}
	return p, ok, nil
}

// ListAll returns every protocol keyed by id.
func (r *Registry) ListAll(ctx context.Context) (map[string]*Protocol, error) {
	ps, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list protocols: %w", err)
	}
	out := make(map[string]*Protocol, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

// List returns protocols matching f in catalog order.
func (r *Registry) List(ctx context.Context, f Filter) ([]*Protocol, error) {
	ps, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list protocols: %w", err)
	}
	out := make([]*Protocol, 0, len(ps))
	for _, p := range ps {
		if f.match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// MatchBySituation returns active protocols, in catalog order, whose keywords
// or quoted trigger phrases occur in the situation text (case-insensitive).
func (r *Registry) MatchBySituation(ctx context.Context, situation string) ([]*Protocol, error) {
	ps, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("match situation: %w", err)
	}
	text := strings.ToLower(situation)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var out []*Protocol
	for _, p := range ps {
		if p.Status != StatusActive {
			continue
		}
		if len(SituationCues(p, text)) > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// SituationCues returns the cues of p found in the lower-cased text, keywords
// first, then quoted trigger phrases. Duplicates are reported once.
func SituationCues(p *Protocol, lowerText string) []string {
	var cues []string
	seen := make(map[string]bool)
	add := func(c string) {
		if c == "" || seen[c] || !strings.Contains(lowerText, c) {
			return
		}
		seen[c] = true
		cues = append(cues, c)
	}
	for _, k := range p.Keywords {
		add(strings.ToLower(strings.TrimSpace(k)))
	}
	for _, t := range p.Triggers {
		for _, q := range quotedPhrases(t) {
			add(q)
		}
	}
	return cues
}

// quotedPhrases extracts the double-quoted fragments of a trigger
// description, lower-cased, with trailing ellipses removed.
func quotedPhrases(trigger string) []string {
	var out []string
	rest := trigger
	for {
		start := strings.IndexByte(rest, '"')
		if start < 0 {
			return out
		}
		end := strings.IndexByte(rest[start+1:], '"')
		if end < 0 {
			return out
		}
		q := rest[start+1 : start+1+end]
		q = strings.TrimRight(strings.TrimSpace(q), ". ")
		if q != "" {
			out = append(out, strings.ToLower(q))
		}
		rest = rest[start+end+2:]
	}
}

// Search returns protocols whose id, name, purpose, triggers or keywords
// contain query (case-insensitive), in catalog order.
func (r *Registry) Search(ctx context.Context, query string) ([]*Protocol, error) {
	ps, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("search protocols: %w", err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	var out []*Protocol
	for _, p := range ps {
		if searchable(p, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func searchable(p *Protocol, q string) bool {
	fields := []string{p.ID, p.Name, p.Purpose}
	fields = append(fields, p.Triggers...)
	fields = append(fields, p.Keywords...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// IndexEntry is one line of the master index.
type IndexEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  Status `json:"status"`
	Purpose string `json:"purpose"`
}

// TierGroup lists the protocols of one tier.
type TierGroup struct {
	Tier      Tier         `json:"tier"`
	Label     string       `json:"label"`
	Protocols []IndexEntry `json:"protocols"`
}

// Index is the master overview of the catalog.
type Index struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	Tiers    []TierGroup    `json:"tiers"`
}

// Index builds the master index, tiers ascending, catalog order within a tier.
func (r *Registry) Index(ctx context.Context) (*Index, error) {
	ps, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	idx := &Index{
		Total:    len(ps),
		ByStatus: make(map[Status]int),
	}
	groups := make(map[Tier]*TierGroup)
	for _, p := range ps {
		idx.ByStatus[p.Status]++
		g, ok := groups[p.Tier]
		if !ok {
			g = &TierGroup{Tier: p.Tier, Label: p.Tier.String()}
			groups[p.Tier] = g
		}
		g.Protocols = append(g.Protocols, IndexEntry{
			ID:      p.ID,
			Name:    p.Name,
			Version: p.Version,
			Status:  p.Status,
			Purpose: p.Purpose,
		})
	}

	for _, g := range groups {
		idx.Tiers = append(idx.Tiers, *g)
	}
	sort.Slice(idx.Tiers, func(i, j int) bool { return idx.Tiers[i].Tier < idx.Tiers[j].Tier })
	return idx, nil
}
