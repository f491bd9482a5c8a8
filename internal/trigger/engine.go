package trigger

import (
	"context"
	"fmt"
	"sort"

	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/mikey/internal/protocol"
)

// Resolver resolves protocol ids to records.
type Resolver interface {
	ListAll(ctx context.Context) (map[string]*protocol.Protocol, error)
}

// SituationMatcher returns the protocols a registry judges relevant to a
// situation, by its own heuristic.
type SituationMatcher interface {
	MatchBySituation(ctx context.Context, situation string) ([]*protocol.Protocol, error)
}

// Engine turns a prompt into an ordered list of protocols plus hints.
// It holds no mutable state.
type Engine struct {
	resolver Resolver
	matcher  SituationMatcher
	table    []TriggerEntry
}

// NewEngine creates an engine using the default keyword table.
func NewEngine(resolver Resolver, matcher SituationMatcher) *Engine {
	if resolver == nil || matcher == nil {
		panic(xerrors.New("trigger engine requires a resolver and a situation matcher"))
	}
	return &Engine{resolver: resolver, matcher: matcher, table: Keywords}
}

// Analyze runs the full analysis on a prompt that already passed validation,
// dedup and the quick-response filter.
func (e *Engine) Analyze(ctx context.Context, prompt string) (*Result, error) {
	lower := normalize(prompt)

	ids := newIDSet()
	matched := scanKeywords(e.table, lower, ids)

	situational, err := e.matcher.MatchBySituation(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("match situation: %w", err)
	}
	for _, p := range situational {
		ids.add(p.ID)
	}

	triggered, err := e.resolve(ctx, ids.order)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Processed:          true,
		SkipProcessing:     false,
		PromptLength:       textLength(prompt),
		MatchedKeywords:    matched,
		TriggeredProtocols: triggered,
		ContextHints:       contextHints(prompt, lower, len(matched)),
		Recommendation:     RecommendNone,
	}
	if n := len(triggered); n > 0 {
		res.Recommendation = fmt.Sprintf("Load %d protocol(s) before proceeding", n)
	}
	return res, nil
}

// resolve looks ids up, drops the unknown ones and orders the rest by tier.
// Equal tiers keep merge order.
func (e *Engine) resolve(ctx context.Context, ids []string) ([]ProtocolSummary, error) {
	out := []ProtocolSummary{}
	if len(ids) == 0 {
		return out, nil
	}

	all, err := e.resolver.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve protocols: %w", err)
	}

	for _, id := range ids {
		p, ok := all[id]
		if !ok || p == nil {
			continue
		}
		out = append(out, ProtocolSummary{
			ID:          p.ID,
			Name:        p.Name,
			Tier:        p.Tier,
			Purpose:     p.Purpose,
			LoadCommand: LoadCommand(p.ID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}
