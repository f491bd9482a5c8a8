package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/linnemanlabs/mikey/internal/protocol"
	"github.com/linnemanlabs/mikey/internal/trigger"
)

// Catalog is the read side of the protocol registry used by the tools.
type Catalog interface {
	LookupByID(ctx context.Context, id string) (*protocol.Protocol, bool, error)
	List(ctx context.Context, f protocol.Filter) ([]*protocol.Protocol, error)
	Search(ctx context.Context, query string) ([]*protocol.Protocol, error)
	MatchBySituation(ctx context.Context, situation string) ([]*protocol.Protocol, error)
	Index(ctx context.Context) (*protocol.Index, error)
}

// Processor runs prompt analysis.
type Processor interface {
	Process(ctx context.Context, req trigger.Request) (*trigger.Result, error)
}

// RegisterAll adds every mikey tool to r, prompt_process first.
func RegisterAll(r *Registry, catalog Catalog, proc Processor) {
	r.Register(NewPromptProcess(proc))
	r.Register(NewProtocolList(catalog))
	r.Register(NewProtocolRead(catalog))
	r.Register(NewProtocolSearch(catalog))
	r.Register(NewProtocolTriggers(catalog))
	r.Register(NewProtocolIndex(catalog))
}

// Summary is the catalog listing form of a protocol.
type Summary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Version   string          `json:"version"`
	Tier      protocol.Tier   `json:"tier"`
	TierLabel string          `json:"tier_label"`
	Purpose   string          `json:"purpose"`
	Status    protocol.Status `json:"status"`
	Triggers  []string        `json:"triggers"`
}

func summarize(p *protocol.Protocol) Summary {
	triggers := p.Triggers
	if triggers == nil {
		triggers = []string{}
	}
	return Summary{
		ID:        p.ID,
		Name:      p.Name,
		Version:   p.Version,
		Tier:      p.Tier,
		TierLabel: p.Tier.String(),
		Purpose:   p.Purpose,
		Status:    p.Status,
		Triggers:  triggers,
	}
}

func summarizeAll(ps []*protocol.Protocol) []Summary {
	out := make([]Summary, 0, len(ps))
	for _, p := range ps {
		out = append(out, summarize(p))
	}
	return out
}

func decodeParams(params json.RawMessage, v any) error {
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// PromptProcess analyzes a user prompt for protocol triggers.
type PromptProcess struct {
	proc Processor
}

// NewPromptProcess creates the prompt_process tool backed by the given processor.
func NewPromptProcess(proc Processor) *PromptProcess { return &PromptProcess{proc: proc} }

// Name returns "prompt_process".
func (t *PromptProcess) Name() string { return "prompt_process" }

// Description tells the client when to call prompt_process.
func (t *PromptProcess) Description() string {
	return `Pre-process a user prompt before responding. Returns the protocols to load, ordered by priority tier,
the trigger phrases that matched and context hints. When skipProcessing is true, answer directly.`
}

// Parameters returns the JSON schema for the prompt_process arguments.
func (t *PromptProcess) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "prompt": {
                "type": "string",
                "description": "The user's message, verbatim"
            }
        },
        "required": ["prompt"]
    }`)
}

// Execute analyzes the prompt and returns the processing result as is.
func (t *PromptProcess) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var req trigger.Request
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	res, err := t.proc.Process(ctx, req)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

// ProtocolList lists catalog protocols with optional tier and status filters.
type ProtocolList struct {
	catalog Catalog
}

// NewProtocolList creates the protocol_list tool backed by the given catalog.
func NewProtocolList(c Catalog) *ProtocolList { return &ProtocolList{catalog: c} }

// Name returns "protocol_list".
func (t *ProtocolList) Name() string { return "protocol_list" }

// Description tells the client when to call protocol_list.
func (t *ProtocolList) Description() string {
	return "List all available protocols with metadata and triggers."
}

// Parameters returns the JSON schema for the protocol_list arguments.
func (t *ProtocolList) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "tier": {
                "type": "integer",
                "description": "Filter by protocol tier (0=meta, 1=system, 2=foundation, 3=workflow)"
            },
            "status": {
                "type": "string",
                "description": "Filter by status",
                "enum": ["active", "inactive", "deprecated"]
            }
        }
    }`)
}

// Execute returns {count, protocols} for the protocols matching the optional tier and status filters.
func (t *ProtocolList) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		Tier   *int   `json:"tier,omitempty"`
		Status string `json:"status,omitempty"`
	}
	if err := decodeParams(params, &input); err != nil {
		return nil, err
	}

	var f protocol.Filter
	if input.Tier != nil {
		tier := protocol.Tier(*input.Tier)
		f.Tier = &tier
	}
	if input.Status != "" {
		f.Status = protocol.Status(input.Status)
		if !f.Status.Valid() {
			return nil, fmt.Errorf("unknown status %q", input.Status)
		}
	}

	ps, err := t.catalog.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Count     int       `json:"count"`
		Protocols []Summary `json:"protocols"`
	}{len(ps), summarizeAll(ps)})
}

// ProtocolRead returns the full document for one protocol.
type ProtocolRead struct {
	catalog Catalog
}

// NewProtocolRead creates the protocol_read tool backed by the given catalog.
func NewProtocolRead(c Catalog) *ProtocolRead { return &ProtocolRead{catalog: c} }

// Name returns "protocol_read".
func (t *ProtocolRead) Name() string { return "protocol_read" }

// Description tells the client when to call protocol_read.
func (t *ProtocolRead) Description() string {
	return "Read the full content of a specific protocol, including its trigger conditions."
}

// Parameters returns the JSON schema for the protocol_read arguments.
func (t *ProtocolRead) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "protocol_id": {
                "type": "string",
                "description": "Protocol ID, e.g. error-recovery or create-project"
            }
        },
        "required": ["protocol_id"]
    }`)
}

// ErrNotFound is returned when a protocol id is not in the catalog.
var ErrNotFound = errors.New("protocol not found")

// Execute returns the full protocol document, or ErrNotFound for an unknown id.
func (t *ProtocolRead) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		ProtocolID string `json:"protocol_id"`
	}
	if err := decodeParams(params, &input); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(input.ProtocolID)
	if id == "" {
		return nil, errors.New("protocol_id is required")
	}

	p, ok, err := t.catalog.LookupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return json.Marshal(p)
}

// ProtocolSearch finds protocols by text, optionally combined with a
// situation description.
type ProtocolSearch struct {
	catalog Catalog
}

// NewProtocolSearch creates the protocol_search tool backed by the given catalog.
func NewProtocolSearch(c Catalog) *ProtocolSearch { return &ProtocolSearch{catalog: c} }

// Name returns "protocol_search".
func (t *ProtocolSearch) Name() string { return "protocol_search" }

// Description tells the client when to call protocol_search.
func (t *ProtocolSearch) Description() string {
	return "Search protocols by purpose, triggers, keywords, or situation."
}

// Parameters returns the JSON schema for the protocol_search arguments.
func (t *ProtocolSearch) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "query": {
                "type": "string",
                "description": "Search query matched against id, name, purpose, triggers and keywords"
            },
            "trigger_situation": {
                "type": "string",
                "description": "Describe the current situation to also find protocols triggered by it"
            }
        },
        "required": ["query"]
    }`)
}

// Execute returns text matches for query, plus situation matches when trigger_situation is set.
func (t *ProtocolSearch) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		Query            string `json:"query"`
		TriggerSituation string `json:"trigger_situation,omitempty"`
	}
	if err := decodeParams(params, &input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.New("query is required")
	}

	found, err := t.catalog.Search(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	out := struct {
		Query            string      `json:"query"`
		Count            int         `json:"count"`
		Results          []Summary   `json:"results"`
		TriggerSituation string      `json:"trigger_situation,omitempty"`
		SituationMatches []Situation `json:"situation_matches,omitempty"`
	}{
		Query:   input.Query,
		Count:   len(found),
		Results: summarizeAll(found),
	}

	if s := strings.TrimSpace(input.TriggerSituation); s != "" {
		matches, err := situationMatches(ctx, t.catalog, s)
		if err != nil {
			return nil, err
		}
		out.TriggerSituation = s
		out.SituationMatches = matches
	}
	return json.Marshal(out)
}

// Situation is a protocol recommended for a situation and the cues that
// selected it.
type Situation struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Tier        protocol.Tier `json:"tier"`
	Purpose     string        `json:"purpose"`
	MatchedCues []string      `json:"matched_cues"`
	LoadCommand string        `json:"load_command"`
}

// situationMatches returns the situation's protocols ordered by tier.
func situationMatches(ctx context.Context, c Catalog, situation string) ([]Situation, error) {
	ps, err := c.MatchBySituation(ctx, situation)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(situation)
	out := make([]Situation, 0, len(ps))
	for _, p := range ps {
		out = append(out, Situation{
			ID:          p.ID,
			Name:        p.Name,
			Tier:        p.Tier,
			Purpose:     p.Purpose,
			MatchedCues: protocol.SituationCues(p, lower),
			LoadCommand: trigger.LoadCommand(p.ID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}

// ProtocolTriggers recommends protocols for a described situation.
type ProtocolTriggers struct {
	catalog Catalog
}

// NewProtocolTriggers creates the protocol_triggers tool backed by the given catalog.
func NewProtocolTriggers(c Catalog) *ProtocolTriggers { return &ProtocolTriggers{catalog: c} }

// Name returns "protocol_triggers".
func (t *ProtocolTriggers) Name() string { return "protocol_triggers" }

// Description tells the client when to call protocol_triggers.
func (t *ProtocolTriggers) Description() string {
	return "Get recommended protocols for a specific situation with trigger analysis."
}

// Parameters returns the JSON schema for the protocol_triggers arguments.
func (t *ProtocolTriggers) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "situation": {
                "type": "string",
                "description": "Current situation or context, e.g. \"error occurred\", \"user confused\", \"multiple sources\""
            }
        },
        "required": ["situation"]
    }`)
}

// Execute returns the protocols whose cues appear in the situation, ordered by tier.
func (t *ProtocolTriggers) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		Situation string `json:"situation"`
	}
	if err := decodeParams(params, &input); err != nil {
		return nil, err
	}
	s := strings.TrimSpace(input.Situation)
	if s == "" {
		return nil, errors.New("situation is required")
	}

	matches, err := situationMatches(ctx, t.catalog, s)
	if err != nil {
		return nil, err
	}

	analysis := "No protocols matched this situation - use general approach"
	if len(matches) > 0 {
		analysis = fmt.Sprintf("%d protocol(s) apply; load %s first", len(matches), matches[0].ID)
	}
	return json.Marshal(struct {
		Situation   string      `json:"situation"`
		Count       int         `json:"count"`
		Recommended []Situation `json:"recommended"`
		Analysis    string      `json:"analysis"`
	}{s, len(matches), matches, analysis})
}

// ProtocolIndex returns the master index of the catalog.
type ProtocolIndex struct {
	catalog Catalog
}

// NewProtocolIndex creates the protocol_index tool backed by the given catalog.
func NewProtocolIndex(c Catalog) *ProtocolIndex { return &ProtocolIndex{catalog: c} }

// Name returns "protocol_index".
func (t *ProtocolIndex) Name() string { return "protocol_index" }

// Description tells the client when to call protocol_index.
func (t *ProtocolIndex) Description() string {
	return "Get the master protocol index: counts by status and every protocol grouped by tier."
}

// Parameters returns the JSON schema for the protocol_index arguments.
func (t *ProtocolIndex) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

// Execute returns protocol counts by tier and status and the per-tier listings.
func (t *ProtocolIndex) Execute(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
	idx, err := t.catalog.Index(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(idx)
}
