package protocol

// Tier is the priority class of a protocol. Lower tiers are more critical.
type Tier int

const (
	// TierMeta protocols run before everything else.
	TierMeta Tier = 0

	// TierSystem protocols affect the whole system.
	TierSystem Tier = 1

	// TierFoundation protocols cover general working practice.
	TierFoundation Tier = 2

	// TierWorkflow protocols are task specific.
	TierWorkflow Tier = 3
)

// String returns the tier's display label.
func (t Tier) String() string {
	switch t {
	case TierMeta:
		return "meta"
	case TierSystem:
		return "system"
	case TierFoundation:
		return "foundation"
	case TierWorkflow:
		return "workflow"
	default:
		return "custom"
	}
}

// Status tracks the lifecycle of a protocol document.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusDeprecated Status = "deprecated"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeprecated:
		return true
	}
	return false
}

// Protocol is a catalogued advisory document.
type Protocol struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Version       string   `json:"version" yaml:"version"`
	Tier          Tier     `json:"tier" yaml:"tier"`
	Purpose       string   `json:"purpose" yaml:"purpose"`
	Triggers      []string `json:"triggers" yaml:"triggers"`
	Keywords      []string `json:"keywords,omitempty" yaml:"keywords"`
	Status        Status   `json:"status" yaml:"status"`
	ImplementedBy string   `json:"implemented_by,omitempty" yaml:"implemented_by"`
	Content       string   `json:"content,omitempty" yaml:"content"`
}

// Clone returns a deep copy so callers never share slices with a store.
func (p *Protocol) Clone() *Protocol {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Triggers = append([]string(nil), p.Triggers...)
	cp.Keywords = append([]string(nil), p.Keywords...)
	return &cp
}
