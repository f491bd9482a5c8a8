package trigger

import "strings"

// TriggerEntry maps a trigger phrase to the protocols it implies.
type TriggerEntry struct {
	Phrase      string
	ProtocolIDs []string
}

// Keywords is the trigger table. Order is significant: matched phrases are
// reported in table order, and protocol ids are merged in first-seen order.
var Keywords = []TriggerEntry{
	// errors and problems
	{"error", []string{"error-recovery"}},
	{"failed", []string{"error-recovery"}},
	{"broken", []string{"error-recovery"}},
	{"not working", []string{"error-recovery"}},
	{"bug", []string{"error-recovery"}},
	{"fix", []string{"error-recovery"}},
	{"issue", []string{"error-recovery"}},

	// project creation
	{"create project", []string{"create-project"}},
	{"new project", []string{"create-project"}},
	{"set up repo", []string{"create-project"}},
	{"scaffold", []string{"create-project"}},
	{"initialize", []string{"create-project"}},

	// writing
	{"write article", []string{"medium-article", "document-writing"}},
	{"medium", []string{"medium-article"}},
	{"blog post", []string{"medium-article"}},
	{"document", []string{"document-writing"}},
	{"paper", []string{"document-writing"}},
	{"draft", []string{"document-writing"}},

	// tools and permissions
	{"mcp", []string{"naming-linter", "mcp-permissions"}},
	{"tool", []string{"naming-linter", "protocol-graduation"}},
	{"permission", []string{"mcp-permissions"}},

	// protocol lifecycle
	{"protocol", []string{"protocol-writing", "protocol-lifecycle", "protocol-error-correction"}},
	{"new protocol", []string{"protocol-writing"}},
	{"update protocol", []string{"protocol-error-correction"}},
	{"protocol failed", []string{"protocol-error-correction"}},

	// architecture
	{"architecture", []string{"architecture-update"}},
	{"moved", []string{"architecture-update"}},
	{"relocated", []string{"architecture-update"}},

	// communication
	{"explain", []string{"user-communication"}},
	{"clarify", []string{"user-communication"}},
	{"confused", []string{"user-communication", "task-approach"}},

	// information integration
	{"multiple sources", []string{"information-integration"}},
	{"conflicting", []string{"information-integration"}},
	{"compare", []string{"information-integration"}},

	// general task help
	{"help me", []string{"task-approach"}},
	{"how do i", []string{"task-approach"}},
	{"can you", []string{"task-approach"}},
}

// idSet is an insertion-ordered set of protocol ids.
type idSet struct {
	order []string
	seen  map[string]struct{}
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{})}
}

func (s *idSet) add(ids ...string) {
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		s.order = append(s.order, id)
	}
}

// scanKeywords returns every table phrase contained in lower, in table
// order, and adds their protocol ids to ids. Matching is plain substring
// containment with no word boundaries.
func scanKeywords(table []TriggerEntry, lower string, ids *idSet) []string {
	matched := []string{}
	for _, e := range table {
		if strings.Contains(lower, e.Phrase) {
			matched = append(matched, e.Phrase)
			ids.add(e.ProtocolIDs...)
		}
	}
	return matched
}
