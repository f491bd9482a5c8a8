package trigger

import "github.com/linnemanlabs/mikey/internal/protocol"

const (
	ReasonDuplicate = "Already processed this prompt recently - preventing loop"
	ReasonQuick     = "Quick response pattern detected"
	ErrMsgNoPrompt  = "No prompt provided"

	RecommendNone = "No specific protocols triggered - use general approach"
)

// LoadCommand returns the invocation hint for reading a protocol.
func LoadCommand(id string) string {
	return "mikey_protocol_read " + id
}

// Request is the input to Service.Process. Prompt is untyped so that a
// missing or non-string value is reported in the result, not by the decoder.
type Request struct {
	Prompt any `json:"prompt"`
}

// ProtocolSummary is the projection of a protocol returned to callers.
type ProtocolSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Tier        protocol.Tier `json:"tier"`
	Purpose     string        `json:"purpose"`
	LoadCommand string        `json:"loadCommand"`
}

// Result is the outcome of processing one prompt. Skip results carry Reason
// (or Error, for invalid input); full results carry the analysis fields.
// The slices are never nil.
type Result struct {
	Processed          bool              `json:"processed"`
	SkipProcessing     bool              `json:"skipProcessing"`
	Reason             string            `json:"reason,omitempty"`
	Error              string            `json:"error,omitempty"`
	PromptLength       int               `json:"promptLength,omitempty"`
	MatchedKeywords    []string          `json:"matchedKeywords"`
	TriggeredProtocols []ProtocolSummary `json:"triggeredProtocols"`
	ContextHints       []string          `json:"contextHints"`
	Recommendation     string            `json:"recommendation,omitempty"`
}

// Outcome classifies a Result for logs and metrics.
type Outcome string

const (
	OutcomeInvalid   Outcome = "invalid"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeQuick     Outcome = "quick"
	OutcomeAnalyzed  Outcome = "analyzed"

	// OutcomeError marks a run that failed on a collaborator. It is never
	// returned by Result.Outcome.
	OutcomeError Outcome = "error"
)

// Outcome reports which path produced r.
func (r *Result) Outcome() Outcome {
	switch {
	case !r.Processed:
		return OutcomeInvalid
	case r.SkipProcessing && r.Reason == ReasonDuplicate:
		return OutcomeDuplicate
	case r.SkipProcessing:
		return OutcomeQuick
	default:
		return OutcomeAnalyzed
	}
}

func skipResult(processed bool, reason, errMsg string) *Result {
	return &Result{
		Processed:          processed,
		SkipProcessing:     true,
		Reason:             reason,
		Error:              errMsg,
		MatchedKeywords:    []string{},
		TriggeredProtocols: []ProtocolSummary{},
		ContextHints:       []string{},
	}
}
