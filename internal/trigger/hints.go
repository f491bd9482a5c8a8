package trigger

import "strings"

const (
	HintQuestion   = "Question detected - may need clarification or explanation"
	HintPolite     = "Polite request - user expects action"
	HintLongPrompt = "Long prompt - may need to break into sub-tasks"
	HintMultiTopic = "Multiple topic areas detected - complex request"
)

const longPromptLength = 500

// contextHints returns the advisory hints for a prompt in check order.
func contextHints(original, lower string, matchedKeywords int) []string {
	hints := []string{}
	if strings.Contains(lower, "?") {
		hints = append(hints, HintQuestion)
	}
	if strings.Contains(lower, "please") || strings.Contains(lower, "could you") {
		hints = append(hints, HintPolite)
	}
	if textLength(original) > longPromptLength {
		hints = append(hints, HintLongPrompt)
	}
	if matchedKeywords > 2 {
		hints = append(hints, HintMultiTopic)
	}
	return hints
}
