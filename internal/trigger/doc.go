// Package trigger resolves free-form prompts to the protocols that should be
// loaded before answering them. The Service owns validation, loop-prevention
// dedup and the quick-response filter; the Engine does the keyword scan,
// situation matching, tier ordering and context hints.
package trigger
