package guardrails

type ValidationResult struct {
	IsValid  bool   // true = allowed ; false = blocked
	Reason   string // Why the query was blocked
	Category string // "toxic", "prompt_injection", "pii", "malicious"
	Method   string // "static" or "claude"
}
