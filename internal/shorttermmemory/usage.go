package shorttermmemory

// Usage tracks token consumption for a run. Cached and reasoning tokens are
// broken out because providers price them differently.
type Usage struct {
	PromptTokens       int64 `json:"prompt_tokens"`
	CompletionTokens   int64 `json:"completion_tokens"`
	TotalTokens        int64 `json:"total_tokens"`
	CachedPromptTokens int64 `json:"cached_prompt_tokens,omitempty"`
	ReasoningTokens    int64 `json:"reasoning_tokens,omitempty"`
}

// Add merges the counts of u into the receiver.
func (t *Usage) Add(u *Usage) {
	if u == nil {
		return
	}
	t.PromptTokens += u.PromptTokens
	t.CompletionTokens += u.CompletionTokens
	t.TotalTokens += u.TotalTokens
	t.CachedPromptTokens += u.CachedPromptTokens
	t.ReasoningTokens += u.ReasoningTokens
}

// IsZero reports whether no tokens have been recorded.
func (t Usage) IsZero() bool {
	return t == Usage{}
}
