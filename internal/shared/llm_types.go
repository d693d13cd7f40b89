package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta describes one model call and its token cost.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
	CacheHit  bool
}

// Empty reports whether the call consumed no tokens, e.g. a cache hit or a
// request that failed before reaching the model.
func (m AgentMeta) Empty() bool {
	return m.Usage.PromptTokens == 0 && m.Usage.CompletionTokens == 0
}
