// Package budget divides a finite context window across prompt sections
// and provides the character/token estimates used to enforce it.
package budget

import (
	"math"
	"unicode/utf8"
)

const (
	DefaultTotalTokens        = 128000
	DefaultConstitutionTokens = 500
	DefaultSkillsMaxTokens    = 2000
	DefaultMemoryMaxPercent   = 0.15

	// CharsPerToken is a deliberately conservative estimate.
	CharsPerToken = 4

	// TruncationMarker is appended to content cut by TruncateToTokenBudget.
	TruncationMarker = "\n\n[...truncated to fit context budget]"
)

// Config holds the allocator inputs. Zero fields take their defaults; use
// a negative value to request zero for a fixed or capped section.
type Config struct {
	TotalTokens        int     `yaml:"total_tokens" json:"total_tokens"`
	ConstitutionTokens int     `yaml:"constitution_tokens" json:"constitution_tokens"`
	SkillsMaxTokens    int     `yaml:"skills_max_tokens" json:"skills_max_tokens"`
	MemoryMaxPercent   float64 `yaml:"memory_max_percent" json:"memory_max_percent"`
}

// DefaultConfig returns the stock allocation inputs.
func DefaultConfig() Config {
	return Config{
		TotalTokens:        DefaultTotalTokens,
		ConstitutionTokens: DefaultConstitutionTokens,
		SkillsMaxTokens:    DefaultSkillsMaxTokens,
		MemoryMaxPercent:   DefaultMemoryMaxPercent,
	}
}

// Allocation is the per-request split of the window. The four fields always
// sum to the total.
type Allocation struct {
	Constitution int `json:"constitution"`
	Skills       int `json:"skills"`
	Memory       int `json:"memory"`
	Conversation int `json:"conversation"`
}

// Total returns the sum of all sections.
func (a Allocation) Total() int {
	return a.Constitution + a.Skills + a.Memory + a.Conversation
}

func (c Config) withDefaults() Config {
	if c.TotalTokens == 0 {
		c.TotalTokens = DefaultTotalTokens
	}
	if c.ConstitutionTokens == 0 {
		c.ConstitutionTokens = DefaultConstitutionTokens
	}
	if c.SkillsMaxTokens == 0 {
		c.SkillsMaxTokens = DefaultSkillsMaxTokens
	}
	if c.MemoryMaxPercent == 0 {
		c.MemoryMaxPercent = DefaultMemoryMaxPercent
	}
	return c
}

// Allocate runs the fixed-priority waterfall: constitution, then skills,
// then memory (a fraction of the total), and the remainder goes to the
// conversation.
func Allocate(cfg Config) Allocation {
	cfg = cfg.withDefaults()

	total := nonNegative(cfg.TotalTokens)
	remaining := total

	var a Allocation
	a.Constitution = min(nonNegative(cfg.ConstitutionTokens), remaining)
	remaining -= a.Constitution

	a.Skills = min(nonNegative(cfg.SkillsMaxTokens), remaining)
	remaining -= a.Skills

	pct := cfg.MemoryMaxPercent
	if pct < 0 || math.IsNaN(pct) {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	a.Memory = remaining
	if f := math.Floor(float64(total) * pct); f < float64(remaining) {
		a.Memory = min(int(f), remaining)
	}
	remaining -= a.Memory

	a.Conversation = remaining
	return a
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// TruncateToTokenBudget keeps the prefix of content that fits maxTokens and
// appends TruncationMarker. Content that already fits is returned as is.
func TruncateToTokenBudget(content string, maxTokens int) string {
	maxTokens = nonNegative(maxTokens)
	if maxTokens >= len(content) {
		return content
	}
	maxChars := maxTokens * CharsPerToken
	if utf8.RuneCountInString(content) <= maxChars {
		return content
	}
	runes := []rune(content)
	return string(runes[:maxChars]) + TruncationMarker
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
