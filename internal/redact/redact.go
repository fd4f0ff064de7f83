// Package redact strips credential-shaped substrings from text before it is
// persisted or handed to a model.
package redact

import "regexp"

// Placeholder replaces every redacted credential.
const Placeholder = "[REDACTED]"

// maxPasses bounds the fixpoint loop in Sanitize. One pass is enough for
// every default rule; the second only confirms nothing changed.
const maxPasses = 3

// Rule is one entry of the redaction table. Replacement may reference
// capture groups of Pattern (e.g. "${1}" to keep a key name).
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultRules is the ordered redaction table. No replacement output can be
// matched again by any rule: value classes never admit '['. RE2 has no
// lookbehind, so prefix-anchored rules capture the preceding byte and put
// it back.
var DefaultRules = []Rule{
	{
		Name:        "pem-private-key-block",
		Pattern:     regexp.MustCompile(`-----BEGIN (?:[A-Z0-9]+ )*PRIVATE KEY-----[\s\S]*?-----END (?:[A-Z0-9]+ )*PRIVATE KEY-----`),
		Replacement: Placeholder,
	},
	{
		Name:        "pem-private-key-header",
		Pattern:     regexp.MustCompile(`-----BEGIN (?:[A-Z0-9]+ )*PRIVATE KEY-----`),
		Replacement: Placeholder,
	},
	{
		Name:        "connection-string",
		Pattern:     regexp.MustCompile(`(?i)\b((?:postgres(?:ql)?|mysql|mariadb|mongodb(?:\+srv)?|rediss?|amqps?|mssql|sqlserver)://)[^\s'"<>\[\]]+`),
		Replacement: "${1}" + Placeholder,
	},
	{
		Name:        "anthropic-key",
		Pattern:     regexp.MustCompile(`(^|[^A-Za-z0-9_-])sk-ant-(?:[a-z]+[0-9]*-)?[A-Za-z0-9_]{20,}[A-Za-z0-9_-]*`),
		Replacement: "${1}" + Placeholder,
	},
	{
		Name:        "openai-key",
		Pattern:     regexp.MustCompile(`(^|[^A-Za-z0-9_-])sk-(?:proj-|svcacct-|admin-)?[A-Za-z0-9_]{20,}[A-Za-z0-9_-]*`),
		Replacement: "${1}" + Placeholder,
	},
	{
		Name:        "stripe-key",
		Pattern:     regexp.MustCompile(`\b[sr]k_(?:live|test)_[A-Za-z0-9]{16,}`),
		Replacement: Placeholder,
	},
	{
		Name:        "github-token",
		Pattern:     regexp.MustCompile(`\b(?:gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})`),
		Replacement: Placeholder,
	},
	{
		Name:        "slack-token",
		Pattern:     regexp.MustCompile(`\bxox[abprs]-[A-Za-z0-9-]{10,}`),
		Replacement: Placeholder,
	},
	{
		Name:        "google-api-key",
		Pattern:     regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}`),
		Replacement: Placeholder,
	},
	{
		Name:        "aws-access-key-id",
		Pattern:     regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
		Replacement: Placeholder,
	},
	{
		Name:        "jwt",
		Pattern:     regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{5,}\.eyJ[A-Za-z0-9_-]{5,}\.[A-Za-z0-9_-]{5,}`),
		Replacement: Placeholder,
	},
	{
		Name:        "bearer-token",
		Pattern:     regexp.MustCompile(`(?i)\b(bearer)\s+[A-Za-z0-9\-._~+/]{8,}=*`),
		Replacement: "${1} " + Placeholder,
	},
	{
		Name:        "secret-assignment",
		Pattern:     regexp.MustCompile(`(?i)\b([a-z0-9_.-]*(?:api[_-]?key|apikey|secret|token|passwd|password|access[_-]?key|private[_-]?key)[a-z0-9_.-]*)(\s*[:=]\s*)["']?[^\s"'\[\],;]{6,}["']?`),
		Replacement: "${1}${2}" + Placeholder,
	},
}

// Filter applies an ordered rule table.
type Filter struct {
	rules []Rule
}

var defaultFilter = New(DefaultRules...)

// New returns a Filter over rules, applied in order.
func New(rules ...Rule) *Filter {
	r := make([]Rule, len(rules))
	copy(r, rules)
	return &Filter{rules: r}
}

// With returns a new Filter with extra rules appended after the existing ones.
func (f *Filter) With(rules ...Rule) *Filter {
	combined := make([]Rule, 0, len(f.rules)+len(rules))
	combined = append(combined, f.rules...)
	combined = append(combined, rules...)
	return &Filter{rules: combined}
}

// Rules returns a copy of the filter's table.
func (f *Filter) Rules() []Rule {
	r := make([]Rule, len(f.rules))
	copy(r, f.rules)
	return r
}

// Sanitize replaces every credential match with the placeholder. It is
// total over arbitrary input and idempotent.
func (f *Filter) Sanitize(text string) string {
	if text == "" {
		return text
	}
	for i := 0; i < maxPasses; i++ {
		out := f.apply(text)
		if out == text {
			break
		}
		text = out
	}
	return text
}

func (f *Filter) apply(text string) string {
	for _, r := range f.rules {
		if r.Pattern == nil {
			continue
		}
		text = r.Pattern.ReplaceAllString(text, r.Replacement)
	}
	return text
}

// Sanitize runs the default filter.
func Sanitize(text string) string {
	return defaultFilter.Sanitize(text)
}
