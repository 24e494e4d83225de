package guardrails

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"
)

// LengthPolicy bounds the length of the text in runes.
type LengthPolicy struct {
	// MinRunes rejects text shorter than this. Zero disables the check.
	MinRunes int

	// MaxRunes bounds the text length. Zero disables the check.
	MaxRunes int

	// Truncate cuts over-long text down to MaxRunes instead of rejecting it.
	Truncate bool
}

// Length enforces a LengthPolicy.
func Length(policy LengthPolicy) Validator {
	return lengthValidator{policy: policy}
}

type lengthValidator struct {
	policy LengthPolicy
}

func (lengthValidator) Name() string { return "length" }

func (v lengthValidator) Validate(_ context.Context, text string) Verdict {
	n := utf8.RuneCountInString(text)
	if v.policy.MinRunes > 0 && n < v.policy.MinRunes {
		return Reject(text, fmt.Sprintf("%d runes, need at least %d", n, v.policy.MinRunes))
	}
	if v.policy.MaxRunes > 0 && n > v.policy.MaxRunes {
		if !v.policy.Truncate {
			return Reject(text, fmt.Sprintf("%d runes, limit is %d", n, v.policy.MaxRunes))
		}
		runes := []rune(text)
		return Rewrite(string(runes[:v.policy.MaxRunes]), fmt.Sprintf("truncated from %d to %d runes", n, v.policy.MaxRunes))
	}
	return Pass(text)
}

// FormatPolicy requires the text to be a JSON document.
type FormatPolicy struct {
	// Repair attempts to fix malformed JSON (unquoted keys, single quotes,
	// trailing commas, markdown fences) before rejecting it.
	Repair bool

	// RequiredPaths are gjson paths that must exist in the document.
	RequiredPaths []string
}

// Format enforces a FormatPolicy.
func Format(policy FormatPolicy) Validator {
	return formatValidator{policy: policy}
}

type formatValidator struct {
	policy FormatPolicy
}

func (formatValidator) Name() string { return "format" }

func (v formatValidator) Validate(_ context.Context, text string) Verdict {
	doc := text
	repaired := false
	if !gjson.Valid(doc) {
		if !v.policy.Repair {
			return Reject(text, "not valid JSON")
		}
		fixed, err := jsonrepair.JSONRepair(doc)
		if err != nil || !gjson.Valid(fixed) {
			return Reject(text, "not valid JSON and could not be repaired")
		}
		doc = fixed
		repaired = true
	}

	for _, path := range v.policy.RequiredPaths {
		if !gjson.Get(doc, path).Exists() {
			return Reject(doc, fmt.Sprintf("missing required path %q", path))
		}
	}

	if repaired {
		return Rewrite(doc, "repaired malformed JSON")
	}
	return Pass(doc)
}

// ContentPolicy rejects text containing blocked terms or patterns.
type ContentPolicy struct {
	// BlockedTerms are matched case-insensitively as substrings.
	BlockedTerms []string

	// BlockedPatterns are matched as-is.
	BlockedPatterns []*regexp.Regexp
}

// Content enforces a ContentPolicy.
func Content(policy ContentPolicy) Validator {
	return contentValidator{policy: policy}
}

type contentValidator struct {
	policy ContentPolicy
}

func (contentValidator) Name() string { return "content_policy" }

func (v contentValidator) Validate(_ context.Context, text string) Verdict {
	lower := strings.ToLower(text)
	for _, term := range v.policy.BlockedTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			return Reject(text, fmt.Sprintf("contains blocked term %q", term))
		}
	}
	for _, pattern := range v.policy.BlockedPatterns {
		if pattern.MatchString(text) {
			return Reject(text, fmt.Sprintf("matches blocked pattern %q", pattern.String()))
		}
	}
	return Pass(text)
}

// piiPattern order matters: credit cards before phone numbers, so a 16-digit
// card is not partially consumed as a phone number.
var piiPatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"credit_card", regexp.MustCompile(`\b\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{4}\b`)},
	{"phone", regexp.MustCompile(`\(?\d{3}\)?[ .-]?\d{3}[ .-]?\d{4}\b`)},
	{"email", regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)},
}

// PIIPolicy controls what happens when personal data shows up in the text.
type PIIPolicy struct {
	// Redact replaces each finding with a [REDACTED:<kind>] marker instead
	// of rejecting the text.
	Redact bool
}

// PII detects emails, phone numbers, SSNs and credit card numbers.
func PII(policy PIIPolicy) Validator {
	return piiValidator{policy: policy}
}

type piiValidator struct {
	policy PIIPolicy
}

func (piiValidator) Name() string { return "pii" }

func (v piiValidator) Validate(_ context.Context, text string) Verdict {
	var found []string
	out := text
	for _, p := range piiPatterns {
		if !p.pattern.MatchString(out) {
			continue
		}
		found = append(found, p.kind)
		if v.policy.Redact {
			out = p.pattern.ReplaceAllString(out, "[REDACTED:"+p.kind+"]")
		}
	}

	if len(found) == 0 {
		return Pass(text)
	}
	note := "detected " + strings.Join(found, ", ")
	if v.policy.Redact {
		return Rewrite(out, note+" (redacted)")
	}
	return Reject(text, note)
}

// defaultHedges is boilerplate that adds no information to an answer.
var defaultHedges = []string{
	"as an ai language model",
	"as an ai,",
	"i apologize, but",
	"i'm sorry, but i cannot",
	"i am sorry, but i cannot",
	"unfortunately, i am unable",
	"it is important to note that",
}

// Tone rejects hedging and apology boilerplate. With no phrases given, a
// default denylist applies.
func Tone(phrases ...string) Validator {
	if len(phrases) == 0 {
		phrases = defaultHedges
	}
	return toneValidator{phrases: phrases}
}

type toneValidator struct {
	phrases []string
}

func (toneValidator) Name() string { return "tone" }

func (v toneValidator) Validate(_ context.Context, text string) Verdict {
	lower := strings.ToLower(text)
	for _, phrase := range v.phrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return Reject(text, fmt.Sprintf("contains boilerplate %q", phrase))
		}
	}
	return Pass(text)
}
