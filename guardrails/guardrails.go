// Package guardrails validates and transforms model output before it reaches
// users. Validators run as a pipeline: each one sees the text produced by the
// previous, and may pass it through, rewrite it, or reject it.
package guardrails

import "context"

// Verdict is one validator's judgement of a piece of text.
type Verdict struct {
	// OK is false when the text violates the validator's policy.
	OK bool

	// Text is the (possibly transformed) text handed to the next validator.
	Text string

	// Note explains a rejection or a transformation. Empty when the text
	// passed untouched.
	Note string
}

// Pass accepts text unchanged.
func Pass(text string) Verdict {
	return Verdict{OK: true, Text: text}
}

// Rewrite accepts a transformed version of the text.
func Rewrite(text, note string) Verdict {
	return Verdict{OK: true, Text: text, Note: note}
}

// Reject fails the text.
func Reject(text, note string) Verdict {
	return Verdict{OK: false, Text: text, Note: note}
}

// Validator checks a single policy.
type Validator interface {
	Name() string
	Validate(ctx context.Context, text string) Verdict
}

// Annotation records what one validator had to say.
type Annotation struct {
	Validator string
	OK        bool
	Note      string
}

// Outcome is the result of running a full pipeline.
type Outcome struct {
	// OK is true when every validator accepted the text.
	OK bool

	// Text is the final text after all transformations.
	Text string

	// Annotations holds one entry per validator that rejected or rewrote
	// the text.
	Annotations []Annotation
}

// Engine runs validators in order.
type Engine struct {
	validators []Validator
}

// New creates a pipeline over the given validators.
func New(validators ...Validator) *Engine {
	return &Engine{validators: validators}
}

// Run feeds text through the pipeline. Rejections do not stop the pipeline:
// later validators still see the text so the outcome carries every violation,
// but the overall result is marked failed.
func (e *Engine) Run(ctx context.Context, text string) Outcome {
	outcome := Outcome{OK: true, Text: text}
	for _, v := range e.validators {
		verdict := v.Validate(ctx, outcome.Text)
		outcome.Text = verdict.Text
		if !verdict.OK {
			outcome.OK = false
		}
		if !verdict.OK || verdict.Note != "" {
			outcome.Annotations = append(outcome.Annotations, Annotation{
				Validator: v.Name(),
				OK:        verdict.OK,
				Note:      verdict.Note,
			})
		}
	}
	return outcome
}
