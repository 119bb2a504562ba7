// Package prompt maps scenarios to model prompt templates.
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScenario is returned when no template is registered for a
// scenario. There is deliberately no fallback template: an unrecognized
// scenario is a configuration error, not a prompt variant.
var ErrUnknownScenario = errors.New("unknown scenario")

// Fields are the substitution inputs a template may consume.
type Fields struct {
	Context  string
	History  string
	Question string
}

// Scenario names accepted by the builder.
const (
	ScenarioRequirements  = "requirements"
	ScenarioOpsAssistant  = "ops-assistant"
	ScenarioProductManual = "product-manual"
)

const requirementsTemplate = `You are a senior requirements analyst. Work with the user to
uncover the real need behind their request, asking focused follow-up questions
where the requirement is ambiguous, and summarize agreed requirements as
testable statements.

Conversation so far:
%[1]s

User: %[2]s`

const opsAssistantTemplate = `You are an operations assistant for an internal tooling platform.
Answer strictly from the reference material below; if the material does not
cover the question, say so instead of guessing.

Reference material:
%[1]s

Conversation so far:
%[2]s

User: %[3]s`

const productManualTemplate = `You are a product support assistant. Base your answer on the
product manual excerpts below, citing the relevant section where possible.

Manual excerpts:
%[1]s

Conversation so far:
%[2]s

User: %[3]s`

const titleTemplate = `Produce a short title, at most ten characters, summarizing the
topic of the following message. Reply with the title only, no punctuation.

Message: %s`

// Builder renders scenario prompts.
type Builder struct{}

// NewBuilder creates a prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build renders the prompt for a scenario. Unknown scenarios fail with
// ErrUnknownScenario.
func (b *Builder) Build(scenario string, f Fields) (string, error) {
	question := sanitize(f.Question)
	history := sanitize(f.History)
	context := sanitize(f.Context)

	switch scenario {
	case ScenarioRequirements:
		return fmt.Sprintf(requirementsTemplate, history, question), nil
	case ScenarioOpsAssistant:
		return fmt.Sprintf(opsAssistantTemplate, context, history, question), nil
	case ScenarioProductManual:
		return fmt.Sprintf(productManualTemplate, context, history, question), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, scenario)
	}
}

// BuildTitle renders the title-generation prompt. It consumes only the
// question and is not a selectable chat scenario.
func (b *Builder) BuildTitle(question string) string {
	return fmt.Sprintf(titleTemplate, sanitize(question))
}

// Known reports whether a scenario has a registered template.
func Known(scenario string) bool {
	switch scenario {
	case ScenarioRequirements, ScenarioOpsAssistant, ScenarioProductManual:
		return true
	}
	return false
}

// sanitize strips control characters from substituted fields so user input
// cannot smuggle terminal escapes or protocol framing into the model call.
// Newlines and tabs are kept; they are legitimate in history and context.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			return -1
		}
		return r
	}, s)
}
