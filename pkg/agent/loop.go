package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// FinalMarker introduces the terminal answer in model output. A reply
// terminates the run only when it contains this marker and the action
// marker is literally absent; the two-turn protocol forbids reasoning
// plus conclusion in the same reply.
const FinalMarker = "FINAL ANSWER:"

const thoughtPrefix = "thought:"

const correctivePrompt = "Please use ACTION: tool_name(arguments) or provide your FINAL ANSWER:"

// Config bounds one run of the conversation loop. The limits are enforced
// by the loop, not trusted to the model.
type Config struct {
	// MaxSteps is the hard cap on steps per run. Reaching it terminates
	// the run with the MaxStepsAnswer sentinel.
	MaxSteps int

	// MaxActionsPerStep caps the action lines executed from a single
	// reply; surplus lines are silently dropped.
	MaxActionsPerStep int
}

const (
	DefaultMaxSteps          = 20
	DefaultMaxActionsPerStep = 5
)

// DefaultConfig returns the production bounds.
func DefaultConfig() Config {
	return Config{MaxSteps: DefaultMaxSteps, MaxActionsPerStep: DefaultMaxActionsPerStep}
}

// Loop drives the turn-based state machine: call the model, classify the
// reply, execute bounded actions, fold observations back into the
// transcript, repeat until a final answer or exhaustion.
type Loop struct {
	llm      LLMClient
	registry *Registry
	reporter Reporter
	cfg      Config
}

// NewLoop creates a loop over the given backend, registry, and reporter.
// Non-positive bounds fall back to the defaults; a nil reporter discards
// events.
func NewLoop(llm LLMClient, registry *Registry, reporter Reporter, cfg Config) *Loop {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.MaxActionsPerStep <= 0 {
		cfg.MaxActionsPerStep = DefaultMaxActionsPerStep
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Loop{llm: llm, registry: registry, reporter: reporter, cfg: cfg}
}

// replyOutcome classifies one model reply against the two-phase protocol.
type replyOutcome int

const (
	// outcomeFinal: final marker present, action marker absent.
	outcomeFinal replyOutcome = iota
	// outcomeActions: action marker present, final marker absent.
	outcomeActions
	// outcomeNeither: no marker, or both markers in the same reply.
	outcomeNeither
)

func classifyReply(reply string) replyOutcome {
	hasFinal := strings.Contains(reply, FinalMarker)
	hasAction := strings.Contains(reply, ActionMarker)
	switch {
	case hasFinal && !hasAction:
		return outcomeFinal
	case hasAction && !hasFinal:
		return outcomeActions
	default:
		return outcomeNeither
	}
}

// Run executes one session over the given initial transcript (system
// instructions plus the user question) and returns the terminal outcome.
// Only a backend error is fatal; every tool-level failure is folded back
// into the transcript as an observation.
func (l *Loop) Run(ctx context.Context, initial []ConversationMessage) (*RunResult, error) {
	messages := make([]ConversationMessage, len(initial))
	copy(messages, initial)

	steps := []StepRecord{}

	for step := 1; step <= l.cfg.MaxSteps; step++ {
		reply, err := l.llm.Complete(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("model call failed at step %d: %w", step, err)
		}

		thought := ExtractThought(reply)

		outcome := classifyReply(reply)
		if outcome == outcomeFinal {
			answer := extractFinalAnswer(reply)
			l.reporter.Final(thought, answer, steps)
			return &RunResult{Thought: thought, Answer: answer, Steps: steps}, nil
		}

		results := []ToolResult{}
		var observations []string
		if outcome == outcomeActions {
			actionLines := CollectActionLines(reply)
			if surplus := len(actionLines) - l.cfg.MaxActionsPerStep; surplus > 0 {
				slog.Warn("dropping surplus action lines", "step", step, "dropped", surplus)
				actionLines = actionLines[:l.cfg.MaxActionsPerStep]
			}
			for _, line := range actionLines {
				// A malformed line consumes its slot but produces nothing.
				call, ok := ParseActionLine(line)
				if !ok {
					continue
				}
				res := l.registry.Execute(ctx, call)
				results = append(results, res)
				observations = append(observations, fmt.Sprintf("Tool: %s\nResult: %s", res.Tool, res.Result))
			}
		}

		rec := StepRecord{Step: step, Thought: thought, Tools: results}
		l.reporter.Step(rec)
		steps = append(steps, rec)

		messages = append(messages, ConversationMessage{Role: RoleAssistant, Content: reply})
		if len(results) > 0 {
			messages = append(messages, ConversationMessage{Role: RoleUser, Content: observationPrompt(observations)})
		} else {
			// No executable action and no final answer: demand one.
			messages = append(messages, ConversationMessage{Role: RoleUser, Content: correctivePrompt})
		}
	}

	l.reporter.Exhausted(steps)
	return &RunResult{Answer: MaxStepsAnswer, Steps: steps, Exhausted: true}, nil
}

// ExtractThought returns the content of the first line whose trimmed text
// starts with "Thought:" (case-insensitive). Absence is not an error; the
// thought exists for reporting only.
func ExtractThought(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= len(thoughtPrefix) && strings.EqualFold(trimmed[:len(thoughtPrefix)], thoughtPrefix) {
			return strings.TrimSpace(trimmed[len(thoughtPrefix):])
		}
	}
	return ""
}

// extractFinalAnswer takes everything after the last final marker, trims
// it, and scrubs interactive-shell artifacts the model sometimes echoes.
func extractFinalAnswer(reply string) string {
	idx := strings.LastIndex(reply, FinalMarker)
	answer := strings.TrimSpace(reply[idx+len(FinalMarker):])
	answer = strings.ReplaceAll(answer, "You: quit", "")
	answer = strings.ReplaceAll(answer, "Goodbye!", "")
	return strings.TrimSpace(answer)
}

func observationPrompt(observations []string) string {
	return "OBSERVATIONS:\n" + strings.Join(observations, "\n\n") +
		"\n\nBased on these observations, what is your next step? " +
		"If done, provide FINAL ANSWER. Do NOT include ACTION lines if concluding."
}
