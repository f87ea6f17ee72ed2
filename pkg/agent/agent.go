// Package agent implements the execution engine of the audit analysis
// agent: the action-call parser, the tool registry/dispatcher, and the
// turn-based conversation loop that drives an LLM through a ReAct-style
// investigation of the audit database.
package agent

import "context"

// Role tags a transcript message with its speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one role-tagged entry in the transcript.
// The transcript is append-only within a run and owned by exactly one
// Loop instance; it is never persisted across runs.
type ConversationMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LLMClient abstracts the text-completion backend. The loop treats the
// backend as a black box: it sends the transcript, gets raw text back.
// A backend error is the only fatal, caller-visible failure inside a step.
type LLMClient interface {
	Complete(ctx context.Context, messages []ConversationMessage) (string, error)
}

// ToolResult is the outcome of executing one action call. Result is always
// plain text; dispatch errors are stringified into it rather than raised.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result string `json:"result"`
}

// StepRecord captures one completed step for reporting: the extracted
// thought and the tool calls executed during that step, in order.
type StepRecord struct {
	Step    int          `json:"step"`
	Thought string       `json:"thought"`
	Tools   []ToolResult `json:"tools"`
}

// MaxStepsAnswer is the sentinel answer reported when a run exhausts its
// step budget without producing a final answer.
const MaxStepsAnswer = "Max steps reached."

// RunResult is the terminal outcome of one run.
type RunResult struct {
	// Thought is the reasoning extracted from the terminal reply.
	// Empty when the run was exhausted.
	Thought string

	// Answer is the final answer text, or MaxStepsAnswer on exhaustion.
	Answer string

	// Steps is the full step history accumulated during the run.
	Steps []StepRecord

	// Exhausted is true when the run hit the step budget without a
	// final answer.
	Exhausted bool
}
