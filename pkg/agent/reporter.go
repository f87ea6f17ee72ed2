package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Reporter receives the ordered event stream for one run: zero or more
// step events followed by exactly one terminal event (Final or Exhausted).
// Emission is append-only; consumers read it as a sequence.
type Reporter interface {
	// Step reports one completed step.
	Step(rec StepRecord)

	// Final reports a successful termination with the full step history.
	Final(thought, answer string, steps []StepRecord)

	// Exhausted reports a run that hit the step budget.
	Exhausted(steps []StepRecord)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Step(StepRecord)                  {}
func (NopReporter) Final(string, string, []StepRecord) {}
func (NopReporter) Exhausted([]StepRecord)           {}

// StepJSONPrefix marks machine-readable event lines in the output stream,
// letting a UI pick them out of mixed stdout.
const StepJSONPrefix = "STEP_JSON:"

// JSONReporter emits one prefixed, single-line JSON object per event.
// Steps without tool calls (corrective re-prompts) are not streamed; they
// still appear in the step history of the terminal event.
type JSONReporter struct {
	w io.Writer
}

// NewJSONReporter writes events to w, one line each.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

type stepEvent struct {
	Type    string       `json:"type"`
	Step    int          `json:"step"`
	Thought string       `json:"thought"`
	Tools   []ToolResult `json:"tools"`
}

type finalEvent struct {
	Type    string       `json:"type"`
	Thought *string      `json:"thought,omitempty"`
	Answer  string       `json:"answer"`
	Steps   []StepRecord `json:"steps"`
}

func (r *JSONReporter) Step(rec StepRecord) {
	if len(rec.Tools) == 0 {
		return
	}
	r.emit(stepEvent{Type: "step", Step: rec.Step, Thought: rec.Thought, Tools: rec.Tools})
}

func (r *JSONReporter) Final(thought, answer string, steps []StepRecord) {
	r.emit(finalEvent{Type: "final", Thought: &thought, Answer: answer, Steps: normalizeSteps(steps)})
}

func (r *JSONReporter) Exhausted(steps []StepRecord) {
	r.emit(finalEvent{Type: "final", Answer: MaxStepsAnswer, Steps: normalizeSteps(steps)})
}

func (r *JSONReporter) emit(event any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(event); err != nil {
		return
	}
	// Encode appends the newline.
	fmt.Fprintf(r.w, "%s%s", StepJSONPrefix, buf.Bytes())
}

// TerminalReporter renders for a human at a terminal: silent during steps,
// prints the final analysis block on termination.
type TerminalReporter struct {
	w io.Writer
}

// NewTerminalReporter writes human-readable output to w.
func NewTerminalReporter(w io.Writer) *TerminalReporter {
	return &TerminalReporter{w: w}
}

func (r *TerminalReporter) Step(StepRecord) {}

func (r *TerminalReporter) Final(_ string, answer string, _ []StepRecord) {
	fmt.Fprintf(r.w, "\nFINAL ANALYSIS:\n%s\n\n", answer)
	fmt.Fprintln(r.w, divider)
}

func (r *TerminalReporter) Exhausted(_ []StepRecord) {
	fmt.Fprintf(r.w, "\n%s\n", MaxStepsAnswer)
}

const divider = "======================================================================"

func normalizeSteps(steps []StepRecord) []StepRecord {
	if steps == nil {
		return []StepRecord{}
	}
	return steps
}
