package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM replays canned replies and records every transcript it saw.
type scriptedLLM struct {
	replies []string
	err     error
	calls   [][]ConversationMessage
}

func (s *scriptedLLM) Complete(_ context.Context, messages []ConversationMessage) (string, error) {
	snapshot := make([]ConversationMessage, len(messages))
	copy(snapshot, messages)
	s.calls = append(s.calls, snapshot)
	if s.err != nil {
		return "", s.err
	}
	if len(s.calls) > len(s.replies) {
		return "", errors.New("script exhausted")
	}
	return s.replies[len(s.calls)-1], nil
}

// countingTool records how often it was called and with what.
type countingTool struct {
	name  string
	calls []*ParsedCall
}

func (c *countingTool) Name() string        { return c.name }
func (c *countingTool) Description() string { return "counting tool" }
func (c *countingTool) Call(_ context.Context, args []Value, kwargs map[string]Value) (string, error) {
	c.calls = append(c.calls, &ParsedCall{Tool: c.name, Args: args, Kwargs: kwargs})
	return fmt.Sprintf("call %d ok", len(c.calls)), nil
}

func initialMessages(question string) []ConversationMessage {
	return []ConversationMessage{
		{Role: RoleSystem, Content: "You are a security analyst."},
		{Role: RoleUser, Content: question},
	}
}

func TestLoop_EndToEnd(t *testing.T) {
	schema := &countingTool{name: "get_table_schema"}
	llm := &scriptedLLM{replies: []string{
		"Thought: check schema\nACTION: get_table_schema(users)",
		"Thought: done\nFINAL ANSWER: No suspicious activity.",
	}}

	loop := NewLoop(llm, NewRegistry(schema), nil, DefaultConfig())
	result, err := loop.Run(context.Background(), initialMessages("anything odd?"))
	require.NoError(t, err)

	assert.Equal(t, "No suspicious activity.", result.Answer)
	assert.Equal(t, "done", result.Thought)
	assert.False(t, result.Exhausted)

	require.Len(t, result.Steps, 1)
	require.Len(t, result.Steps[0].Tools, 1)
	assert.Equal(t, "get_table_schema", result.Steps[0].Tools[0].Tool)
	assert.Equal(t, "check schema", result.Steps[0].Thought)

	require.Len(t, schema.calls, 1)
	assert.Equal(t, []Value{StringValue("users")}, schema.calls[0].Args)
}

func TestLoop_ObservationsFedBack(t *testing.T) {
	tool := &countingTool{name: "list_tables"}
	llm := &scriptedLLM{replies: []string{
		"Thought: look around\nACTION: list_tables()",
		"Thought: fine\nFINAL ANSWER: all good",
	}}

	loop := NewLoop(llm, NewRegistry(tool), nil, DefaultConfig())
	_, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	require.Len(t, llm.calls, 2)
	second := llm.calls[1]
	last := second[len(second)-1]
	assert.Equal(t, RoleUser, last.Role)
	assert.Contains(t, last.Content, "OBSERVATIONS:")
	assert.Contains(t, last.Content, "Tool: list_tables")
	assert.Contains(t, last.Content, "Result: call 1 ok")

	// The assistant reply itself is in the transcript before the observations.
	assert.Equal(t, RoleAssistant, second[len(second)-2].Role)
}

func TestLoop_ActionCapPerStep(t *testing.T) {
	tool := &countingTool{name: "t"}
	var lines []string
	for i := 0; i < 7; i++ {
		lines = append(lines, fmt.Sprintf("ACTION: t(%d)", i))
	}
	llm := &scriptedLLM{replies: []string{
		"Thought: busy\n" + strings.Join(lines, "\n"),
		"Thought: done\nFINAL ANSWER: finished",
	}}

	loop := NewLoop(llm, NewRegistry(tool), nil, DefaultConfig())
	result, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	assert.Len(t, tool.calls, 5)
	require.Len(t, result.Steps, 1)
	assert.Len(t, result.Steps[0].Tools, 5)
}

func TestLoop_MalformedActionLineConsumesSlot(t *testing.T) {
	tool := &countingTool{name: "t"}
	reply := "Thought: sloppy\n" +
		"ACTION: t(unclosed\n" + // malformed, burns a slot
		"ACTION: t(1)\nACTION: t(2)\nACTION: t(3)\nACTION: t(4)\nACTION: t(5)"
	llm := &scriptedLLM{replies: []string{reply, "FINAL ANSWER: done"}}

	loop := NewLoop(llm, NewRegistry(tool), nil, DefaultConfig())
	_, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	assert.Len(t, tool.calls, 4)
}

func TestLoop_FinalWithActionDoesNotTerminate(t *testing.T) {
	tool := &countingTool{name: "t"}
	llm := &scriptedLLM{replies: []string{
		"Thought: rushing\nACTION: t(1)\nFINAL ANSWER: premature",
		"Thought: properly now\nFINAL ANSWER: the real answer",
	}}

	loop := NewLoop(llm, NewRegistry(tool), nil, DefaultConfig())
	result, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	// Mixing both markers defeats the final branch and suppresses execution.
	assert.Empty(t, tool.calls)
	assert.Equal(t, "the real answer", result.Answer)

	require.Len(t, llm.calls, 2)
	second := llm.calls[1]
	assert.Equal(t, correctivePrompt, second[len(second)-1].Content)

	require.Len(t, result.Steps, 1)
	assert.Empty(t, result.Steps[0].Tools)
}

func TestLoop_NoMarkersTriggersCorrectiveReprompt(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"I am not sure what to do here.",
		"Thought: ok\nFINAL ANSWER: sorted",
	}}

	loop := NewLoop(llm, NewRegistry(), nil, DefaultConfig())
	result, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	assert.Equal(t, "sorted", result.Answer)
	second := llm.calls[1]
	assert.Equal(t, correctivePrompt, second[len(second)-1].Content)
}

func TestLoop_UnknownToolBecomesObservation(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"Thought: guessing\nACTION: not_a_tool(1)",
		"Thought: ok\nFINAL ANSWER: done",
	}}

	loop := NewLoop(llm, NewRegistry(), nil, DefaultConfig())
	result, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	require.Len(t, result.Steps, 1)
	require.Len(t, result.Steps[0].Tools, 1)
	assert.Equal(t, "Error: unknown tool 'not_a_tool'", result.Steps[0].Tools[0].Result)

	second := llm.calls[1]
	assert.Contains(t, second[len(second)-1].Content, "unknown tool 'not_a_tool'")
}

func TestLoop_MaxStepsExhaustion(t *testing.T) {
	replies := make([]string, DefaultMaxSteps)
	for i := range replies {
		replies[i] = "Thought: stalling\nno actionable content"
	}
	llm := &scriptedLLM{replies: replies}

	loop := NewLoop(llm, NewRegistry(), nil, DefaultConfig())
	result, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	assert.True(t, result.Exhausted)
	assert.Equal(t, MaxStepsAnswer, result.Answer)
	assert.Empty(t, result.Thought)
	assert.Len(t, result.Steps, DefaultMaxSteps)
	assert.Len(t, llm.calls, DefaultMaxSteps)
}

func TestLoop_SmallBoundsFromConfig(t *testing.T) {
	replies := []string{"nothing", "nothing", "nothing", "nothing"}
	llm := &scriptedLLM{replies: replies}

	loop := NewLoop(llm, NewRegistry(), nil, Config{MaxSteps: 3, MaxActionsPerStep: 1})
	result, err := loop.Run(context.Background(), initialMessages("q"))
	require.NoError(t, err)

	assert.True(t, result.Exhausted)
	assert.Len(t, result.Steps, 3)
}

func TestLoop_BackendErrorIsFatal(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("upstream unavailable")}

	loop := NewLoop(llm, NewRegistry(), nil, DefaultConfig())
	result, err := loop.Run(context.Background(), initialMessages("q"))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestLoop_InitialTranscriptNotMutated(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"FINAL ANSWER: ok"}}
	initial := initialMessages("q")
	loop := NewLoop(llm, NewRegistry(), nil, DefaultConfig())

	_, err := loop.Run(context.Background(), initial)
	require.NoError(t, err)
	assert.Len(t, initial, 2)
}

func TestExtractThought(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"standard", "Thought: check schema\nACTION: x()", "check schema"},
		{"case-insensitive", "THOUGHT: loud reasoning", "loud reasoning"},
		{"first match wins", "Thought: first\nThought: second", "first"},
		{"absent", "ACTION: x()", ""},
		{"not at line start", "my Thought: hidden", ""},
		{"leading whitespace", "   thought: indented", "indented"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractThought(tt.reply))
		})
	}
}

func TestExtractFinalAnswer_ScrubsShellArtifacts(t *testing.T) {
	reply := "Thought: wrapping up\nFINAL ANSWER: All clear.\nYou: quit\nGoodbye!"
	assert.Equal(t, "All clear.", extractFinalAnswer(reply))
}

func TestExtractFinalAnswer_LastMarkerWins(t *testing.T) {
	reply := "FINAL ANSWER: draft\nsome revision\nFINAL ANSWER: the verdict"
	assert.Equal(t, "the verdict", extractFinalAnswer(reply))
}

func TestClassifyReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  replyOutcome
	}{
		{"pure final", "FINAL ANSWER: done", outcomeFinal},
		{"pure action", "ACTION: x()", outcomeActions},
		{"both markers", "ACTION: x()\nFINAL ANSWER: done", outcomeNeither},
		{"neither marker", "just prose", outcomeNeither},
		{"mid-line action marker still counts", "I would run ACTION: x() next", outcomeActions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyReply(tt.reply))
		})
	}
}
