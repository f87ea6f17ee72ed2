package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionLine_WellFormed(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantTool   string
		wantArgs   []Value
		wantKwargs map[string]Value
	}{
		{
			name:       "bare tool name without parens",
			line:       "ACTION: list_tables",
			wantTool:   "list_tables",
			wantArgs:   []Value{},
			wantKwargs: map[string]Value{},
		},
		{
			name:       "zero-arg call",
			line:       "ACTION: list_tables()",
			wantTool:   "list_tables",
			wantArgs:   []Value{},
			wantKwargs: map[string]Value{},
		},
		{
			name:       "positional and keyword mix",
			line:       "ACTION: NAME(a, b, k=v)",
			wantTool:   "NAME",
			wantArgs:   []Value{StringValue("a"), StringValue("b")},
			wantKwargs: map[string]Value{"k": StringValue("v")},
		},
		{
			name:       "scalar coercion across arguments",
			line:       "ACTION: tool(42, 3.5, true, none, 'x,y')",
			wantTool:   "tool",
			wantArgs:   []Value{IntValue(42), FloatValue(3.5), BoolValue(true), NullValue(), StringValue("x,y")},
			wantKwargs: map[string]Value{},
		},
		{
			name:       "double quotes protect embedded single quote",
			line:       `ACTION: NAME(x="it's fine")`,
			wantTool:   "NAME",
			wantArgs:   []Value{},
			wantKwargs: map[string]Value{"x": StringValue("it's fine")},
		},
		{
			name:       "single quotes protect embedded double quote",
			line:       `ACTION: NAME(x='say "hi"')`,
			wantTool:   "NAME",
			wantArgs:   []Value{},
			wantKwargs: map[string]Value{"x": StringValue(`say "hi"`)},
		},
		{
			name:       "quoted comma stays in one argument",
			line:       `ACTION: query_postgres(query="SELECT a, b FROM t")`,
			wantTool:   "query_postgres",
			wantArgs:   []Value{},
			wantKwargs: map[string]Value{"query": StringValue("SELECT a, b FROM t")},
		},
		{
			name:       "quoted equals stays in the value",
			line:       `ACTION: query_postgres("SELECT 1 FROM t WHERE status='FAILURE'")`,
			wantTool:   "query_postgres",
			wantArgs:   []Value{StringValue("SELECT 1 FROM t WHERE status='FAILURE'")},
			wantKwargs: map[string]Value{},
		},
		{
			name:       "parens inside quotes do not close the call",
			line:       `ACTION: query_postgres(query="SELECT COUNT(*) FROM audit_events")`,
			wantTool:   "query_postgres",
			wantArgs:   []Value{},
			wantKwargs: map[string]Value{"query": StringValue("SELECT COUNT(*) FROM audit_events")},
		},
		{
			name:       "duplicate keyword: last occurrence wins",
			line:       "ACTION: tool(k=1, k=2)",
			wantTool:   "tool",
			wantArgs:   []Value{},
			wantKwargs: map[string]Value{"k": IntValue(2)},
		},
		{
			name:       "leading whitespace before marker",
			line:       "   ACTION: get_table_schema(users)",
			wantTool:   "get_table_schema",
			wantArgs:   []Value{StringValue("users")},
			wantKwargs: map[string]Value{},
		},
		{
			name:       "empty tokens between commas are skipped",
			line:       "ACTION: tool(a, , b)",
			wantTool:   "tool",
			wantArgs:   []Value{StringValue("a"), StringValue("b")},
			wantKwargs: map[string]Value{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := ParseActionLine(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.wantTool, call.Tool)
			assert.Equal(t, tt.wantArgs, call.Args)
			assert.Equal(t, tt.wantKwargs, call.Kwargs)
		})
	}
}

func TestParseActionLine_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no marker", "get_table_schema(users)"},
		{"unbalanced parens", "ACTION: NAME(a, b"},
		{"unterminated quote swallows close paren", `ACTION: NAME(a="oops)`},
		{"empty remainder", "ACTION:"},
		{"empty tool name before parens", "ACTION: (a, b)"},
		{"close paren without open", "ACTION: NAME)"},
		{"marker not at line start", "do ACTION: NAME(a)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := ParseActionLine(tt.line)
			assert.False(t, ok)
			assert.Nil(t, call)
		})
	}
}

func TestCollectActionLines(t *testing.T) {
	reply := "Thought: check everything\n" +
		"ACTION: list_tables()\n" +
		"some prose in between\n" +
		"  ACTION: get_table_schema(audit_events)\n" +
		"mid-line ACTION: ignored(1)\n"

	lines := CollectActionLines(reply)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "list_tables")
	assert.Contains(t, lines[1], "get_table_schema")
}
