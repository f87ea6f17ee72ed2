package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awb-bank/audit-agent/pkg/agent"
)

func TestSystemPrompt_SubstitutesRecipient(t *testing.T) {
	b := NewBuilder("audit-team@awb.bank")
	got := b.SystemPrompt()

	assert.Contains(t, got, `recipient always "audit-team@awb.bank"`)
	assert.Contains(t, got, "query_postgres(query) - Execute a SELECT query.")
	assert.Contains(t, got, "REACT WORKFLOW - TWO TURNS, NEVER COMBINED:")
	assert.Contains(t, got, "NEVER output FINAL ANSWER in the same response as ACTION lines.")
	assert.False(t, strings.Contains(got, "%s"), "all placeholders must be filled")
}

func TestBuildMessages(t *testing.T) {
	b := NewBuilder("audit-team@awb.bank")
	msgs := b.BuildMessages("Are there suspicious users?")

	require.Len(t, msgs, 2)
	assert.Equal(t, agent.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "autonomous security analyst agent")
	assert.Equal(t, agent.RoleUser, msgs[1].Role)
	assert.Equal(t, "Are there suspicious users?", msgs[1].Content)
}
