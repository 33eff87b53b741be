package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuucckk/Fenjing/pkg/options"
)

func sampleSession() *Session {
	s := NewSession("http://target.example/greet", options.Default())
	s.Environment = "flask"
	s.Version = "python3"
	s.Add(Finding{
		Kind:        "command",
		Goal:        "id",
		Payload:     "{{lipsum.__globals__.os.popen('id').read()}}",
		Pattern:     "expression",
		WillEcho:    true,
		Output:      "uid=1000(app)\n",
		OracleCalls: 12,
	})
	return s
}

func TestSessionIDsUnique(t *testing.T) {
	t.Parallel()

	a := NewSession("x", options.Default())
	b := NewSession("x", options.Default())
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, a.ID)
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	require.NoError(t, sampleSession().WriteJSON(&buf))
	out := buf.String()
	assert.Contains(t, out, `"target": "http://target.example/greet"`)
	assert.Contains(t, out, `"kind": "command"`)
	assert.Contains(t, out, `"will_echo": true`)
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	require.NoError(t, sampleSession().WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "Target:  http://target.example/greet")
	assert.Contains(t, out, "[COMMAND] id")
	assert.Contains(t, out, "uid=1000(app)")
	assert.Contains(t, out, "Context: flask (python3)")
}

func TestWriteTextEmpty(t *testing.T) {
	t.Parallel()

	s := NewSession("http://target.example", options.Default())
	var buf strings.Builder
	require.NoError(t, s.WriteText(&buf))
	assert.Contains(t, buf.String(), "No working payload found.")
}

func TestAddStampsTime(t *testing.T) {
	t.Parallel()

	s := NewSession("x", options.Default())
	s.Add(Finding{Kind: "eval", Payload: "{{1}}"})
	require.Len(t, s.Findings, 1)
	assert.False(t, s.Findings[0].Time.IsZero())
}
