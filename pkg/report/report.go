// Package report records what a session achieved against a target and
// renders it for humans or machines.
package report

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/fuucckk/Fenjing/pkg/options"
)

// Finding is one synthesized payload that worked.
type Finding struct {
	Kind        string    `json:"kind"` // command, eval, config, string
	Goal        string    `json:"goal,omitempty"`
	Payload     string    `json:"payload"`
	Pattern     string    `json:"pattern"`
	WillEcho    bool      `json:"will_echo"`
	Output      string    `json:"output,omitempty"`
	OracleCalls int       `json:"oracle_calls"`
	Time        time.Time `json:"time"`
}

// Session is one engagement against one target.
type Session struct {
	ID          string          `json:"id"`
	Target      string          `json:"target"`
	Started     time.Time       `json:"started"`
	Options     options.Options `json:"options"`
	Environment string          `json:"environment,omitempty"`
	Version     string          `json:"python_version,omitempty"`
	Findings    []Finding       `json:"findings"`
}

// NewSession opens a session record.
func NewSession(target string, opts options.Options) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Target:  target,
		Started: time.Now().UTC(),
		Options: opts,
	}
}

// Add appends a finding, stamping it if unstamped.
func (s *Session) Add(f Finding) {
	if f.Time.IsZero() {
		f.Time = time.Now().UTC()
	}
	s.Findings = append(s.Findings, f)
}

// WriteJSON emits the session as indented JSON.
func (s *Session) WriteJSON(w io.Writer) error {
	if err := json.MarshalWrite(w, s, jsontext.WithIndent("  ")); err != nil {
		return fmt.Errorf("report: write json: %w", err)
	}
	return nil
}

// textReport is the human-readable rendering. Kept as a template so the
// layout can change without touching code paths.
const textReport = `Session {{.ID}}
Target:  {{.Target}}
Started: {{.Started.Format "2006-01-02 15:04:05 MST"}}
{{- if .Environment}}
Context: {{.Environment}}{{if .Version}} ({{.Version}}){{end}}
{{- end}}

{{ if .Findings -}}
{{ len .Findings }} finding(s):
{{ range .Findings }}
[{{ .Kind | upper }}]{{ if .Goal }} {{ .Goal }}{{ end }}
  payload: {{ .Payload }}
  pattern: {{ .Pattern }}{{ if not .WillEcho }} (blind){{ end }}
  probes:  {{ .OracleCalls }}
{{- if .Output }}
  output:  {{ .Output | trim | abbrev 500 }}
{{- end }}
{{ end -}}
{{ else -}}
No working payload found.
{{ end -}}
`

var reportTemplate = template.Must(
	template.New("report").Funcs(sprig.FuncMap()).Parse(textReport),
)

// WriteText renders the human-readable report.
func (s *Session) WriteText(w io.Writer) error {
	if err := reportTemplate.Execute(w, s); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}
