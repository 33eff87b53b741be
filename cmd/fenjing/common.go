package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fuucckk/Fenjing/pkg/cracker"
	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/options"
	"github.com/fuucckk/Fenjing/pkg/payload"
	"github.com/fuucckk/Fenjing/pkg/report"
	"github.com/fuucckk/Fenjing/pkg/requester"
	"github.com/fuucckk/Fenjing/pkg/retry"
	"github.com/fuucckk/Fenjing/pkg/submit"
	"github.com/fuucckk/Fenjing/pkg/ui"
)

// commonFlags are the flags every attack command shares.
type commonFlags struct {
	detectMode   string
	environment  string
	pythonVer    string
	strategy     string
	probing      string
	interval     time.Duration
	userAgent    string
	proxy        string
	profilePath  string
	tamperCmd    string
	tamperScript string
	tamperNames  string
	output       string
	silent       bool
	noColor      bool
	verbose      bool

	headers headerList
	cookie  string

	execCmd   string
	evalCode  string
	getConfig bool
}

// headerList collects repeated -H "Name: value" flags.
type headerList []string

func (h *headerList) String() string { return strings.Join(*h, "; ") }

func (h *headerList) Set(v string) error {
	if !strings.Contains(v, ":") {
		return fmt.Errorf("header %q is not Name: value", v)
	}
	*h = append(*h, v)
	return nil
}

func addCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.detectMode, "detect-mode", "", "detection mode: accurate or fast")
	fs.StringVar(&c.environment, "environment", "", "template context: jinja2 or flask")
	fs.StringVar(&c.pythonVer, "python-version", "", "target interpreter: python2 or python3")
	fs.StringVar(&c.strategy, "strategy", "", "blocked-keyword strategy: avoid, ignore or doubletap")
	fs.StringVar(&c.probing, "probe-keywords", "", "keyword probing: off, fast or full")
	fs.DurationVar(&c.interval, "interval", 0, "minimum spacing between requests")
	fs.StringVar(&c.userAgent, "ua", "", "user agent override")
	fs.Var(&c.headers, "H", "extra header as \"Name: value\", repeatable")
	fs.StringVar(&c.cookie, "cookie", "", "Cookie header value")
	fs.StringVar(&c.proxy, "proxy", "", "proxy URL")
	fs.StringVar(&c.profilePath, "config", "", "YAML attack profile to load")
	fs.StringVar(&c.tamperCmd, "tamper-cmd", "", "shell command piped over every payload")
	fs.StringVar(&c.tamperScript, "tamper-script", "", "Tengo tamper script file")
	fs.StringVar(&c.tamperNames, "tamper", "", "comma-separated built-in tamperers: base64, urlencode, fullwidth")
	fs.StringVar(&c.output, "o", "", "write a JSON session report to this file")
	fs.BoolVar(&c.silent, "silent", false, "suppress banner and progress")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&c.verbose, "v", false, "verbose logging")

	fs.StringVar(&c.execCmd, "exec", "", "execute this shell command and exit")
	fs.StringVar(&c.evalCode, "eval", "", "evaluate this expression and exit")
	fs.BoolVar(&c.getConfig, "get-config", false, "dump the application config and exit")
	return c
}

// setup applies UI flags and builds the logger.
func (c *commonFlags) setup() *slog.Logger {
	ui.SetSilent(c.silent)
	ui.SetNoColor(c.noColor)
	if !c.silent {
		ui.PrintBanner()
	}

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}

// buildOptions merges the YAML profile (if any) with flag overrides.
func (c *commonFlags) buildOptions() (options.Options, error) {
	opts := options.Default()
	if c.profilePath != "" {
		loaded, err := options.LoadProfile(c.profilePath)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}
	if c.detectMode != "" {
		opts.DetectMode = options.DetectMode(c.detectMode)
	}
	if c.environment != "" {
		opts.Environment = options.Environment(c.environment)
	}
	if c.pythonVer != "" {
		opts.PythonVersion = options.PythonVersion(c.pythonVer)
	}
	if c.strategy != "" {
		opts.EvasionStrategy = options.EvasionStrategy(c.strategy)
	}
	if c.probing != "" {
		opts.KeywordProbing = options.KeywordProbing(c.probing)
	}
	if c.interval > 0 {
		opts.Interval = c.interval
	}
	if c.userAgent != "" {
		opts.UserAgent = c.userAgent
	}
	return opts, opts.Validate()
}

// buildRequester wires the transport from the effective options.
func (c *commonFlags) buildRequester(opts options.Options) *requester.HTTP {
	rqOpts := []requester.Option{
		requester.WithInterval(opts.Interval),
		requester.WithRetry(retry.DefaultConfig()),
	}
	if opts.UserAgent != "" {
		rqOpts = append(rqOpts, requester.WithUserAgent(opts.UserAgent))
	}
	for _, h := range c.headers {
		name, value, _ := strings.Cut(h, ":")
		rqOpts = append(rqOpts, requester.WithHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	if c.cookie != "" {
		rqOpts = append(rqOpts, requester.WithHeader("Cookie", c.cookie))
	}
	if c.proxy != "" {
		rqOpts = append(rqOpts, requester.WithClient(requester.NewClient(c.proxy)))
	}
	return requester.NewHTTP(rqOpts...)
}

// buildTampers assembles the tamper chain from flags.
func (c *commonFlags) buildTampers() ([]submit.Tamperer, error) {
	var tampers []submit.Tamperer
	if c.tamperCmd != "" {
		tampers = append(tampers, submit.Shell(c.tamperCmd))
	}
	if c.tamperScript != "" {
		t, err := submit.ScriptFile(c.tamperScript)
		if err != nil {
			return nil, err
		}
		tampers = append(tampers, t)
	}
	// Built-in encoders run last, closest to the wire.
	for _, name := range parseCommaList(c.tamperNames) {
		switch name {
		case "base64":
			tampers = append(tampers, submit.Base64())
		case "urlencode":
			tampers = append(tampers, submit.URLEncode())
		case "fullwidth":
			tampers = append(tampers, submit.Fullwidth())
		default:
			return nil, fmt.Errorf("unknown tamperer %q", name)
		}
	}
	return tampers, nil
}

// runGoals executes the requested one-shot goals, or drops into the
// interactive shell when none were given. The session report is written on
// the way out if requested.
func (c *commonFlags) runGoals(ctx context.Context, cr *cracker.Cracker, target string) error {
	session := report.NewSession(target, cr.Options())
	if prof := cr.Profile(); prof != nil {
		session.Environment = string(prof.Environment)
		session.Version = string(prof.Version)
	}
	defer func() {
		if c.output == "" {
			return
		}
		f, err := os.Create(c.output)
		if err != nil {
			slog.Error("cannot write report", "path", c.output, "err", err)
			return
		}
		defer f.Close()
		if err := session.WriteJSON(f); err != nil {
			slog.Error("cannot write report", "path", c.output, "err", err)
		}
	}()

	oneShot := false
	run := func(f report.Finding, err error) error {
		oneShot = true
		if err != nil {
			return err
		}
		session.Add(f)
		printFinding(f)
		return nil
	}

	if c.execCmd != "" {
		if err := run(cr.Execute(ctx, c.execCmd)); err != nil {
			return err
		}
	}
	if c.evalCode != "" {
		if err := run(cr.Eval(ctx, c.evalCode)); err != nil {
			return err
		}
	}
	if c.getConfig {
		if err := run(cr.ConfigDump(ctx)); err != nil {
			return err
		}
	}
	if oneShot {
		return nil
	}
	return interactiveShell(ctx, cr, session)
}

func printFinding(f report.Finding) {
	fmt.Println(ui.FoundStyle.Render(ui.Icon("✔", "[+]")), "payload:", ui.PayloadStyle.Render(f.Payload))
	if !f.WillEcho {
		fmt.Println(ui.ProbeStyle.Render("    blind pattern, no output captured"))
		return
	}
	if f.Output != "" {
		fmt.Println(ui.OutputStyle.Render(strings.TrimRight(f.Output, "\n")))
	}
}

func exitCode(err error) int {
	if errors.Is(err, payload.ErrNoPayload) {
		return defaults.ExitNoPayload
	}
	return defaults.ExitError
}

func parseCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
