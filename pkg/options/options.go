// Package options holds the attack configuration consumed read-only by the
// synthesis engine: interpreter version, execution context flavor, detection
// effort, keyword-evasion strategy and the WAF keyword blocklist. Options are
// produced by flags, a YAML profile file, or the target profiler.
package options

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DetectMode trades completeness for latency during synthesis.
type DetectMode string

const (
	// DetectAccurate exhausts every applicable rule before giving up.
	DetectAccurate DetectMode = "accurate"
	// DetectFast bounds the number of candidates tried per requirement.
	DetectFast DetectMode = "fast"
)

// PythonVersion is the target interpreter's major version.
type PythonVersion string

const (
	PythonUnknown PythonVersion = "unknown"
	Python2       PythonVersion = "python2"
	Python3       PythonVersion = "python3"
)

// Environment is the execution-context flavor of the template.
type Environment string

const (
	EnvUnknown Environment = "unknown"
	// EnvJinja2 is a bare template engine with only engine globals.
	EnvJinja2 Environment = "jinja2"
	// EnvFlask additionally exposes the web framework's context objects
	// (request, g, config, session) in the template namespace.
	EnvFlask Environment = "flask"
)

// EvasionStrategy is the policy applied when a literal fragment would
// contain a blocklisted keyword.
type EvasionStrategy string

const (
	// EvadeAvoid rejects the fragment, forcing backtracking to a rule that
	// does not need the literal.
	EvadeAvoid EvasionStrategy = "avoid"
	// EvadeIgnore emits the literal unchanged and lets the oracle decide.
	EvadeIgnore EvasionStrategy = "ignore"
	// EvadeDoubleTap duplicates the blocklisted substring so a single-pass
	// filter strips one copy and leaves a valid token. Best effort: a
	// recursive filter defeats it.
	EvadeDoubleTap EvasionStrategy = "doubletap"
)

// KeywordProbing controls live enumeration of the WAF blocklist.
type KeywordProbing string

const (
	ProbeOff  KeywordProbing = "off"
	ProbeFast KeywordProbing = "fast"
	ProbeFull KeywordProbing = "full"
)

// Options is the full attack configuration. The zero value is not usable;
// start from Default and override.
type Options struct {
	DetectMode       DetectMode      `yaml:"detect_mode"`
	Environment      Environment     `yaml:"environment"`
	PythonVersion    PythonVersion   `yaml:"python_version"`
	PythonSubversion int             `yaml:"python_subversion"`
	EvasionStrategy  EvasionStrategy `yaml:"evasion_strategy"`
	KeywordProbing   KeywordProbing  `yaml:"keyword_probing"`

	// Keywords is the WAF keyword blocklist. Empty means none known yet;
	// the profiler may fill it, or the resolver discovers constraints
	// through oracle rejection alone.
	Keywords []string `yaml:"keywords"`

	// Interval is the minimum spacing between live probes.
	Interval time.Duration `yaml:"interval"`

	UserAgent string `yaml:"user_agent"`
}

// Default returns the baseline configuration: accurate detection, bare
// engine context, auto-detected interpreter version, avoid-strategy evasion.
func Default() Options {
	return Options{
		DetectMode:      DetectAccurate,
		Environment:     EnvJinja2,
		PythonVersion:   PythonUnknown,
		EvasionStrategy: EvadeAvoid,
		KeywordProbing:  ProbeOff,
	}
}

// Validate rejects unrecognized enum values and fills empty ones with
// defaults, so a partially specified YAML profile still yields a usable
// configuration.
func (o *Options) Validate() error {
	switch o.DetectMode {
	case "":
		o.DetectMode = DetectAccurate
	case DetectAccurate, DetectFast:
	default:
		return fmt.Errorf("options: unknown detect mode %q", o.DetectMode)
	}
	switch o.Environment {
	case "":
		o.Environment = EnvJinja2
	case EnvUnknown, EnvJinja2, EnvFlask:
	default:
		return fmt.Errorf("options: unknown environment %q", o.Environment)
	}
	switch o.PythonVersion {
	case "":
		o.PythonVersion = PythonUnknown
	case PythonUnknown, Python2, Python3:
	default:
		return fmt.Errorf("options: unknown python version %q", o.PythonVersion)
	}
	switch o.EvasionStrategy {
	case "":
		o.EvasionStrategy = EvadeAvoid
	case EvadeAvoid, EvadeIgnore, EvadeDoubleTap:
	default:
		return fmt.Errorf("options: unknown evasion strategy %q", o.EvasionStrategy)
	}
	switch o.KeywordProbing {
	case "":
		o.KeywordProbing = ProbeOff
	case ProbeOff, ProbeFast, ProbeFull:
	default:
		return fmt.Errorf("options: unknown keyword probing mode %q", o.KeywordProbing)
	}
	if o.Interval < 0 {
		return fmt.Errorf("options: negative interval %v", o.Interval)
	}
	return nil
}

// LoadProfile reads a YAML attack profile and merges it over the defaults.
func LoadProfile(path string) (Options, error) {
	o := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("options: read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("options: parse profile %s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}
