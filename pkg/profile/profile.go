// Package profile probes a target before synthesis starts: is it
// responsive, which interpreter generation renders the templates, which
// context objects are in the namespace, and which keywords its filter
// blocks. The resulting profile seeds the synthesizer's options and backs
// the live oracle every candidate is checked against.
package profile

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spaolacci/murmur3"

	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/options"
)

// State is the profiler's progress. States advance strictly forward; a
// failed stage leaves the profile at the last completed state.
type State int

const (
	StateUnprobed State = iota
	StateResponsive
	StateVersioned
	StateContexted
	StateKeyworded
	StateReady
)

var stateNames = map[State]string{
	StateUnprobed:   "unprobed",
	StateResponsive: "responsive",
	StateVersioned:  "versioned",
	StateContexted:  "contexted",
	StateKeyworded:  "keyworded",
	StateReady:      "ready",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "invalid"
}

// Fingerprint identifies a block page: status code plus a hash of the body
// with the triggering payload stripped out, so the same page matches
// regardless of which payload tripped it.
type Fingerprint struct {
	Status   int
	BodyHash uint64
}

func fingerprint(status int, body, payload string) Fingerprint {
	if payload != "" {
		body = strings.ReplaceAll(body, payload, "")
	}
	return Fingerprint{Status: status, BodyHash: murmur3.Sum64([]byte(body))}
}

// Profile is what probing learned about one target.
type Profile struct {
	State State

	// Reflects reports whether submitted input comes back in the response.
	// Without reflection only blind goals are worth attempting.
	Reflects bool

	Version    options.PythonVersion
	Subversion int // minor version when detectable, else 0

	Environment options.Environment

	// Blocked are keywords the target's filter confirmed rejecting.
	Blocked []string

	baseline   Fingerprint
	blockPages map[Fingerprint]bool
}

// Apply merges the profile's findings into an options set. Explicit values
// in base win: an operator who declared the interpreter version knows
// better than a probe.
func (p *Profile) Apply(base options.Options) options.Options {
	out := base
	if out.PythonVersion == options.PythonUnknown && p.Version != "" {
		out.PythonVersion = p.Version
	}
	if out.PythonSubversion == 0 {
		out.PythonSubversion = p.Subversion
	}
	switch {
	case out.Environment == options.EnvUnknown && p.Environment != "" && p.Environment != options.EnvUnknown:
		// Unknown means "detect for me": take whatever the probes found.
		out.Environment = p.Environment
	case out.Environment == options.EnvJinja2 && p.Environment == options.EnvFlask:
		out.Environment = options.EnvFlask
	}
	for _, k := range p.Blocked {
		if !contains(out.Keywords, k) {
			out.Keywords = append(out.Keywords, k)
		}
	}
	return out
}

// BlockedPage reports whether a response matches a known block page or the
// blocked-status heuristic.
func (p *Profile) BlockedPage(status int, body, payload string) bool {
	fp := fingerprint(status, body, payload)
	if p.blockPages[fp] {
		return true
	}
	// An error status the benign baseline never produced is a block even
	// before any page fingerprint is on file.
	return status >= 400 && status != p.baseline.Status
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// marker returns a random probe marker. Unique per probe so cached or
// replayed responses cannot satisfy a later check.
func marker() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:defaults.MarkerLength]
}
