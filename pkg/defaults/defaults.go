// Package defaults provides canonical default values for the entire
// codebase. Reference these constants instead of scattering literals.
package defaults

import "fmt"

// Version is the current Fenjing version.
const Version = "0.8.0"

// ============================================================================
// HTTP TRANSPORT
// ============================================================================

const (
	// TimeoutSeconds is the total per-request timeout.
	TimeoutSeconds = 30

	// DialTimeoutSeconds is the connection-establishment timeout.
	DialTimeoutSeconds = 10

	// MaxIdleConns is the idle-connection pool size. Probe traffic hits a
	// single host, so per-host and total limits are close.
	MaxIdleConns = 32

	// MaxConnsPerHost bounds concurrent connections to the target.
	MaxConnsPerHost = 16

	// MaxBodyBytes caps how much of a response body is read (4MB). Block
	// pages and template output both fit comfortably below this.
	MaxBodyBytes = 4 * 1024 * 1024
)

// ============================================================================
// HTTP CONTENT TYPES
// ============================================================================

const (
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeJSON = "application/json"
)

// ============================================================================
// USER AGENTS
// ============================================================================

const (
	// UAChrome is the browser user agent sent by default; probe traffic
	// standing out in access logs invites manual blocking.
	UAChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// UAMinimal identifies the tool honestly, for authorized engagements
	// that require attributable traffic.
	UAMinimal = "Fenjing/" + Version
)

// UserAgent returns the tool user agent with optional context.
func UserAgent(context string) string {
	if context == "" {
		return UAMinimal
	}
	return fmt.Sprintf("Fenjing/%s (%s)", Version, context)
}

// ============================================================================
// PROBING
// ============================================================================

const (
	// ResponsivenessProbes is how many baseline requests establish that the
	// target answers consistently before synthesis starts.
	ResponsivenessProbes = 3

	// MarkerLength is the length of random probe markers.
	MarkerLength = 8

	// MaxFormsPerPage bounds how many scraped forms a single page may
	// contribute during a scan.
	MaxFormsPerPage = 16
)

// ============================================================================
// EXIT CODES
// ============================================================================

const (
	ExitOK    = 0
	ExitError = 1
	// ExitNoPayload means the target was reachable but no payload survived
	// its filter.
	ExitNoPayload = 2
)
