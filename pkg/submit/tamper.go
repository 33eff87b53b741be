package submit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// Tamperer rewrites a payload just before delivery. Tampers compensate for
// transformations the target applies on the way in (decoding, normalizing,
// stripping); they run after synthesis, so the oracle must have seen
// tampered candidates too or the blocklist picture drifts.
type Tamperer func(payload string) (string, error)

// Shell pipes the payload through an external command: payload on stdin,
// tampered payload on stdout. This is the extension point for transforms
// the tool does not ship, at the cost of one process per probe.
func Shell(command string) Tamperer {
	return func(payload string) (string, error) {
		parts := strings.Fields(command)
		if len(parts) == 0 {
			return "", fmt.Errorf("empty tamper command")
		}
		cmd := exec.Command(parts[0], parts[1:]...)
		cmd.Stdin = strings.NewReader(payload)
		var out, errOut bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &errOut
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("tamper command %q: %w (%s)", command, err, strings.TrimSpace(errOut.String()))
		}
		return strings.TrimSuffix(out.String(), "\n"), nil
	}
}

// Base64 encodes the payload, for delivery surfaces that decode base64
// before templating.
func Base64() Tamperer {
	return func(payload string) (string, error) {
		return base64.StdEncoding.EncodeToString([]byte(payload)), nil
	}
}

// URLEncode percent-encodes the payload for targets that decode an extra
// time before templating.
func URLEncode() Tamperer {
	return func(payload string) (string, error) {
		return url.QueryEscape(payload), nil
	}
}

// Fullwidth maps ASCII letters to their fullwidth compatibility forms.
// Targets that NFKC-normalize input fold them back to ASCII after the WAF
// has already inspected the exotic spelling.
func Fullwidth() Tamperer {
	return func(payload string) (string, error) {
		var b strings.Builder
		b.Grow(len(payload) * 3)
		for _, r := range payload {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				// U+FF01 is fullwidth '!', offset from ASCII 0x21.
				b.WriteRune(r - 0x21 + 0xFF01)
			} else {
				b.WriteRune(r)
			}
		}
		return b.String(), nil
	}
}
