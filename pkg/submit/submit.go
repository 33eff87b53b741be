// Package submit delivers payloads to a target and captures what came
// back. A Submitter owns one delivery surface (a form field, a path
// segment, a JSON key, a raw request template); the synthesis engine only
// ever sees the Submit method and the decoded response text.
package submit

import (
	"context"
	"fmt"
	"html"
)

// Result is a completed delivery. Text is the response body with HTML
// entities decoded: template output is routinely entity-escaped by the
// rendering page, and marker matching must see the original characters.
type Result struct {
	StatusCode int
	Text       string
}

// Submitter delivers one payload and returns the target's response.
type Submitter interface {
	Submit(ctx context.Context, payload string) (*Result, error)
}

func newResult(status int, body string) *Result {
	return &Result{StatusCode: status, Text: html.UnescapeString(body)}
}

// applyTampers runs the payload through the tamper chain in order.
func applyTampers(payload string, tampers []Tamperer) (string, error) {
	for i, tamper := range tampers {
		out, err := tamper(payload)
		if err != nil {
			return "", fmt.Errorf("submit: tamper %d: %w", i, err)
		}
		payload = out
	}
	return payload, nil
}
