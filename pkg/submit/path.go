package submit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fuucckk/Fenjing/pkg/requester"
)

// ErrUnsafePathPayload means the payload cannot travel as a path segment
// without the server's router or escaper mangling it first.
var ErrUnsafePathPayload = errors.New("submit: payload not path-safe")

// pathForbidden are substrings a path-delivered payload may not contain:
// segment separators, traversal sequences, and characters the client would
// percent-encode (the template would then never see the original).
var pathForbidden = []string{"/", "..", " ", "%"}

// PathSubmitter delivers payloads as the final path segment of a URL, for
// routes like /article/<name> that render the segment into a template.
type PathSubmitter struct {
	rq      requester.Requester
	base    string
	tampers []Tamperer
}

// NewPath builds a submitter appending payloads to base.
func NewPath(rq requester.Requester, base string, tampers ...Tamperer) *PathSubmitter {
	return &PathSubmitter{rq: rq, base: strings.TrimSuffix(base, "/"), tampers: tampers}
}

func (s *PathSubmitter) Submit(ctx context.Context, payload string) (*Result, error) {
	payload, err := applyTampers(payload, s.tampers)
	if err != nil {
		return nil, err
	}
	for _, bad := range pathForbidden {
		if strings.Contains(payload, bad) {
			return nil, fmt.Errorf("%w: contains %q", ErrUnsafePathPayload, bad)
		}
	}

	req, err := http.NewRequest(http.MethodGet, s.base+"/"+payload, nil)
	if err != nil {
		return nil, fmt.Errorf("submit: build request: %w", err)
	}
	resp, err := s.rq.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return newResult(resp.StatusCode, resp.Body), nil
}
