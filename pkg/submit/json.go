package submit

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-json-experiment/json"

	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/requester"
)

// JSONSubmitter delivers payloads inside one key of a JSON request body.
type JSONSubmitter struct {
	rq      requester.Requester
	url     string
	method  string
	body    map[string]any
	key     string
	tampers []Tamperer
}

// NewJSON builds a submitter that sends body with the payload substituted
// at key. The base body is copied on every submit and never mutated.
func NewJSON(rq requester.Requester, url, method string, body map[string]any, key string, tampers ...Tamperer) (*JSONSubmitter, error) {
	if method == "" {
		method = http.MethodPost
	}
	if key == "" {
		return nil, fmt.Errorf("submit: json key required")
	}
	return &JSONSubmitter{rq: rq, url: url, method: method, body: body, key: key, tampers: tampers}, nil
}

func (s *JSONSubmitter) Submit(ctx context.Context, payload string) (*Result, error) {
	payload, err := applyTampers(payload, s.tampers)
	if err != nil {
		return nil, err
	}

	body := make(map[string]any, len(s.body)+1)
	for k, v := range s.body {
		body[k] = v
	}
	body[s.key] = payload

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("submit: marshal body: %w", err)
	}

	req, err := http.NewRequest(s.method, s.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("submit: build request: %w", err)
	}
	req.Header.Set("Content-Type", defaults.ContentTypeJSON)

	resp, err := s.rq.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return newResult(resp.StatusCode, resp.Body), nil
}
