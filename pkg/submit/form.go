package submit

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/form"
	"github.com/fuucckk/Fenjing/pkg/requester"
)

// FormSubmitter delivers payloads through one input of an HTML form.
type FormSubmitter struct {
	rq      requester.Requester
	form    form.Form
	field   string
	tampers []Tamperer
}

// NewForm builds a submitter for the named field of f.
func NewForm(rq requester.Requester, f form.Form, field string, tampers ...Tamperer) (*FormSubmitter, error) {
	if !f.Has(field) {
		return nil, fmt.Errorf("submit: form has no input %q", field)
	}
	return &FormSubmitter{rq: rq, form: f, field: field, tampers: tampers}, nil
}

func (s *FormSubmitter) Submit(ctx context.Context, payload string) (*Result, error) {
	payload, err := applyTampers(payload, s.tampers)
	if err != nil {
		return nil, err
	}
	values := s.form.Fill(s.field, payload)

	var req *http.Request
	if s.form.Method == "GET" {
		req, err = http.NewRequest(http.MethodGet, s.form.Action+"?"+values.Encode(), nil)
	} else {
		req, err = http.NewRequest(http.MethodPost, s.form.Action, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", defaults.ContentTypeForm)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("submit: build request: %w", err)
	}

	resp, err := s.rq.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return newResult(resp.StatusCode, resp.Body), nil
}
