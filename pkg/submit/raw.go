package submit

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// PayloadMarker is the placeholder a raw request template carries where the
// payload goes.
const PayloadMarker = "PAYLOAD"

// RawSender sends raw request bytes and returns everything read back.
// Implemented by requester.TCP.
type RawSender interface {
	Send(ctx context.Context, raw []byte) (string, error)
}

// RawSubmitter replays a captured request template with the payload
// substituted in, byte-exact over a raw connection. Intercepted requests
// from a proxy can be fed in unmodified; the template is normalized once at
// construction.
type RawSubmitter struct {
	sender   RawSender
	template string
	tampers  []Tamperer
}

// NewRaw builds a submitter for a raw request template. The template must
// contain the payload marker.
func NewRaw(sender RawSender, template string, tampers ...Tamperer) (*RawSubmitter, error) {
	if !strings.Contains(template, PayloadMarker) {
		return nil, fmt.Errorf("submit: raw template missing %s marker", PayloadMarker)
	}
	return &RawSubmitter{sender: sender, template: normalizeRaw(template), tampers: tampers}, nil
}

func (s *RawSubmitter) Submit(ctx context.Context, payload string) (*Result, error) {
	payload, err := applyTampers(payload, s.tampers)
	if err != nil {
		return nil, err
	}

	// The payload rides in a query string or form body either way, so it is
	// always percent-encoded; the server decodes it before templating.
	raw := strings.ReplaceAll(s.template, PayloadMarker, url.QueryEscape(payload))
	raw = updateContentLength(raw)

	out, err := s.sender.Send(ctx, []byte(raw))
	if err != nil {
		return nil, err
	}
	status, body, err := parseRawResponse(out)
	if err != nil {
		return nil, err
	}
	return newResult(status, body), nil
}

// normalizeRaw converts a template pasted from an editor into valid wire
// format: CRLF line endings and a terminated header block.
func normalizeRaw(template string) string {
	template = strings.ReplaceAll(template, "\r\n", "\n")
	template = strings.ReplaceAll(template, "\n", "\r\n")
	if !strings.Contains(template, "\r\n\r\n") {
		template = strings.TrimRight(template, "\r\n") + "\r\n\r\n"
	}
	return template
}

var contentLengthRe = regexp.MustCompile(`(?i)^content-length:.*$`)

// updateContentLength rewrites the Content-Length header to match the body
// after payload substitution. A stale length makes the server truncate or
// hang on the body.
func updateContentLength(raw string) string {
	head, body, found := strings.Cut(raw, "\r\n\r\n")
	if !found || len(body) == 0 {
		return raw
	}
	length := strconv.Itoa(len(body))
	lines := strings.Split(head, "\r\n")
	replaced := false
	for i, line := range lines {
		if contentLengthRe.MatchString(line) {
			lines[i] = "Content-Length: " + length
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, "Content-Length: "+length)
	}
	return strings.Join(lines, "\r\n") + "\r\n\r\n" + body
}

// parseRawResponse pulls the status code and body out of a raw HTTP
// response.
func parseRawResponse(raw string) (int, string, error) {
	statusLine, rest, _ := strings.Cut(raw, "\r\n")
	fields := strings.Fields(statusLine)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, "", fmt.Errorf("submit: malformed response line %q", statusLine)
	}
	status, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", fmt.Errorf("submit: malformed status %q", fields[1])
	}
	_, body, found := strings.Cut(rest, "\r\n\r\n")
	if !found {
		body = ""
	}
	return status, body, nil
}
