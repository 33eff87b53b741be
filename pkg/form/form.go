// Package form models the HTML forms payloads are delivered through, and
// scrapes them out of target pages for the scan workflow.
package form

import (
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Form is one submission surface: where to send, how, and which inputs
// exist. Inputs are deduplicated and sorted so two scrapes of the same page
// compare equal.
type Form struct {
	Action string
	Method string
	Inputs []string
}

// New builds a form, normalizing the method and input list.
func New(action, method string, inputs ...string) (Form, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "GET"
	}
	if method != "GET" && method != "POST" {
		return Form{}, fmt.Errorf("form: unsupported method %q", method)
	}
	if len(inputs) == 0 {
		return Form{}, fmt.Errorf("form: no inputs")
	}

	seen := make(map[string]bool, len(inputs))
	uniq := make([]string, 0, len(inputs))
	for _, name := range inputs {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		uniq = append(uniq, name)
	}
	if len(uniq) == 0 {
		return Form{}, fmt.Errorf("form: no named inputs")
	}
	sort.Strings(uniq)

	return Form{Action: action, Method: method, Inputs: uniq}, nil
}

// Has reports whether the form carries an input with the given name.
func (f Form) Has(name string) bool {
	for _, in := range f.Inputs {
		if in == name {
			return true
		}
	}
	return false
}

// Fill returns the submission values: payload in the target field, random
// filler everywhere else. Leaving sibling fields empty trips many
// applications' validation before the template is ever rendered.
func (f Form) Fill(field, payload string) url.Values {
	values := make(url.Values, len(f.Inputs))
	for _, name := range f.Inputs {
		if name == field {
			values.Set(name, payload)
		} else {
			values.Set(name, randomFiller(8))
		}
	}
	return values
}

const fillerAlphabet = "abcdefghijklmnopqrstuvwxyz"

func randomFiller(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = fillerAlphabet[rand.IntN(len(fillerAlphabet))]
	}
	return string(b)
}

// Parse extracts the forms of an HTML page. Actions are resolved against
// pageURL; forms without named inputs are dropped.
func Parse(pageURL string, r io.Reader) ([]Form, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("form: parse page url: %w", err)
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("form: parse html: %w", err)
	}

	var forms []Form
	for node := range doc.Descendants() {
		if node.Type != html.ElementNode || node.Data != "form" {
			continue
		}
		action := attr(node, "action")
		method := attr(node, "method")
		inputs := inputNames(node)

		resolved := pageURL
		if action != "" {
			if ref, err := url.Parse(action); err == nil {
				resolved = base.ResolveReference(ref).String()
			}
		}

		f, err := New(resolved, method, inputs...)
		if err != nil {
			continue
		}
		forms = append(forms, f)
	}
	return forms, nil
}

func inputNames(formNode *html.Node) []string {
	var names []string
	for node := range formNode.Descendants() {
		if node.Type != html.ElementNode {
			continue
		}
		switch node.Data {
		case "input", "textarea", "select":
			if name := attr(node, "name"); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
