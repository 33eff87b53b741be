package main

import (
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseCommaList(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , ,b ", []string{"a", "b"}},
		{"__,.", []string{"__", "."}},
	}
	for _, tc := range cases {
		if got := parseCommaList(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseCommaList(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseJSONObject(t *testing.T) {
	t.Parallel()

	obj, err := parseJSONObject(`{"name":"x","age":3}`)
	if err != nil {
		t.Fatal(err)
	}
	if obj["name"] != "x" {
		t.Errorf("name = %v", obj["name"])
	}

	if _, err := parseJSONObject(`[1,2]`); err == nil {
		t.Error("expected error for non-object JSON")
	}
}

func TestReadLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keywords.txt")
	if err := os.WriteFile(path, []byte("__\n\n  os  \npopen\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, err := readLines(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"__", "os", "popen"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("readLines = %v, want %v", lines, want)
	}
}

func TestReadKeywordFileJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keywords.json")
	if err := os.WriteFile(path, []byte(`["__", "popen"]`), 0o644); err != nil {
		t.Fatal(err)
	}
	words, err := readKeywordFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"__", "popen"}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("readKeywordFile = %v, want %v", words, want)
	}
}

func TestBuildTampersNamed(t *testing.T) {
	t.Parallel()

	c := &commonFlags{tamperNames: "base64,urlencode"}
	tampers, err := c.buildTampers()
	if err != nil {
		t.Fatal(err)
	}
	if len(tampers) != 2 {
		t.Fatalf("len(tampers) = %d, want 2", len(tampers))
	}

	out := "{{7*7}}"
	for _, tamper := range tampers {
		if out, err = tamper(out); err != nil {
			t.Fatal(err)
		}
	}
	want := url.QueryEscape(base64.StdEncoding.EncodeToString([]byte("{{7*7}}")))
	if out != want {
		t.Errorf("chained output = %q, want %q", out, want)
	}

	if _, err := (&commonFlags{tamperNames: "rot13"}).buildTampers(); err == nil {
		t.Error("expected error for unknown tamperer")
	}
}

func TestHeaderListSet(t *testing.T) {
	t.Parallel()

	var h headerList
	if err := h.Set("X-Api-Key: abc"); err != nil {
		t.Fatal(err)
	}
	if err := h.Set("no-colon"); err == nil {
		t.Error("expected error for malformed header")
	}
	if len(h) != 1 {
		t.Errorf("len = %d, want 1", len(h))
	}
}
