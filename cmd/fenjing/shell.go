package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-json-experiment/json"

	"github.com/fuucckk/Fenjing/pkg/cracker"
	"github.com/fuucckk/Fenjing/pkg/report"
	"github.com/fuucckk/Fenjing/pkg/ui"
)

// findFlagCmd looks for the usual CTF flag locations.
const findFlagCmd = `find / -maxdepth 3 -name 'flag*' -o -name '*flag' 2>/dev/null`

func shellHelp() {
	fmt.Println(ui.HelpStyle.Render(`Plain input runs as a shell command on the target.
  @exec CMD     run a shell command
  @eval CODE    evaluate a Python expression
  @get-config   dump the application config
  @ls PATH      list a directory
  @cat FILE     print a file
  @findflag     search for flag files
  @help         show this help
  @exit         leave the shell`))
}

// interactiveShell is a pseudo terminal over the cracked target. Every line
// becomes a fresh payload; findings accumulate on the session report.
func interactiveShell(ctx context.Context, cr *cracker.Cracker, session *report.Session) error {
	if ui.Interactive() {
		shellHelp()
	}

	prompt := ui.PromptStyle.Render("fenjing> ")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, prompt)
		if !sc.Scan() {
			fmt.Fprintln(os.Stderr)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var f report.Finding
		var err error
		switch cmd {
		case "@exit", "@quit":
			return nil
		case "@help":
			shellHelp()
			continue
		case "@exec":
			f, err = cr.Execute(ctx, arg)
		case "@eval":
			f, err = cr.Eval(ctx, arg)
		case "@get-config":
			f, err = cr.ConfigDump(ctx)
		case "@ls":
			if arg == "" {
				arg = "."
			}
			f, err = cr.Execute(ctx, "ls "+arg)
		case "@cat":
			if arg == "" {
				fmt.Println(ui.BlockedStyle.Render("[-]"), "usage: @cat FILE")
				continue
			}
			f, err = cr.Execute(ctx, "cat "+arg)
		case "@findflag":
			f, err = cr.Execute(ctx, findFlagCmd)
		default:
			if strings.HasPrefix(cmd, "@") {
				fmt.Println(ui.BlockedStyle.Render("[-]"), "unknown command", cmd)
				continue
			}
			f, err = cr.Execute(ctx, line)
		}
		if err != nil {
			fmt.Println(ui.BlockedStyle.Render("[-]"), err)
			continue
		}
		session.Add(f)
		printFinding(f)
	}
}

func parseJSONObject(s string) (map[string]any, error) {
	obj := map[string]any{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func readFileString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readKeywordFile loads a keyword blocklist, either a JSON string array or
// one keyword per line.
func readKeywordFile(path string) ([]string, error) {
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var words []string
		if err := json.Unmarshal(data, &words); err != nil {
			return nil, fmt.Errorf("parse keyword file %s: %w", path, err)
		}
		return words, nil
	}
	return readLines(path)
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}
