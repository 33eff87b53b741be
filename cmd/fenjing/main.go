// Command fenjing synthesizes and delivers server-side template injection
// payloads against Jinja2-style targets, bending each payload around
// whatever the target's filter rejects.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/ui"
)

func printUsage() {
	ui.PrintBanner()
	fmt.Fprintf(os.Stderr, `Usage: fenjing <command> [flags]

Commands:
  crack           attack one input of an HTML form
  crack-path      attack a URL path segment
  crack-json      attack one key of a JSON request body
  crack-request   replay a raw request template with payloads
  crack-keywords  generate payloads offline against a known blocklist
  scan            scrape a page for forms and attack every input
  version         print version information

Run 'fenjing <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(defaults.ExitError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "crack":
		err = cmdCrack(ctx, os.Args[2:])
	case "crack-path":
		err = cmdCrackPath(ctx, os.Args[2:])
	case "crack-json":
		err = cmdCrackJSON(ctx, os.Args[2:])
	case "crack-request":
		err = cmdCrackRequest(ctx, os.Args[2:])
	case "crack-keywords":
		err = cmdCrackKeywords(ctx, os.Args[2:])
	case "scan":
		err = cmdScan(ctx, os.Args[2:])
	case "version":
		fmt.Printf("fenjing %s (built %s, commit %s)\n", ui.Version, ui.BuildDate, ui.Commit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(defaults.ExitError)
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(exitCode(err))
	}
}
