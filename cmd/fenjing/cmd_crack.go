package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/fuucckk/Fenjing/pkg/cracker"
	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/form"
	"github.com/fuucckk/Fenjing/pkg/profile"
	"github.com/fuucckk/Fenjing/pkg/requester"
	"github.com/fuucckk/Fenjing/pkg/submit"
	"github.com/fuucckk/Fenjing/pkg/ui"
)

// cmdCrack attacks one input of an HTML form.
func cmdCrack(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("crack", flag.ExitOnError)
	common := addCommon(fs)
	urlFlag := fs.String("u", "", "target URL (required)")
	method := fs.String("m", "GET", "form method")
	inputs := fs.String("i", "", "comma-separated input names (required)")
	field := fs.String("f", "", "input to inject; empty tries each in turn")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *urlFlag == "" || *inputs == "" {
		fs.Usage()
		return fmt.Errorf("crack: -u and -i are required")
	}
	log := common.setup()

	opts, err := common.buildOptions()
	if err != nil {
		return err
	}
	tampers, err := common.buildTampers()
	if err != nil {
		return err
	}
	rq := common.buildRequester(opts)

	f, err := form.New(*urlFlag, *method, parseCommaList(*inputs)...)
	if err != nil {
		return err
	}

	fields := f.Inputs
	if *field != "" {
		fields = []string{*field}
	}

	var lastErr error
	for _, name := range fields {
		sub, err := submit.NewForm(rq, f, name, tampers...)
		if err != nil {
			return err
		}
		log.Info("trying input", "field", name)
		cr, err := cracker.New(ctx, sub, opts, log)
		if err != nil {
			lastErr = err
			continue
		}
		return common.runGoals(ctx, cr, *urlFlag)
	}
	if lastErr == nil {
		lastErr = profile.ErrUnresponsive
	}
	return lastErr
}

// cmdCrackPath attacks a URL path segment.
func cmdCrackPath(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("crack-path", flag.ExitOnError)
	common := addCommon(fs)
	urlFlag := fs.String("u", "", "base URL the payload is appended to (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *urlFlag == "" {
		fs.Usage()
		return fmt.Errorf("crack-path: -u is required")
	}
	log := common.setup()

	opts, err := common.buildOptions()
	if err != nil {
		return err
	}
	tampers, err := common.buildTampers()
	if err != nil {
		return err
	}

	sub := submit.NewPath(common.buildRequester(opts), *urlFlag, tampers...)
	cr, err := cracker.New(ctx, sub, opts, log)
	if err != nil {
		return err
	}
	return common.runGoals(ctx, cr, *urlFlag)
}

// cmdCrackJSON attacks one key of a JSON request body.
func cmdCrackJSON(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("crack-json", flag.ExitOnError)
	common := addCommon(fs)
	urlFlag := fs.String("u", "", "target URL (required)")
	method := fs.String("m", "POST", "request method")
	body := fs.String("d", "{}", "base JSON body")
	key := fs.String("k", "", "body key to inject (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *urlFlag == "" || *key == "" {
		fs.Usage()
		return fmt.Errorf("crack-json: -u and -k are required")
	}
	log := common.setup()

	opts, err := common.buildOptions()
	if err != nil {
		return err
	}
	tampers, err := common.buildTampers()
	if err != nil {
		return err
	}

	base, err := parseJSONObject(*body)
	if err != nil {
		return fmt.Errorf("crack-json: parse -d: %w", err)
	}
	sub, err := submit.NewJSON(common.buildRequester(opts), *urlFlag, *method, base, *key, tampers...)
	if err != nil {
		return err
	}
	cr, err := cracker.New(ctx, sub, opts, log)
	if err != nil {
		return err
	}
	return common.runGoals(ctx, cr, *urlFlag)
}

// cmdCrackRequest replays a raw request template with payloads substituted
// at the PAYLOAD marker.
func cmdCrackRequest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("crack-request", flag.ExitOnError)
	common := addCommon(fs)
	file := fs.String("f", "", "raw request template file (required)")
	target := fs.String("t", "", "target host:port (required)")
	useTLS := fs.Bool("ssl", false, "wrap the connection in TLS")
	sni := fs.String("sni", "", "TLS server name; defaults to the target host")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *target == "" {
		fs.Usage()
		return fmt.Errorf("crack-request: -f and -t are required")
	}
	log := common.setup()

	opts, err := common.buildOptions()
	if err != nil {
		return err
	}
	tampers, err := common.buildTampers()
	if err != nil {
		return err
	}

	template, err := readFileString(*file)
	if err != nil {
		return err
	}
	serverName := *sni
	if serverName == "" {
		serverName, _, _ = strings.Cut(*target, ":")
	}
	sub, err := submit.NewRaw(requester.NewTCP(*target, *useTLS, serverName), template, tampers...)
	if err != nil {
		return err
	}
	cr, err := cracker.New(ctx, sub, opts, log)
	if err != nil {
		return err
	}
	return common.runGoals(ctx, cr, *target)
}

// cmdCrackKeywords generates payloads offline against a declared keyword
// blocklist, no target required.
func cmdCrackKeywords(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("crack-keywords", flag.ExitOnError)
	common := addCommon(fs)
	keywords := fs.String("k", "", "comma-separated blocked keywords")
	keywordFile := fs.String("kf", "", "keyword file, one per line or a JSON string array")
	if err := fs.Parse(args); err != nil {
		return err
	}
	common.setup()

	opts, err := common.buildOptions()
	if err != nil {
		return err
	}
	opts.Keywords = append(opts.Keywords, parseCommaList(*keywords)...)
	if *keywordFile != "" {
		lines, err := readKeywordFile(*keywordFile)
		if err != nil {
			return err
		}
		opts.Keywords = append(opts.Keywords, lines...)
	}

	cr := cracker.NewOffline(opts)
	cmd := common.execCmd
	if cmd == "" {
		cmd = "id"
	}
	f, err := cr.Payload(cmd)
	if err != nil {
		return err
	}
	printFinding(f)
	return nil
}

// cmdScan scrapes a page for forms and attacks every input until one
// cracks.
func cmdScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	common := addCommon(fs)
	urlFlag := fs.String("u", "", "page URL to scrape (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *urlFlag == "" {
		fs.Usage()
		return fmt.Errorf("scan: -u is required")
	}
	log := common.setup()

	opts, err := common.buildOptions()
	if err != nil {
		return err
	}
	tampers, err := common.buildTampers()
	if err != nil {
		return err
	}
	rq := common.buildRequester(opts)

	forms, err := scrapeForms(ctx, rq, *urlFlag)
	if err != nil {
		return err
	}
	if len(forms) == 0 {
		return fmt.Errorf("scan: no forms on %s", *urlFlag)
	}
	log.Info("forms discovered", "count", len(forms))

	var lastErr error
	for _, f := range forms {
		for _, name := range f.Inputs {
			sub, err := submit.NewForm(rq, f, name, tampers...)
			if err != nil {
				continue
			}
			log.Info("trying form input", "action", f.Action, "field", name)
			cr, err := cracker.New(ctx, sub, opts, log)
			if err != nil {
				lastErr = err
				continue
			}
			fmt.Println(ui.FoundStyle.Render("[+]"), "injectable:",
				ui.URLStyle.Render(f.Action), "field", name)
			return common.runGoals(ctx, cr, f.Action)
		}
	}
	if lastErr == nil {
		lastErr = profile.ErrUnresponsive
	}
	return lastErr
}

func scrapeForms(ctx context.Context, rq *requester.HTTP, pageURL string) ([]form.Form, error) {
	req, err := http.NewRequest(http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := rq.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	forms, err := form.Parse(pageURL, strings.NewReader(resp.Body))
	if err != nil {
		return nil, err
	}
	if len(forms) > defaults.MaxFormsPerPage {
		forms = forms[:defaults.MaxFormsPerPage]
	}
	return forms, nil
}
