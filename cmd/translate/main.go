// Command translate streams a translation to stdout.
//
//	translate -from en -to de "Good morning"
//	echo "Good morning" | translate -to fr
//
// The API key, model and default languages come from the settings file
// shared with the server. Provider settings come from the server's
// configuration (see pkg/config).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rhuss/simple-translate/pkg/api"
	"github.com/rhuss/simple-translate/pkg/config"
	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/provider/openai"
	"github.com/rhuss/simple-translate/pkg/settings"
	"github.com/rhuss/simple-translate/pkg/translate"
	"github.com/rhuss/simple-translate/pkg/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath   string
	settingsPath string
	from         string
	to           string
	model        string
	verbose      bool
	listModels   bool
	listLangs    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.configPath, "config", "", "path to config.yaml")
	fs.StringVar(&o.settingsPath, "settings", "", "path to settings.json (default: per-user config dir)")
	fs.StringVar(&o.from, "from", "", "source language (default: from settings)")
	fs.StringVar(&o.to, "to", "", "target language (default: from settings)")
	fs.StringVar(&o.model, "model", "", "model override")
	fs.BoolVar(&o.verbose, "v", false, "log translation progress to stderr")
	fs.BoolVar(&o.listModels, "list-models", false, "list the models available to the configured key")
	fs.BoolVar(&o.listLangs, "list-languages", false, "list the built-in language codes")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &o, fs.Args(), nil
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.listLangs {
		for _, l := range api.Languages() {
			fmt.Fprintf(stdout, "%s\t%s\n", l.Code, l.Name)
		}
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: loading configuration: %v\n", err)
		return 1
	}
	level := "WARN"
	if opts.verbose {
		level = cfg.Logging.Level
	}
	debug.Init(cfg.Logging.Debug, level, cfg.Logging.Format)

	settingsPath := opts.settingsPath
	if settingsPath == "" {
		settingsPath = cfg.Settings.Path
	}
	if settingsPath == "" {
		settingsPath = settings.DefaultPath()
	}
	s, err := settings.NewStore(settingsPath).Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: loading settings: %v\n", err)
		return 1
	}
	s = s.WithDefaults()
	if opts.model != "" {
		s.Model = opts.model
	}

	prov, err := openai.New(openai.Config{
		BaseURL:               cfg.Provider.BaseURL,
		Timeout:               cfg.Provider.Timeout,
		ResponseHeaderTimeout: cfg.Provider.ResponseHeaderTimeout,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer prov.Close()

	dispatcher, err := translate.New(prov, nil)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if opts.listModels {
		return listModels(ctx, dispatcher, s, stdout, stderr)
	}

	text, err := inputText(rest, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "error: reading input: %v\n", err)
		return 1
	}

	req := api.TranslationRequest{
		Text:           text,
		SourceLanguage: firstNonEmpty(opts.from, s.DefaultSourceLanguage),
		TargetLanguage: firstNonEmpty(opts.to, s.DefaultTargetLanguage),
	}
	return streamTranslation(ctx, dispatcher, req, s, stdout, stderr)
}

func listModels(ctx context.Context, d *translate.Dispatcher, s settings.Settings, stdout, stderr io.Writer) int {
	models, err := d.ListModels(ctx, s)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", translate.ErrorMessage(err))
		return 1
	}
	for _, m := range models {
		fmt.Fprintln(stdout, m.ID)
	}
	return 0
}

// streamTranslation prints deltas as they arrive. The listener's terminal
// notification ends the wait, including for requests rejected before they
// start.
func streamTranslation(ctx context.Context, d *translate.Dispatcher, req api.TranslationRequest, s settings.Settings, stdout, stderr io.Writer) int {
	translator := transport.Chain(transport.Recovery(), transport.RequestID())(d)

	done := make(chan int, 1)
	l := translate.ListenerFuncs{
		Token: func(delta string) {
			fmt.Fprint(stdout, delta)
		},
		Complete: func(resp api.TranslationResponse) {
			if !strings.HasSuffix(resp.TranslatedText, "\n") {
				fmt.Fprintln(stdout)
			}
			done <- 0
		},
		Error: func(message string) {
			fmt.Fprintf(stderr, "error: %s\n", message)
			done <- 1
		},
	}

	if err := translator.Dispatch(ctx, req, s, l); err != nil {
		select {
		case code := <-done:
			// Rejections are reported through the listener.
			return code
		default:
			fmt.Fprintf(stderr, "error: %s\n", translate.ErrorMessage(err))
			return 1
		}
	}

	select {
	case code := <-done:
		return code
	case <-ctx.Done():
		fmt.Fprintln(stderr, "interrupted")
		return 130
	}
}

// inputText joins the positional arguments, or reads stdin when there are
// none.
func inputText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
