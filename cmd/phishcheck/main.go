// Command phishcheck asks the classification service about a URL from the
// terminal, or opens it in the default browser.
//
//	phishcheck [-server URL] check <url>
//	phishcheck open <url>
//
// Exit status is 0 for a safe verdict, 1 for phishing and 2 for anything
// that produced no verdict.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/browser"

	"github.com/veil-waf/phishcheck/internal/checker"
	"github.com/veil-waf/phishcheck/internal/predict"
	"github.com/veil-waf/phishcheck/internal/render"
	"github.com/veil-waf/phishcheck/internal/view"
)

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, browserOpener{}))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, opener checker.Opener) int {
	fs := flag.NewFlagSet("phishcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	serverURL := fs.String("server", envOr("PREDICT_URL", predict.DefaultBaseURL), "classification service base URL")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: phishcheck [-server URL] check|open [url]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	value := strings.Join(fs.Args()[1:], " ")
	if value == "" {
		fmt.Fprint(stderr, "URL: ")
		line, _ := bufio.NewReader(stdin).ReadString('\n')
		value = line
	}

	term := &terminal{value: value, out: stdout, errOut: stderr}
	c := checker.New(predict.NewClient(*serverURL, nil), term, term, term, opener)

	switch fs.Arg(0) {
	case "check":
		if !c.Submit(ctx) {
			return 2
		}
		switch st := term.last.(type) {
		case view.Success:
			if st.Phishing {
				return 1
			}
			return 0
		default:
			return 2
		}
	case "open":
		if err := c.OpenURL(); err != nil {
			fmt.Fprintln(stderr, "open:", err)
			return 2
		}
		if term.alerted {
			return 2
		}
		return 0
	default:
		fs.Usage()
		return 2
	}
}

// terminal is the page for a command line: the argument is the URL field
// and stdout the result container.
type terminal struct {
	value   string
	out     io.Writer
	errOut  io.Writer
	last    view.State
	alerted bool
}

func (t *terminal) Value() string { return t.value }

func (t *terminal) Render(s view.State) {
	t.last = s
	if err := render.Text(t.out, s); err != nil {
		fmt.Fprintln(t.errOut, "render:", err)
	}
}

func (t *terminal) Alert(msg string) {
	t.alerted = true
	fmt.Fprintln(t.errOut, msg)
}

type browserOpener struct{}

func (browserOpener) Open(url string) error {
	return browser.OpenURL(url)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
