// Package render turns view states into markup for the page and into plain
// text for the terminal client.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/veil-waf/phishcheck/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var templates = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// PendingText is shown while a request is in flight.
const PendingText = "🔍 Checking the link... please wait."

// PageData feeds the full page template.
type PageData struct {
	URL string
	// Output is the initial content of the result container.
	Output template.HTML
	// Alert replaces the blocking alert when the page runs without script.
	Alert string
	// Live enables the WebSocket shim; the form fallback still works without it.
	Live bool
}

// Static returns the embedded page assets (script and stylesheet).
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// HTML writes the result container fragment for s.
func HTML(w io.Writer, s view.State) error {
	switch st := s.(type) {
	case view.Pending:
		return templates.ExecuteTemplate(w, "pending", PendingText)
	case view.Failure:
		return templates.ExecuteTemplate(w, "failure", failureText(st))
	case view.Success:
		return templates.ExecuteTemplate(w, "success", st)
	default:
		return fmt.Errorf("render: unknown state %T", s)
	}
}

// HTMLString is HTML into a string.
func HTMLString(s view.State) (string, error) {
	var buf bytes.Buffer
	if err := HTML(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Page writes the whole page.
func Page(w io.Writer, data PageData) error {
	return templates.ExecuteTemplate(w, "page", data)
}

// Text writes s for a terminal.
func Text(w io.Writer, s view.State) error {
	switch st := s.(type) {
	case view.Pending:
		_, err := fmt.Fprintln(w, PendingText)
		return err
	case view.Failure:
		_, err := fmt.Fprintln(w, failureText(st))
		return err
	case view.Success:
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n", st.Title)
		fmt.Fprintf(&b, "Probability: %s%%\n", st.Percent)
		fmt.Fprintf(&b, "[%s]\n", bar(st.Probability, 30))
		b.WriteString("🔍 Why:\n")
		for _, r := range st.Reasons {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
		_, err := io.WriteString(w, b.String())
		return err
	default:
		return fmt.Errorf("render: unknown state %T", s)
	}
}

func failureText(f view.Failure) string {
	if f.Kind == view.FailureTransport {
		return "🚫 Server error: " + f.Message
	}
	return "❌ " + f.Message
}

func bar(p float64, width int) string {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	filled := int(p*float64(width) + 0.5)
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}
