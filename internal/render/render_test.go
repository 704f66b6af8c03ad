package render

import (
	"bytes"
	"html/template"
	"io/fs"
	"strings"
	"testing"

	"github.com/veil-waf/phishcheck/internal/predict"
	"github.com/veil-waf/phishcheck/internal/view"
)

func TestHTMLSuccess(t *testing.T) {
	s := view.NewSuccess(&predict.Result{
		PhishingProbability: 0.87,
		Label:               1,
		Explanation:         []string{"ip_address", "keyword_login"},
	}, "p1")

	out, err := HTMLString(s)
	if err != nil {
		t.Fatalf("HTMLString: %v", err)
	}
	for _, want := range []string{
		`class="result danger"`,
		"Likely Phishing",
		"<b>87.0%</b>",
		`data-width="87.0"`,
		`data-panel="p1"`,
		"Uses an IP address",
		"suspicious words",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "<li>"); n != 2 {
		t.Errorf("expected 2 list items, got %d", n)
	}
	ip := strings.Index(out, "Uses an IP address")
	kw := strings.Index(out, "suspicious words")
	if ip > kw {
		t.Error("reasons rendered out of order")
	}
}

func TestHTMLEscapesReasons(t *testing.T) {
	s := view.NewSuccess(&predict.Result{Explanation: []string{"<b>odd</b>"}}, "p")
	out, err := HTMLString(s)
	if err != nil {
		t.Fatalf("HTMLString: %v", err)
	}
	if strings.Contains(out, "<b>odd") {
		t.Errorf("reason not escaped:\n%s", out)
	}
	if !strings.Contains(out, `class="result safe"`) {
		t.Error("expected safe variant")
	}
}

func TestHTMLFailures(t *testing.T) {
	out, _ := HTMLString(view.Failure{Kind: view.FailureServer, Message: "rate limited"})
	if !strings.Contains(out, "❌ rate limited") {
		t.Errorf("server failure: %s", out)
	}
	out, _ = HTMLString(view.Failure{Kind: view.FailureTransport, Message: "connection refused"})
	if !strings.Contains(out, "🚫 Server error: connection refused") {
		t.Errorf("transport failure: %s", out)
	}
	out, _ = HTMLString(view.Pending{})
	if !strings.Contains(out, "Checking the link") {
		t.Errorf("pending: %s", out)
	}
}

func TestHTMLUnknownState(t *testing.T) {
	if err := HTML(&bytes.Buffer{}, nil); err == nil {
		t.Error("expected error for nil state")
	}
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	err := Page(&buf, PageData{
		URL:    `http://a.example/"x`,
		Output: template.HTML(`<p class="pending">hi</p>`),
		Alert:  "Please enter a URL.",
		Live:   true,
	})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`<p class="pending">hi</p>`, "Please enter a URL.", "/static/app.js", "&#34;x"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	s := view.NewSuccess(&predict.Result{PhishingProbability: 0.5, Label: 0}, "")
	if err := Text(&buf, s); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Probability: 50.0%") || !strings.Contains(out, "Likely Safe") {
		t.Errorf("unexpected text:\n%s", out)
	}
	if !strings.Contains(out, "[###############...............]") {
		t.Errorf("unexpected bar:\n%s", out)
	}
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"app.js", "style.css"} {
		if _, err := fs.Stat(Static(), name); err != nil {
			t.Errorf("missing static asset %s: %v", name, err)
		}
	}
}
