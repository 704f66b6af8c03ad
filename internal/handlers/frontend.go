package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/veil-waf/phishcheck/internal/checker"
	"github.com/veil-waf/phishcheck/internal/ratelimit"
	"github.com/veil-waf/phishcheck/internal/render"
	"github.com/veil-waf/phishcheck/internal/view"
)

// AlertBadScheme is shown when the form fallback is asked to open a non-web link.
const AlertBadScheme = "Only http and https links can be opened."

// FrontendHandler serves the page and its script-free form fallback.
type FrontendHandler struct {
	predictor checker.Predictor
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

// NewFrontendHandler creates a new frontend handler.
func NewFrontendHandler(predictor checker.Predictor, limiter *ratelimit.Limiter, logger *slog.Logger) *FrontendHandler {
	return &FrontendHandler{predictor: predictor, limiter: limiter, logger: logger}
}

// Index handles GET / — the empty page.
func (fh *FrontendHandler) Index(w http.ResponseWriter, r *http.Request) {
	if fh.limiter.Check(w, r, "page") {
		return
	}
	fh.page(w, render.PageData{Live: true})
}

// Check handles POST /check — classifies the submitted URL and renders the
// whole page with the outcome.
func (fh *FrontendHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form", http.StatusBadRequest)
		return
	}

	pg := &formPage{value: r.PostForm.Get("url")}
	// Empty input is rejected by the checker and does not count.
	if strings.TrimSpace(pg.value) != "" && fh.limiter.Check(w, r, "check") {
		return
	}
	checker.New(fh.predictor, pg, pg, pg, nil).Submit(r.Context())

	data := render.PageData{URL: pg.value, Alert: pg.alert, Live: true}
	if pg.state != nil {
		html, err := render.HTMLString(pg.state)
		if err != nil {
			fh.logger.Error("render failed", "err", err)
			jsonError(w, "render failed", http.StatusInternalServerError)
			return
		}
		data.Output = template.HTML(html)
	}
	fh.page(w, data)
}

// Open handles POST /open — redirects the (new) tab to the submitted URL.
func (fh *FrontendHandler) Open(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form", http.StatusBadRequest)
		return
	}

	pg := &formPage{value: r.PostForm.Get("url")}
	if strings.TrimSpace(pg.value) != "" && fh.limiter.Check(w, r, "open") {
		return
	}
	if err := checker.New(fh.predictor, pg, pg, pg, pg).OpenURL(); err != nil {
		pg.alert = err.Error()
	}
	if pg.alert != "" {
		fh.page(w, render.PageData{URL: pg.value, Alert: pg.alert, Live: true})
		return
	}
	http.Redirect(w, r, pg.opened, http.StatusSeeOther)
}

// Ping handles GET /ping.
func Ping(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("pong"))
}

func (fh *FrontendHandler) page(w http.ResponseWriter, data render.PageData) {
	var buf bytes.Buffer
	if err := render.Page(&buf, data); err != nil {
		fh.logger.Error("render page failed", "err", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// formPage is the page as seen through one form post: the submitted field,
// the last rendered state and any alert.
type formPage struct {
	mu     sync.Mutex
	value  string
	state  view.State
	alert  string
	opened string
}

func (p *formPage) Value() string { return p.value }

func (p *formPage) Render(s view.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *formPage) Alert(msg string) { p.alert = msg }

func (p *formPage) Open(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (!strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https")) {
		p.alert = AlertBadScheme
		return nil
	}
	p.opened = u.String()
	return nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
