// Package checker runs the user-facing workflow: read the URL field, ask the
// classification service for a verdict and render what came back. All page
// elements are injected so the same workflow drives the live WebSocket
// page, the HTML form fallback and the terminal client.
package checker

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/veil-waf/phishcheck/internal/predict"
	"github.com/veil-waf/phishcheck/internal/view"
)

// Alert texts shown when the URL field is empty.
const (
	AlertEmptyCheck = "Please enter a URL."
	AlertEmptyOpen  = "Please enter a URL before running."
)

var errEmptyResult = errors.New("empty response from classification service")

// Input is the URL field.
type Input interface {
	Value() string
}

// Output is the result container.
type Output interface {
	Render(view.State)
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(msg string)
}

// Opener opens a URL in a new browsing context.
type Opener interface {
	Open(url string) error
}

// Predictor classifies a URL.
type Predictor interface {
	Predict(ctx context.Context, url string) (*predict.Result, error)
}

// Checker is the submission handler bound to one page.
type Checker struct {
	predictor Predictor
	input     Input
	output    Output
	alerter   Alerter
	opener    Opener
	panels    *Panels

	// generation increases on every submission; only the response of the
	// latest one is rendered. mu makes the check and the render atomic.
	mu         sync.Mutex
	generation uint64
}

// New creates a Checker. opener may be nil when the page cannot open URLs.
func New(predictor Predictor, input Input, output Output, alerter Alerter, opener Opener) *Checker {
	return &Checker{
		predictor: predictor,
		input:     input,
		output:    output,
		alerter:   alerter,
		opener:    opener,
		panels:    NewPanels(),
	}
}

// Panels returns the why panels rendered by this checker.
func (c *Checker) Panels() *Panels {
	return c.panels
}

// Submit classifies the current input and renders the outcome, returning
// once the outcome is on the page. It never returns an error: every failure
// ends up in the output container. It reports whether a request was sent.
func (c *Checker) Submit(ctx context.Context) bool {
	done, sent := c.Start(ctx)
	<-done
	return sent
}

// Start reads and validates the input and renders the pending state before
// returning; the request itself runs in the background and done is closed
// once its outcome has been handled.
func (c *Checker) Start(ctx context.Context) (done <-chan struct{}, sent bool) {
	ch := make(chan struct{})

	url := strings.TrimSpace(c.input.Value())
	if url == "" {
		c.alerter.Alert(AlertEmptyCheck)
		close(ch)
		return ch, false
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.panels.Reset("")
	c.output.Render(view.Pending{})
	c.mu.Unlock()

	go func() {
		defer close(ch)
		c.finish(ctx, gen, url)
	}()
	return ch, true
}

func (c *Checker) finish(ctx context.Context, gen uint64, url string) {
	res, err := c.predictor.Predict(ctx, url)
	if err == nil && res == nil {
		err = errEmptyResult
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// A newer submission owns the output.
		return
	}
	if err != nil {
		c.output.Render(view.FailureFromError(err))
		return
	}

	panelID := uuid.NewString()
	c.panels.Reset(panelID)
	c.output.Render(view.NewSuccess(res, panelID))
}

// OpenURL opens the current input in a new browsing context. It does not
// depend on any classification having happened.
func (c *Checker) OpenURL() error {
	url := strings.TrimSpace(c.input.Value())
	if url == "" {
		c.alerter.Alert(AlertEmptyOpen)
		return nil
	}
	if c.opener == nil {
		return nil
	}
	return c.opener.Open(url)
}

// Toggle flips the why panel with the given id and returns its new state.
// ok is false when the panel is not on the page.
func (c *Checker) Toggle(panelID string) (expanded, ok bool) {
	return c.panels.Toggle(panelID)
}
