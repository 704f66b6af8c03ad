// Package view holds the typed states the output container can show.
package view

import (
	"errors"
	"math"
	"strconv"

	"github.com/veil-waf/phishcheck/internal/explain"
	"github.com/veil-waf/phishcheck/internal/predict"
)

// State is one of Pending, Success or Failure.
type State interface {
	isState()
}

// Pending is shown while a classification request is in flight.
type Pending struct{}

// Variant selects the colour scheme of a verdict.
type Variant string

const (
	VariantDanger Variant = "danger"
	VariantSafe   Variant = "safe"
)

// Success is a rendered verdict.
type Success struct {
	URL         string
	Probability float64
	Percent     string // probability*100, one decimal
	Phishing    bool
	Variant     Variant
	Title       string
	BarColor    string
	Reasons     []string
	PanelID     string
}

// FailureKind tells apart the two failures that are rendered inline.
type FailureKind int

const (
	// FailureServer is an error reported by the classification service.
	FailureServer FailureKind = iota
	// FailureTransport means the request never completed.
	FailureTransport
)

// DefaultServerMessage is shown when the service failed without saying why.
const DefaultServerMessage = "Server error occurred."

// Failure is an inline error message.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (Pending) isState() {}
func (Success) isState() {}
func (Failure) isState() {}

// NewSuccess shapes a service result into a verdict. panelID identifies the
// why panel rendered with it.
func NewSuccess(res *predict.Result, panelID string) Success {
	phishing := res.IsPhishing()

	s := Success{
		URL:         res.URL,
		Probability: res.PhishingProbability,
		Percent:     FormatPercent(res.PhishingProbability),
		Phishing:    phishing,
		PanelID:     panelID,
	}
	if phishing {
		s.Variant = VariantDanger
		s.Title = "⚠️ Likely Phishing"
		s.BarColor = "#ff4444"
	} else {
		s.Variant = VariantSafe
		s.Title = "✅ Likely Safe"
		s.BarColor = "#00ff80"
	}

	if len(res.Explanation) > 0 {
		s.Reasons = explain.DescribeAll(res.Explanation)
	} else {
		s.Reasons = []string{explain.FallbackReason(phishing)}
	}
	return s
}

// FormatPercent renders p as a percentage rounded to one decimal place.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(math.Round(p*1000)/10, 'f', 1, 64)
}

// FailureFromError maps a predict error onto the inline failure to show.
func FailureFromError(err error) Failure {
	var serverErr *predict.ServerError
	if errors.As(err, &serverErr) {
		msg := serverErr.Message
		if msg == "" {
			msg = DefaultServerMessage
		}
		return Failure{Kind: FailureServer, Message: msg}
	}

	var transportErr *predict.TransportError
	if errors.As(err, &transportErr) {
		return Failure{Kind: FailureTransport, Message: transportErr.Err.Error()}
	}
	return Failure{Kind: FailureTransport, Message: err.Error()}
}
