package view

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/veil-waf/phishcheck/internal/explain"
	"github.com/veil-waf/phishcheck/internal/predict"
)

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0, "0.0"},
		{1, "100.0"},
		{0.87, "87.0"},
		{0.5, "50.0"},
		{0.123, "12.3"},
		{0.9999, "100.0"},
		{0.00049, "0.0"},
		{0.0005, "0.1"},
		{0.4567, "45.7"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.p), func(t *testing.T) {
			if got := FormatPercent(tt.p); got != tt.want {
				t.Errorf("FormatPercent(%v) = %q, want %q", tt.p, got, tt.want)
			}
		})
	}
}

func TestNewSuccessPhishingScenario(t *testing.T) {
	res := &predict.Result{
		URL:                 "http://192.168.1.1/login",
		PhishingProbability: 0.87,
		Label:               1,
		Explanation:         []string{"ip_address", "keyword_login"},
	}
	s := NewSuccess(res, "panel-1")

	if s.Percent != "87.0" {
		t.Errorf("Percent = %q, want 87.0", s.Percent)
	}
	if !s.Phishing || s.Variant != VariantDanger {
		t.Errorf("expected danger variant, got %v/%v", s.Phishing, s.Variant)
	}
	if len(s.Reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %d", len(s.Reasons))
	}
	if s.Reasons[0] != explain.Describe("ip") || s.Reasons[1] != explain.Describe("keyword") {
		t.Errorf("unexpected reasons: %v", s.Reasons)
	}
	if s.PanelID != "panel-1" {
		t.Errorf("PanelID = %q", s.PanelID)
	}
}

func TestNewSuccessLabelDecidesVariant(t *testing.T) {
	tests := []struct {
		label int
		p     float64
		want  Variant
	}{
		{1, 0.01, VariantDanger},
		{0, 0.99, VariantSafe},
		{2, 0.9, VariantSafe},
		{-1, 0.5, VariantSafe},
	}
	for _, tt := range tests {
		s := NewSuccess(&predict.Result{Label: tt.label, PhishingProbability: tt.p}, "")
		if s.Variant != tt.want {
			t.Errorf("label %d: variant = %v, want %v", tt.label, s.Variant, tt.want)
		}
	}
}

func TestNewSuccessFallbackReasons(t *testing.T) {
	s := NewSuccess(&predict.Result{Label: 1, PhishingProbability: 0.7}, "")
	if len(s.Reasons) != 1 || s.Reasons[0] != explain.FallbackPhishing {
		t.Errorf("phishing fallback: %v", s.Reasons)
	}

	s = NewSuccess(&predict.Result{Label: 0, Explanation: []string{}}, "")
	if len(s.Reasons) != 1 || s.Reasons[0] != explain.FallbackSafe {
		t.Errorf("safe fallback: %v", s.Reasons)
	}
}

func TestFailureFromError(t *testing.T) {
	f := FailureFromError(&predict.ServerError{StatusCode: 429, Message: "rate limited"})
	if f.Kind != FailureServer || f.Message != "rate limited" {
		t.Errorf("server error: %+v", f)
	}

	f = FailureFromError(&predict.ServerError{StatusCode: 500})
	if f.Kind != FailureServer || f.Message != DefaultServerMessage {
		t.Errorf("server error fallback: %+v", f)
	}

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	f = FailureFromError(fmt.Errorf("wrapped: %w", &predict.TransportError{Err: opErr}))
	if f.Kind != FailureTransport || f.Message != opErr.Error() {
		t.Errorf("transport error: %+v", f)
	}

	f = FailureFromError(errors.New("boom"))
	if f.Kind != FailureTransport || f.Message != "boom" {
		t.Errorf("plain error: %+v", f)
	}
}
