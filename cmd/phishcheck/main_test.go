package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veil-waf/phishcheck/internal/checker"
)

type fakeOpener struct{ urls []string }

func (f *fakeOpener) Open(url string) error {
	f.urls = append(f.urls, url)
	return nil
}

func classifier(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["url"] == "" {
			t.Errorf("request without url")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunCheck(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantOut  string
	}{
		{"phishing", 200, `{"phishing_probability":0.87,"label":1,"explanation":["ip_address"]}`, 1, "Probability: 87.0%"},
		{"safe", 200, `{"phishing_probability":0.02,"label":0}`, 0, "No suspicious indicators found"},
		{"server error", 429, `{"error":"rate limited"}`, 2, "❌ rate limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := classifier(t, tt.status, tt.body)
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), []string{"-server", srv.URL, "check", "http://192.168.1.1/login"}, strings.NewReader(""), &stdout, &stderr, &fakeOpener{})
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, tt.wantCode, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, stdout.String())
			}
		})
	}
}

func TestRunCheckReadsStdin(t *testing.T) {
	srv := classifier(t, 200, `{"phishing_probability":0.1,"label":0}`)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-server", srv.URL, "check"}, strings.NewReader("http://example.com\n"), &stdout, &stderr, &fakeOpener{})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr.String())
	}
}

func TestRunCheckEmpty(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-server", "http://127.0.0.1:1", "check"}, strings.NewReader("  \n"), &stdout, &stderr, &fakeOpener{})
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), checker.AlertEmptyCheck) {
		t.Errorf("stderr = %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("unexpected output: %q", stdout.String())
	}
}

func TestRunCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-server", base, "check", "http://example.com"}, strings.NewReader(""), &stdout, &stderr, &fakeOpener{})
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stdout.String(), "🚫 Server error: ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunOpen(t *testing.T) {
	opener := &fakeOpener{}
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"open", "https://example.com"}, strings.NewReader(""), &stdout, &stderr, opener); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if len(opener.urls) != 1 || opener.urls[0] != "https://example.com" {
		t.Errorf("opened = %v", opener.urls)
	}

	opener = &fakeOpener{}
	if code := run(context.Background(), []string{"open"}, strings.NewReader("\n"), &stdout, &stderr, opener); code != 2 {
		t.Errorf("empty open exit code = %d", code)
	}
	if len(opener.urls) != 0 {
		t.Errorf("opened = %v", opener.urls)
	}
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, strings.NewReader(""), &stdout, &stderr, &fakeOpener{}); code != 2 {
		t.Errorf("exit code = %d", code)
	}
	if code := run(context.Background(), []string{"bogus", "x"}, strings.NewReader(""), &stdout, &stderr, &fakeOpener{}); code != 2 {
		t.Errorf("exit code = %d", code)
	}
}
