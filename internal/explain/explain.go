// Package explain turns the free-text reason codes returned by the
// classification service into messages a person can read.
package explain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// reasonRule maps a keyword found in a reason code to its display message.
type reasonRule struct {
	Keyword string
	Message string
}

// rules are evaluated in order and the first match wins. A code such as
// "ip_keyword" resolves to the ip rule.
var rules = []reasonRule{
	{Keyword: "ip", Message: "🔢 Uses an IP address instead of a domain (common in phishing)."},
	{Keyword: "keyword", Message: "⚠️ Contains suspicious words like 'login', 'verify', or 'secure'."},
	{Keyword: "long", Message: "🧵 The URL is very long — might be hiding something."},
	{Keyword: "short", Message: "🔗 Shortened URL — could be used to mask the destination."},
	{Keyword: "symbol", Message: "❌ Contains special characters (like @, -, _) often used in fake URLs."},
	{Keyword: "subdomain", Message: "🌐 Too many subdomains — could be imitating a trusted site."},
	{Keyword: "redirect", Message: "➡️ Redirect detected — possibly leading to another suspicious site."},
	{Keyword: "https", Message: "🔒 Missing or invalid HTTPS certificate."},
}

const unknownMarker = "⚡ "

// Fallback reasons used when the service sent no explanation.
const (
	FallbackPhishing = "Detected suspicious URL structure or risky indicators."
	FallbackSafe     = "No suspicious indicators found. URL appears safe."
)

// Describe returns the display message for a raw reason code. Codes that
// match no known category are echoed back with their first letter
// capitalized. The result is never empty.
func Describe(raw string) string {
	lower := strings.ToLower(raw)
	for _, rule := range rules {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Message
		}
	}
	return unknownMarker + capitalize(raw)
}

// DescribeAll maps every code through Describe, keeping order.
func DescribeAll(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, Describe(c))
	}
	return out
}

// FallbackReason returns the single generic reason for a verdict that came
// without an explanation.
func FallbackReason(phishing bool) string {
	if phishing {
		return FallbackPhishing
	}
	return FallbackSafe
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
