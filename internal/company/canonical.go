package company

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/publicsuffix"

	dErrors "github.com/DEMONNN69/knowyourcompany/pkg/domain-errors"
)

// CanonicalKey normalizes a company name to its canonical identity: case-folded,
// punctuation stripped, whitespace collapsed. It is pure and idempotent —
// CanonicalKey(CanonicalKey(x)) == CanonicalKey(x) — and is the sole key used
// for cache and store lookups.
//
// Returns CodeBadRequest if nothing survives normalization; that is a caller
// error, not a pipeline fault.
func CanonicalKey(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := true // leading whitespace is dropped
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// Punctuation separates words rather than vanishing, so
			// "acme-corp" and "acme corp" collapse to the same key.
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}

	key := strings.TrimSpace(b.String())
	if key == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "company name is empty after normalization")
	}
	return key, nil
}

// NormalizeWebsite reduces a website URL to its registrable domain
// (e.g. "https://www.xyztraining.co.uk/about" -> "xyztraining.co.uk").
// Returns "" for input that does not parse to a host.
func NormalizeWebsite(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}
