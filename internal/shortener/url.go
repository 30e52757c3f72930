package shortener

import (
	"net/url"
	"strings"

	"github.com/serroba/linkmark/internal/domain"
)

const MaxURLLength = 2048

// NormalizeTarget validates a destination URL and returns its canonical form.
// - Adds https:// when the scheme is missing
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Removes empty fragment
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.NewValidationError("url", "URL is required")
	}

	if len(raw) > MaxURLLength {
		return "", domain.NewValidationError("url", "URL is too long (max 2048 characters)")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.NewValidationError("url", "URL is not well formed")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", domain.NewValidationError("url", "URL must use http or https")
	}

	u.Host = strings.ToLower(u.Host)
	if u.Hostname() == "" {
		return "", domain.NewValidationError("url", "URL must contain a host")
	}

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	} else {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	if u.Fragment == "" {
		u.RawFragment = ""
	}

	return u.String(), nil
}
