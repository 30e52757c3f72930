// Package analytics fingerprints visitors, records visit and scan events
// off the request path, and aggregates them at read time.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// TopicVisit carries VisitEvent messages.
const TopicVisit = "analytics.visit"

// DirectReferer is the display value for a missing or unusable referer.
const DirectReferer = "Direct"

// AssetKind tags the three kinds of asset that collect events.
type AssetKind string

const (
	AssetShortURL AssetKind = "short_url"
	AssetQRCode   AssetKind = "qr_code"
	AssetMarkdown AssetKind = "markdown"
)

// Valid reports whether k is one of the known kinds.
func (k AssetKind) Valid() bool {
	switch k {
	case AssetShortURL, AssetQRCode, AssetMarkdown:
		return true
	}

	return false
}

// AssetRef points at one asset.
type AssetRef struct {
	Kind AssetKind `json:"kind"`
	ID   string    `json:"id"`
}

func ShortURL(id string) AssetRef { return AssetRef{Kind: AssetShortURL, ID: id} }
func QRCode(id string) AssetRef   { return AssetRef{Kind: AssetQRCode, ID: id} }
func Markdown(id string) AssetRef { return AssetRef{Kind: AssetMarkdown, ID: id} }

// EventType classifies an event.
type EventType string

const (
	EventVisit EventType = "visit"
	EventScan  EventType = "scan"
)

// ParseEventType maps stored values to an EventType. Anything that is not
// a scan, including legacy values, counts as a visit.
func ParseEventType(s string) EventType {
	if EventType(s) == EventScan {
		return EventScan
	}

	return EventVisit
}

// RequestMeta is what the recorder needs from an inbound request.
type RequestMeta struct {
	IP        string
	UserAgent string
	Referer   string
	Country   string
}

// VisitEvent is one append-only analytics row.
type VisitEvent struct {
	ID            string    `json:"id"`
	Asset         AssetRef  `json:"asset"`
	EventType     EventType `json:"eventType"`
	RefererDomain string    `json:"refererDomain,omitempty"`
	UserAgentHash string    `json:"userAgentHash"`
	CountryCode   string    `json:"countryCode,omitempty"`
	SessionHash   string    `json:"sessionHash"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SessionHash fingerprints a visitor for one UTC calendar day.
func SessionHash(ip, userAgent string, at time.Time) string {
	return hashHex(fmt.Sprintf("%s_%s_%s", ip, userAgent, at.UTC().Format(time.DateOnly)))
}

// UserAgentHash hashes the raw user agent.
func UserAgentHash(userAgent string) string {
	return hashHex(userAgent)
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// RefererDomain returns the referer host without a leading "www.", or ""
// when the referer is absent or not an absolute URL.
func RefererDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return ""
	}

	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// NormalizeReferer is RefererDomain for display: empty becomes "Direct".
func NormalizeReferer(raw string) string {
	if d := RefererDomain(raw); d != "" {
		return d
	}

	return DirectReferer
}

// CountryCode keeps two-letter codes and drops anything else.
func CountryCode(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if len(raw) != 2 || raw == "XX" {
		return ""
	}

	for _, r := range raw {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}

	return raw
}
