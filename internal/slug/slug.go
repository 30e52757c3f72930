// Package slug generates and validates the identifiers used in short links,
// QR redirect codes and markdown shares.
package slug

import (
	"fmt"
	"strings"

	"github.com/jaevor/go-nanoid"
)

const (
	// Alphabet is the URL-safe symbol set shared by generated and custom slugs.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	// DefaultLength gives 42 bits of entropy per generated code.
	DefaultLength = 7

	// MinCustomLength and MaxCustomLength bound a user-chosen slug, inclusive.
	MinCustomLength = 3
	MaxCustomLength = 20
)

// Generator returns a fresh random code on each call.
type Generator func() string

// NewGenerator returns a crypto-random generator of length-character codes
// drawn from Alphabet.
func NewGenerator(length int) (Generator, error) {
	gen, err := nanoid.Standard(length)
	if err != nil {
		return nil, fmt.Errorf("slug generator of length %d: %w", length, err)
	}

	return gen, nil
}

// Generate returns a single random code of the given length.
func Generate(length int) (string, error) {
	gen, err := NewGenerator(length)
	if err != nil {
		return "", err
	}

	return gen(), nil
}

// IsValidCustom reports whether s may be used as a user-chosen slug.
func IsValidCustom(s string) bool {
	if len(s) < MinCustomLength || len(s) > MaxCustomLength {
		return false
	}

	for i := 0; i < len(s); i++ {
		if !inAlphabet(s[i]) {
			return false
		}
	}

	return true
}

// IsReserved reports whether s collides with a top-level route, ignoring case.
func IsReserved(s string) bool {
	_, ok := reserved[strings.ToLower(s)]
	return ok
}

func inAlphabet(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}

	return false
}

var reserved = map[string]struct{}{
	"account":      {},
	"admin":        {},
	"api":          {},
	"assets":       {},
	"auth":         {},
	"billing":      {},
	"blog":         {},
	"dashboard":    {},
	"docs":         {},
	"favicon.ico":  {},
	"health":       {},
	"login":        {},
	"logout":       {},
	"markdown":     {},
	"md":           {},
	"metrics":      {},
	"openapi":      {},
	"openapi.json": {},
	"openapi.yaml": {},
	"p":            {},
	"pricing":      {},
	"privacy":      {},
	"q":            {},
	"qr":           {},
	"r":            {},
	"robots.txt":   {},
	"s":            {},
	"schemas":      {},
	"settings":     {},
	"signin":       {},
	"signup":       {},
	"sitemap.xml":  {},
	"static":       {},
	"terms":        {},
}
