package shortener_test

import (
	"strings"
	"testing"

	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "adds scheme when missing",
			input:    "example.com/very/long/path",
			expected: "https://example.com/very/long/path",
		},
		{
			name:     "lowercases scheme and host",
			input:    "HTTPS://EXAMPLE.COM/Path",
			expected: "https://example.com/Path",
		},
		{
			name:     "removes default http port",
			input:    "http://example.com:80/path",
			expected: "http://example.com/path",
		},
		{
			name:     "removes default https port",
			input:    "https://example.com:443/path",
			expected: "https://example.com/path",
		},
		{
			name:     "keeps non-default port",
			input:    "https://example.com:8443/path",
			expected: "https://example.com:8443/path",
		},
		{
			name:     "keeps query and fragment",
			input:    "https://example.com/a?b=c#d",
			expected: "https://example.com/a?b=c#d",
		},
		{
			name:     "trims whitespace",
			input:    "  https://example.com  ",
			expected: "https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shortener.NormalizeTarget(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeTarget_Invalid(t *testing.T) {
	inputs := map[string]string{
		"empty":        "",
		"blank":        "   ",
		"ftp scheme":   "ftp://example.com/file",
		"javascript":   "javascript://alert(1)",
		"missing host": "https:///path",
		"too long":     "https://example.com/" + strings.Repeat("a", 2048),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := shortener.NormalizeTarget(input)

			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}
