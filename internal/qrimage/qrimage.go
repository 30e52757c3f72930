// Package qrimage renders QR codes as PNG images.
package qrimage

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	MinSize     = 128
	MaxSize     = 1024
	DefaultSize = 256
)

// ClampSize maps size into [MinSize, MaxSize]; zero means DefaultSize.
func ClampSize(size int) int {
	switch {
	case size == 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	default:
		return size
	}
}

// PNG encodes content at medium error correction as a size x size image.
func PNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, ClampSize(size))
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}

	return png, nil
}
