// Package datauri converts between raw image bytes and base64 data URIs.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const fallbackMIME = "image/jpeg"

var (
	headerPattern   = regexp.MustCompile(`^data:(image/[a-zA-Z+]+);base64,(.+)$`)
	fallbackPattern = regexp.MustCompile(`^data:image/[a-z]+;base64,`)

	ErrNotImage = errors.New("file is not a supported image")
	ErrEmpty    = errors.New("no image data")
)

// uploadTypes are the photo formats accepted from file input.
var uploadTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/heic", "image/heif"}

// Image is a decoded inline image.
type Image struct {
	MIMEType string
	Data     []byte
}

// Encode builds a self-describing data URI.
func Encode(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// FromFile sniffs the content type of an uploaded file and encodes it.
// Only the photo formats in uploadTypes are accepted.
func FromFile(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mt := mimetype.Detect(data)
	for _, allowed := range uploadTypes {
		if mt.Is(allowed) {
			return Encode(allowed, data), nil
		}
	}
	return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
}

// Split separates a data URI into mime type and base64 payload. When the
// expected header is absent, any simple image header is stripped and the
// mime type defaults to image/jpeg.
func Split(uri string) (mimeType, payload string) {
	uri = strings.TrimSpace(uri)
	if m := headerPattern.FindStringSubmatch(uri); len(m) == 3 {
		return m[1], m[2]
	}
	return fallbackMIME, fallbackPattern.ReplaceAllString(uri, "")
}

// Decode splits and base64-decodes a data URI.
func Decode(uri string) (Image, error) {
	mimeType, payload := Split(uri)
	if payload == "" {
		return Image{}, ErrEmpty
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode base64 image: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmpty
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}
