package domain

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// EncodedImage is raw image bytes together with their MIME type. Reference
// images supplied by the user and rendered platform assets share this shape.
type EncodedImage struct {
	MimeType string
	Data     []byte
}

// IsZero reports whether the image carries no payload.
func (img *EncodedImage) IsZero() bool {
	return img == nil || len(img.Data) == 0
}

// Base64 returns the standard base64 encoding of the payload.
func (img EncodedImage) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURI renders the image as a data URI.
func (img EncodedImage) DataURI() string {
	mime := strings.TrimSpace(img.MimeType)
	if mime == "" {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, img.Base64())
}

// NewEncodedImage copies data and sniffs the MIME type when it is not given.
func NewEncodedImage(mimeType string, data []byte) EncodedImage {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" && len(data) > 0 {
		mimeType = http.DetectContentType(data)
	}
	return EncodedImage{MimeType: mimeType, Data: append([]byte(nil), data...)}
}

// ParseDataURI decodes a "data:<mime>;base64,<payload>" string. A bare base64
// payload is accepted with fallbackMime.
func ParseDataURI(raw, fallbackMime string) (EncodedImage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EncodedImage{}, fmt.Errorf("%w: empty image payload", ErrInvalidInput)
	}
	mime := fallbackMime
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		idx := strings.IndexByte(raw, ',')
		if idx < 0 {
			return EncodedImage{}, fmt.Errorf("%w: malformed data uri", ErrInvalidInput)
		}
		header := strings.TrimPrefix(raw[:idx], "data:")
		payload = raw[idx+1:]
		if !strings.HasSuffix(header, ";base64") {
			return EncodedImage{}, fmt.Errorf("%w: data uri is not base64", ErrInvalidInput)
		}
		if m := strings.TrimSuffix(header, ";base64"); m != "" {
			mime = m
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("%w: decode image: %v", ErrInvalidInput, err)
	}
	return NewEncodedImage(mime, data), nil
}

// ExtensionForMIME maps an image MIME type to a file extension.
func ExtensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
