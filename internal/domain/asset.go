package domain

import "time"

// AssetStatus is the lifecycle position of a platform asset.
type AssetStatus string

const (
	StatusIdle    AssetStatus = "idle"
	StatusLoading AssetStatus = "loading"
	StatusSuccess AssetStatus = "success"
	StatusError   AssetStatus = "error"
)

// Settled reports whether the status is success or error.
func (s AssetStatus) Settled() bool {
	return s == StatusSuccess || s == StatusError
}

// AssetState is the per-platform record observed by presentation. Records are
// values; the owning store replaces them whole.
type AssetState struct {
	Platform  PlatformKey `json:"platform"`
	Status    AssetStatus `json:"status"`
	Prompt    string      `json:"prompt,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
	ErrorMsg  string      `json:"error_msg,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Image decodes ImageURL back into bytes. ok is false when no image is set.
func (a AssetState) Image() (EncodedImage, bool) {
	if a.ImageURL == "" {
		return EncodedImage{}, false
	}
	img, err := ParseDataURI(a.ImageURL, "image/png")
	if err != nil {
		return EncodedImage{}, false
	}
	return img, true
}
