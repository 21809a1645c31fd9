package domain

import (
	"fmt"
	"strings"
)

// PlatformKey identifies one of the supported publishing surfaces.
type PlatformKey string

const (
	PlatformLinkedIn  PlatformKey = "linkedin"
	PlatformTwitter   PlatformKey = "twitter"
	PlatformInstagram PlatformKey = "instagram"
	PlatformBlog      PlatformKey = "blog"
)

// AspectRatio is the shape token accepted by the image backend.
type AspectRatio string

const (
	AspectWide   AspectRatio = "16:9"
	AspectSquare AspectRatio = "1:1"
)

// PlatformSpec describes the static composition rules for a platform.
type PlatformSpec struct {
	Key         PlatformKey `json:"key"`
	Label       string      `json:"label"`
	AspectLabel string      `json:"aspect_label"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
	SafeZone    string      `json:"safe_zone"`
}

// platformTable is ordered; generation and display both follow this order.
var platformTable = []PlatformSpec{
	{
		Key:         PlatformLinkedIn,
		Label:       "LinkedIn Cover",
		AspectLabel: "Wide (1584x396 crop)",
		AspectRatio: AspectWide,
		SafeZone:    "Keep the left third clear for the profile photo overlay; place the subject in the right third.",
	},
	{
		Key:         PlatformTwitter,
		Label:       "X / Twitter Header",
		AspectLabel: "Wide (1500x500 crop)",
		AspectRatio: AspectWide,
		SafeZone:    "Keep the bottom-left clear for the avatar; place the subject in the center or right.",
	},
	{
		Key:         PlatformInstagram,
		Label:       "Instagram Post",
		AspectLabel: "Square (1080x1080)",
		AspectRatio: AspectSquare,
		SafeZone:    "Center the subject strictly with generous margins on every side.",
	},
	{
		Key:         PlatformBlog,
		Label:       "Blog Header",
		AspectLabel: "Wide (1920x1080)",
		AspectRatio: AspectWide,
		SafeZone:    "Keep the bottom area clear for the article title overlay.",
	},
}

// Platforms returns a copy of the platform table in generation order.
func Platforms() []PlatformSpec {
	out := make([]PlatformSpec, len(platformTable))
	copy(out, platformTable)
	return out
}

// PlatformKeys returns every known key in table order.
func PlatformKeys() []PlatformKey {
	keys := make([]PlatformKey, 0, len(platformTable))
	for _, spec := range platformTable {
		keys = append(keys, spec.Key)
	}
	return keys
}

// LookupPlatform returns the spec for key.
func LookupPlatform(key PlatformKey) (PlatformSpec, bool) {
	for _, spec := range platformTable {
		if spec.Key == key {
			return spec, true
		}
	}
	return PlatformSpec{}, false
}

// ParsePlatformKey normalizes free-form input into a known key.
func ParsePlatformKey(raw string) (PlatformKey, error) {
	key := PlatformKey(strings.ToLower(strings.TrimSpace(raw)))
	if key == "x" {
		key = PlatformTwitter
	}
	if _, ok := LookupPlatform(key); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, raw)
	}
	return key, nil
}
