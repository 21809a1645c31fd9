package domain

import (
	"fmt"
	"strings"
)

// VisualPromptSet is the result of prompt derivation: one shared style seed
// and one prompt per platform.
type VisualPromptSet struct {
	StyleSeed string                 `json:"style_seed"`
	Prompts   map[PlatformKey]string `json:"prompts"`
}

// Prompt returns the trimmed prompt for key.
func (s VisualPromptSet) Prompt(key PlatformKey) string {
	if s.Prompts == nil {
		return ""
	}
	return strings.TrimSpace(s.Prompts[key])
}

// Validate reports an error when any platform in the table lacks a prompt.
func (s VisualPromptSet) Validate() error {
	var missing []string
	for _, key := range PlatformKeys() {
		if s.Prompt(key) == "" {
			missing = append(missing, string(key))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingPlatformPrompt, strings.Join(missing, ", "))
	}
	return nil
}
